package storage

import (
	"time"

	"github.com/sipalingnode/yapbot/internal/models"
)

// Storage is the durable-store port for the three ledger documents:
// the append-only replied-ID set, the daily quota record and the
// per-author last-reply map. Each document is read once at process
// start and rewritten in full on every mutation; a failed write must
// not corrupt previously written state.
type Storage interface {
	LoadRepliedIDs() (map[string]struct{}, error)
	AppendRepliedID(id string) error

	LoadDailyStats() (models.DailyStats, error)
	SaveDailyStats(stats models.DailyStats) error

	LoadAuthorHistory() (map[string]time.Time, error)
	SaveAuthorHistory(history map[string]time.Time) error

	Close() error
}
