package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
	"github.com/sipalingnode/yapbot/internal/storage"
)

func newTestLedger(t *testing.T, cooldown time.Duration) (*Ledger, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	ledger, err := NewLedger(store, cooldown, zap.NewNop())
	require.NoError(t, err)
	return ledger, store
}

func TestLedger_RecordReply(t *testing.T) {
	ledger, store := newTestLedger(t, 30*time.Minute)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ledger.RecordReply("100", "@alice", now)

	assert.True(t, ledger.HasReplied("100"))
	assert.Equal(t, 1, ledger.Count())
	assert.True(t, ledger.IsAuthorCoolingDown("@alice", now.Add(time.Minute)))

	// All three documents persisted.
	ids, err := store.LoadRepliedIDs()
	require.NoError(t, err)
	assert.Contains(t, ids, "100")

	stats, err := store.LoadDailyStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, "2026-08-27", stats.Date)

	history, err := store.LoadAuthorHistory()
	require.NoError(t, err)
	assert.Contains(t, history, "@alice")
}

func TestLedger_ResetIfNewDayKeepsRepliedAndAuthors(t *testing.T) {
	ledger, _ := newTestLedger(t, 30*time.Minute)
	now := time.Date(2026, 8, 27, 23, 50, 0, 0, time.UTC)

	ledger.RecordReply("100", "@alice", now)
	require.Equal(t, 1, ledger.Count())

	ledger.ResetIfNewDay("2026-08-28")

	assert.Equal(t, 0, ledger.Count())
	assert.True(t, ledger.HasReplied("100"))
	assert.True(t, ledger.IsAuthorCoolingDown("@alice", now.Add(5*time.Minute)))
}

func TestLedger_ResetIfNewDaySameDateNoop(t *testing.T) {
	ledger, _ := newTestLedger(t, 30*time.Minute)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ledger.RecordReply("100", "@alice", now)
	ledger.ResetIfNewDay("2026-08-27")

	assert.Equal(t, 1, ledger.Count())
}

func TestLedger_CooldownExpires(t *testing.T) {
	cooldown := 30 * time.Minute
	ledger, _ := newTestLedger(t, cooldown)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ledger.RecordReply("100", "@alice", now)

	assert.True(t, ledger.IsAuthorCoolingDown("@alice", now.Add(cooldown-time.Second)))
	assert.False(t, ledger.IsAuthorCoolingDown("@alice", now.Add(cooldown)))
	assert.False(t, ledger.IsAuthorCoolingDown("@nobody", now))
}

func TestLedger_RepliedSetIdempotent(t *testing.T) {
	ledger, store := newTestLedger(t, 30*time.Minute)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	ledger.RecordReply("100", "@alice", now)
	ledger.RecordReply("100", "@alice", now.Add(time.Hour))

	ids, err := store.LoadRepliedIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

// failingStorage persists nothing but never blocks the ledger.
type failingStorage struct{}

func (failingStorage) LoadRepliedIDs() (map[string]struct{}, error) {
	return make(map[string]struct{}), nil
}
func (failingStorage) AppendRepliedID(string) error { return errors.New("disk full") }
func (failingStorage) LoadDailyStats() (models.DailyStats, error) {
	return models.DailyStats{Date: "2026-08-27"}, nil
}
func (failingStorage) SaveDailyStats(models.DailyStats) error { return errors.New("disk full") }
func (failingStorage) LoadAuthorHistory() (map[string]time.Time, error) {
	return make(map[string]time.Time), nil
}
func (failingStorage) SaveAuthorHistory(map[string]time.Time) error { return errors.New("disk full") }
func (failingStorage) Close() error                                 { return nil }

func TestLedger_PersistenceFailuresSwallowed(t *testing.T) {
	ledger, err := NewLedger(failingStorage{}, 30*time.Minute, zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	ledger.RecordReply("100", "@alice", now)

	// In-memory state stays authoritative despite failed writes.
	assert.True(t, ledger.HasReplied("100"))
	assert.Equal(t, 1, ledger.Count())
	assert.True(t, ledger.IsAuthorCoolingDown("@alice", now.Add(time.Minute)))
}
