package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
	"github.com/sipalingnode/yapbot/internal/storage"
)

const dateLayout = "2006-01-02"

// Ledger tracks the replied-post set, the daily reply quota and the
// per-author last-reply timestamps. In-memory state is authoritative;
// every mutation is pushed to the durable store, and persistence
// failures are logged and swallowed so the process keeps running with
// degraded durability.
type Ledger struct {
	store  storage.Storage
	logger *zap.Logger

	cooldown time.Duration
	replied  map[string]struct{}
	stats    models.DailyStats
	authors  map[string]time.Time
}

// NewLedger loads all three documents from the store. Load failures
// are fatal: starting with a silently empty replied set would re-reply
// to everything.
func NewLedger(store storage.Storage, cooldown time.Duration, logger *zap.Logger) (*Ledger, error) {
	replied, err := store.LoadRepliedIDs()
	if err != nil {
		return nil, err
	}
	stats, err := store.LoadDailyStats()
	if err != nil {
		return nil, err
	}
	authors, err := store.LoadAuthorHistory()
	if err != nil {
		return nil, err
	}

	logger.Info("Ledger loaded",
		zap.Int("replied_ids", len(replied)),
		zap.String("stats_date", stats.Date),
		zap.Int("count_today", stats.Count),
		zap.Int("authors_tracked", len(authors)))

	return &Ledger{
		store:    store,
		logger:   logger,
		cooldown: cooldown,
		replied:  replied,
		stats:    stats,
		authors:  authors,
	}, nil
}

// HasReplied implements RepliedSet.
func (l *Ledger) HasReplied(id string) bool {
	_, ok := l.replied[id]
	return ok
}

// IsAuthorCoolingDown is true iff a last-reply timestamp exists for the
// key and less than the cooldown has elapsed since.
func (l *Ledger) IsAuthorCoolingDown(authorKey string, now time.Time) bool {
	last, ok := l.authors[authorKey]
	if !ok {
		return false
	}
	return now.Sub(last) < l.cooldown
}

// CooldownRemaining reports how long the author must still wait; zero
// when not cooling down.
func (l *Ledger) CooldownRemaining(authorKey string, now time.Time) time.Duration {
	last, ok := l.authors[authorKey]
	if !ok {
		return 0
	}
	if remaining := l.cooldown - now.Sub(last); remaining > 0 {
		return remaining
	}
	return 0
}

// RecordReply marks a post as replied, bumps the daily count and
// stamps the author, persisting each document as it goes. Runs only
// after a confirmed successful delivery.
func (l *Ledger) RecordReply(postID, authorKey string, now time.Time) {
	if _, ok := l.replied[postID]; !ok {
		l.replied[postID] = struct{}{}
		if err := l.store.AppendRepliedID(postID); err != nil {
			l.logger.Error("Failed to persist replied id",
				zap.Error(err),
				zap.String("post_id", postID))
		}
	}

	l.stats.Date = now.Format(dateLayout)
	l.stats.Count++
	if err := l.store.SaveDailyStats(l.stats); err != nil {
		l.logger.Error("Failed to persist daily stats", zap.Error(err))
	}

	l.authors[authorKey] = now
	if err := l.store.SaveAuthorHistory(l.authors); err != nil {
		l.logger.Error("Failed to persist author history",
			zap.Error(err),
			zap.String("author", authorKey))
	}
}

// ResetIfNewDay zeroes the quota exactly once per date change. The
// replied set and the author history are never touched here.
func (l *Ledger) ResetIfNewDay(today string) {
	if l.stats.Date == today {
		return
	}
	l.logger.Info("New day detected, resetting daily counter",
		zap.String("previous", l.stats.Date),
		zap.String("today", today))
	l.stats = models.DailyStats{Date: today}
	if err := l.store.SaveDailyStats(l.stats); err != nil {
		l.logger.Error("Failed to persist daily stats", zap.Error(err))
	}
}

// Count returns today's reply count.
func (l *Ledger) Count() int {
	return l.stats.Count
}
