package storage

import (
	"sync"
	"time"

	"github.com/sipalingnode/yapbot/internal/models"
)

// MemoryStorage is an in-memory Storage, used in tests and as a
// fallback when no durable backend is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	replied map[string]struct{}
	stats   models.DailyStats
	authors map[string]time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		replied: make(map[string]struct{}),
		stats:   models.DailyStats{Date: time.Now().Format("2006-01-02")},
		authors: make(map[string]time.Time),
	}
}

func (s *MemoryStorage) LoadRepliedIDs() (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.replied))
	for id := range s.replied {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *MemoryStorage) AppendRepliedID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replied[id] = struct{}{}
	return nil
}

func (s *MemoryStorage) LoadDailyStats() (models.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStorage) SaveDailyStats(stats models.DailyStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = stats
	return nil
}

func (s *MemoryStorage) LoadAuthorHistory() (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make(map[string]time.Time, len(s.authors))
	for key, ts := range s.authors {
		history[key] = ts
	}
	return history, nil
}

func (s *MemoryStorage) SaveAuthorHistory(history map[string]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authors = make(map[string]time.Time, len(history))
	for key, ts := range history {
		s.authors[key] = ts
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
