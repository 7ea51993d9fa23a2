package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sipalingnode/yapbot/internal/models"
)

// FileStorage keeps the three ledger documents as independent files:
// a line-oriented replied-ID list, a daily stats JSON document and an
// author-history JSON document. Missing or unreadable files load as
// empty state so a fresh install starts clean.
type FileStorage struct {
	repliedPath string
	statsPath   string
	authorsPath string
}

func NewFileStorage(repliedPath, statsPath, authorsPath string) (*FileStorage, error) {
	for _, p := range []string{repliedPath, statsPath, authorsPath} {
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}
	return &FileStorage{
		repliedPath: repliedPath,
		statsPath:   statsPath,
		authorsPath: authorsPath,
	}, nil
}

func (s *FileStorage) LoadRepliedIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	f, err := os.Open(s.repliedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return ids, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, scanner.Err()
}

// AppendRepliedID appends a single line; the set itself is append-only
// and never rewritten, so a crash mid-write loses at most the last id.
func (s *FileStorage) AppendRepliedID(id string) error {
	f, err := os.OpenFile(s.repliedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(id + "\n")
	return err
}

func (s *FileStorage) LoadDailyStats() (models.DailyStats, error) {
	today := models.DailyStats{Date: time.Now().Format("2006-01-02")}
	data, err := os.ReadFile(s.statsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return today, nil
		}
		return today, err
	}
	var stats models.DailyStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return today, nil
	}
	return stats, nil
}

func (s *FileStorage) SaveDailyStats(stats models.DailyStats) error {
	return s.writeJSON(s.statsPath, stats)
}

func (s *FileStorage) LoadAuthorHistory() (map[string]time.Time, error) {
	history := make(map[string]time.Time)
	data, err := os.ReadFile(s.authorsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return history, nil
		}
		return history, err
	}

	raw := make(map[string]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return history, nil
	}
	for key, ts := range raw {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		history[key] = parsed
	}
	return history, nil
}

func (s *FileStorage) SaveAuthorHistory(history map[string]time.Time) error {
	raw := make(map[string]string, len(history))
	for key, ts := range history {
		raw[key] = ts.UTC().Format(time.RFC3339)
	}
	return s.writeJSON(s.authorsPath, raw)
}

// writeJSON rewrites the document via a temp file and rename so a
// crash mid-write leaves the previous version intact.
func (s *FileStorage) writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStorage) Close() error {
	return nil
}
