package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sipalingnode/yapbot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStorage keeps the ledger documents in Postgres instead of
// flat files; useful when the bot runs on a host without a persistent
// filesystem.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) LoadRepliedIDs() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT post_id FROM replied_posts`)
	if err != nil {
		return nil, fmt.Errorf("error querying replied posts: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning replied post: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *PostgresStorage) AppendRepliedID(id string) error {
	_, err := s.db.Exec(
		`INSERT INTO replied_posts (post_id) VALUES ($1) ON CONFLICT (post_id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("error inserting replied post: %w", err)
	}
	return nil
}

func (s *PostgresStorage) LoadDailyStats() (models.DailyStats, error) {
	stats := models.DailyStats{Date: time.Now().Format("2006-01-02")}
	err := s.db.QueryRow(`SELECT date, count FROM daily_stats WHERE id = 1`).
		Scan(&stats.Date, &stats.Count)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("error querying daily stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStorage) SaveDailyStats(stats models.DailyStats) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_stats (id, date, count) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET date = $1, count = $2`,
		stats.Date, stats.Count)
	if err != nil {
		return fmt.Errorf("error saving daily stats: %w", err)
	}
	return nil
}

func (s *PostgresStorage) LoadAuthorHistory() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT author_key, last_reply_at FROM author_history`)
	if err != nil {
		return nil, fmt.Errorf("error querying author history: %w", err)
	}
	defer rows.Close()

	history := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var ts time.Time
		if err := rows.Scan(&key, &ts); err != nil {
			return nil, fmt.Errorf("error scanning author history: %w", err)
		}
		history[key] = ts
	}
	return history, rows.Err()
}

func (s *PostgresStorage) SaveAuthorHistory(history map[string]time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for key, ts := range history {
		_, err := tx.Exec(`
			INSERT INTO author_history (author_key, last_reply_at) VALUES ($1, $2)
			ON CONFLICT (author_key) DO UPDATE SET last_reply_at = $2`,
			key, ts.UTC())
		if err != nil {
			return fmt.Errorf("error saving author history: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
