package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteQuotaStore persists daily counters so quotas survive restarts.
type SQLiteQuotaStore struct {
	db *sql.DB
}

// NewSQLiteQuotaStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteQuotaStore(dbPath string) (*SQLiteQuotaStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps check-and-increment serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteQuotaStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS quotas (
		caller_id TEXT PRIMARY KEY,
		day TEXT NOT NULL,
		count INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_quotas_day ON quotas(day);
	`
	_, err := db.Exec(schema)
	return err
}

// Consume implements QuotaStore.
func (s *SQLiteQuotaStore) Consume(ctx context.Context, key, day string, limit int) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var storedDay string
	var count int
	err = tx.QueryRowContext(ctx, `SELECT day, count FROM quotas WHERE caller_id = ?`, key).Scan(&storedDay, &count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}
	if errors.Is(err, sql.ErrNoRows) || storedDay != day {
		count = 0
	}
	if count >= limit {
		return count, false, nil
	}
	count++
	_, err = tx.ExecContext(ctx,
		`INSERT INTO quotas (caller_id, day, count, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(caller_id) DO UPDATE SET day = excluded.day, count = excluded.count, updated_at = excluded.updated_at`,
		key, day, count, time.Now(),
	)
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit: %w", err)
	}
	return count, true, nil
}

// Prune deletes counters from days other than day and returns how many were removed.
func (s *SQLiteQuotaStore) Prune(ctx context.Context, day string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotas WHERE day <> ?`, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteQuotaStore) Close() error {
	return s.db.Close()
}
