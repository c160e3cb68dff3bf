package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createHitsTable = `
CREATE TABLE IF NOT EXISTS rate_limit_hits (
	key TEXT NOT NULL,
	hit_at INTEGER NOT NULL -- unix millis
);
CREATE INDEX IF NOT EXISTS idx_rate_limit_hits_key ON rate_limit_hits (key, hit_at);
`

// KeyHasher maps a raw key to the value stored at rest.
type KeyHasher func(string) string

// SQLiteStore keeps hits in a SQLite table so they survive restarts and can
// be shared by processes using the same database file. Keys are hashed
// before they are written.
type SQLiteStore struct {
	db   *sql.DB
	hash KeyHasher
}

// NewSQLiteStore creates the hits table if needed. A nil hash stores keys
// verbatim.
func NewSQLiteStore(ctx context.Context, db *sql.DB, hash KeyHasher) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, createHitsTable); err != nil {
		return nil, fmt.Errorf("create rate_limit_hits table: %w", err)
	}
	if hash == nil {
		hash = func(s string) string { return s }
	}
	return &SQLiteStore{db: db, hash: hash}, nil
}

func (s *SQLiteStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (allowed bool, count int, err error) {
	key = s.hash(key)
	cutoff := now.Add(-window).UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin rate limit tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rate_limit_hits WHERE key = ? AND hit_at <= ?`, key, cutoff); err != nil {
		return false, 0, fmt.Errorf("evict hits: %w", err)
	}
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rate_limit_hits WHERE key = ?`, key).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("count hits: %w", err)
	}
	if count < limit {
		if _, err = tx.ExecContext(ctx, `INSERT INTO rate_limit_hits (key, hit_at) VALUES (?, ?)`, key, now.UnixMilli()); err != nil {
			return false, 0, fmt.Errorf("record hit: %w", err)
		}
		count++
		allowed = true
	}
	if err = tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit rate limit tx: %w", err)
	}
	return allowed, count, nil
}

// Sweep deletes every hit older than window across all keys.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_hits WHERE hit_at <= ?`, now.Add(-window).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep hits: %w", err)
	}
	return res.RowsAffected()
}
