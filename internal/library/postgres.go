package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema is the DDL for the rating library table. Callers manage
// migrations; it lives here so the storage contract is next to the
// queries that depend on it.
const Schema = `
CREATE TABLE IF NOT EXISTS rating_sets (
    season      INTEGER     NOT NULL,
    week        INTEGER     NOT NULL,
    config_hash TEXT        NOT NULL,
    payload     JSONB       NOT NULL,
    degraded    BOOLEAN     NOT NULL DEFAULT FALSE,
    stored_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (season, week, config_hash)
);`

// PostgresStore keeps rating tables in a rating_sets table. Upserts
// are single-statement, so a concurrent reader sees either the old or
// the new table for a key, never a mix.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore connects and verifies the database is reachable.
func NewPostgresStore(dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresStore{db: db, timeout: timeout}, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool.
func NewPostgresStoreFromDB(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key Key) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var payload []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT payload FROM rating_sets WHERE season = $1 AND week = $2 AND config_hash = $3`,
		key.Season, key.Week, key.ConfigHash,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rating set: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode rating set payload: %w", err)
	}
	return &entry, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, entry Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode rating set payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rating_sets (season, week, config_hash, payload, degraded, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (season, week, config_hash) DO UPDATE SET
			payload   = EXCLUDED.payload,
			degraded  = EXCLUDED.degraded,
			stored_at = EXCLUDED.stored_at`,
		entry.Key.Season, entry.Key.Week, entry.Key.ConfigHash,
		payload, entry.Degraded, entry.StoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rating set: %w", err)
	}
	return nil
}

// Invalidate implements Store.
func (s *PostgresStore) Invalidate(ctx context.Context, season, week int) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM rating_sets WHERE season = $1 AND week = $2`, season, week)
	if err != nil {
		return fmt.Errorf("failed to invalidate rating sets: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error { return s.db.Close() }
