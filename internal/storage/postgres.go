// Package storage owns the Postgres connection and schema bootstrap. The
// schema is small enough that migrate-on-start beats a migration tool: every
// statement is idempotent.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS authorities (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		website       TEXT NOT NULL DEFAULT '',
		location      TEXT NOT NULL DEFAULT '',
		verified      BOOLEAN NOT NULL DEFAULT FALSE,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		registered_at BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		kind         TEXT NOT NULL,
		id           BIGINT NOT NULL,
		subject_id   TEXT NOT NULL,
		authority_id TEXT NOT NULL,
		payload      JSONB NOT NULL DEFAULT '{}',
		status       TEXT NOT NULL,
		restrictions TEXT NOT NULL DEFAULT '',
		issued_at    BIGINT NOT NULL,
		verified_at  BIGINT NOT NULL DEFAULT 0,
		expires_at   BIGINT NOT NULL DEFAULT 0,
		updated_at   BIGINT NOT NULL,
		PRIMARY KEY (kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS records_subject_idx ON records (kind, subject_id)`,
	`CREATE TABLE IF NOT EXISTS record_counters (
		kind    TEXT PRIMARY KEY,
		last_id BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO record_counters (kind)
		VALUES ('qualification'), ('privilege'), ('panel')
		ON CONFLICT (kind) DO NOTHING`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// MaxHeight returns the highest ledger height stamped anywhere in the store.
// The clock is seeded from it on startup so expirations issued before a
// restart keep their meaning.
func MaxHeight(ctx context.Context, pool *pgxpool.Pool) (uint64, error) {
	var height uint64
	err := pool.QueryRow(ctx, `
		SELECT GREATEST(
			COALESCE((SELECT MAX(updated_at) FROM records), 0),
			COALESCE((SELECT MAX(updated_at) FROM authorities), 0)
		)`).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("query max height: %w", err)
	}
	return height, nil
}
