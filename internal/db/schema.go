package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ladder_presets (
		name        TEXT PRIMARY KEY,
		params_json JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ladder_snapshots (
		id          TEXT PRIMARY KEY,
		seq         BIGSERIAL,
		preset_name TEXT NOT NULL DEFAULT '',
		price       DOUBLE PRECISION NOT NULL,
		params_json JSONB NOT NULL,
		levels_json JSONB NOT NULL,
		stats_json  JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE ladder_snapshots ADD COLUMN IF NOT EXISTS seq BIGSERIAL`,
	`CREATE INDEX IF NOT EXISTS ladder_snapshots_created_at_idx ON ladder_snapshots (created_at DESC, seq DESC)`,
}

// Timestamps are unix nanoseconds in SQLite.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ladder_presets (
		name        TEXT PRIMARY KEY,
		params_json TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ladder_snapshots (
		id          TEXT PRIMARY KEY,
		preset_name TEXT NOT NULL DEFAULT '',
		price       REAL NOT NULL,
		params_json TEXT NOT NULL,
		levels_json TEXT NOT NULL,
		stats_json  TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ladder_snapshots_created_at_idx ON ladder_snapshots (created_at DESC)`,
}

func MigratePostgres(ctx context.Context, p *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

func MigrateSQLite(ctx context.Context, d *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}
