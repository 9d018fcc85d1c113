package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const MemoryPath = ":memory:"

// OpenSQLite opens (and creates if needed) a SQLite database file. The pool
// is capped at one connection so ":memory:" databases stay shared.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	d.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := d.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		d.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	return d, nil
}
