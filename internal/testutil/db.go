package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kjannette/trahn-ladder/internal/db"
)

// SetupPool creates a migrated pgxpool.Pool for integration tests. The test
// is skipped when no Postgres server answers.
// Connection details come from env vars or sensible defaults.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		host := EnvOr("DB_HOST", "localhost")
		port := EnvOr("DB_PORT", "5432")
		name := EnvOr("DB_NAME", "trahn_ladder")
		user := EnvOr("DB_USER", "postgres")
		pass := EnvOr("DB_PASSWORD", "")
		dsn = "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := db.MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// SetupSQLite returns a migrated in-memory SQLite database.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	d, err := db.OpenSQLite(db.MemoryPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.MigrateSQLite(context.Background(), d); err != nil {
		d.Close()
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
