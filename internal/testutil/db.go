package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var schemaOnce sync.Once

// SetupPool creates a pgxpool.Pool for integration tests and applies
// db/schema.sql once per test binary, so suites run against an empty
// database without a manual migration step.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	pool, err := pgxpool.New(context.Background(), testDSN())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	schemaOnce.Do(func() { applySchema(t, pool) })
	return pool
}

// testDSN prefers TEST_DATABASE_URL and falls back to the service's own
// DB_* variables, so tests run against the dev database by default.
func testDSN() string {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := EnvOr("DB_HOST", "localhost")
	port := EnvOr("DB_PORT", "5432")
	name := EnvOr("DB_NAME", "quantum_trading")
	user := EnvOr("DB_USER", "postgres")
	pass := EnvOr("DB_PASSWORD", "")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// applySchema executes db/schema.sql. The DDL is idempotent
// (CREATE TABLE IF NOT EXISTS), so reapplying over an existing database
// is safe.
func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ddl, err := os.ReadFile("../../db/schema.sql")
	if err != nil {
		t.Logf("schema bootstrap skipped: %v", err)
		return
	}
	if _, err := pool.Exec(context.Background(), string(ddl)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
