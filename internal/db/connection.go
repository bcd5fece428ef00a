package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns          = 20
	minConns          = 2
	maxConnIdleTime   = 30 * time.Second
	maxConnLifetime   = 5 * time.Minute
	healthCheckPeriod = time.Minute
)

// Connect opens a connection pool and verifies it with a ping. The
// caller's context bounds the whole startup handshake.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// requiredTables is the schema surface the position monitor and gas
// tank services depend on.
var requiredTables = []string{
	"trading_positions",
	"gas_tank_accounts",
	"gas_tank_transactions",
}

// Verify fails fast on an unmigrated database: one round-trip query
// plus an existence check for every required table.
func Verify(ctx context.Context, pool *pgxpool.Pool) error {
	var one int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("round-trip query: %w", err)
	}

	for _, table := range requiredTables {
		var reg *string
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&reg); err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if reg == nil {
			return fmt.Errorf("table %s missing, apply db/schema.sql", table)
		}
	}
	return nil
}
