// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/migrations"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries with exponential backoff to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 5 * time.Second

	attempt := 0
	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		attempt++
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			log.Warn("db connect attempt failed",
				slog.Int("attempt", attempt),
				slog.Uint64("max_attempts", uint64(attempts)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		return pool, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(attempts))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	log.Info("connected to postgres",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Name),
	)
	return pool, nil
}

// Migrate applies the embedded PostgreSQL schema through a database/sql view
// of the pool. The view keeps no idle connections, so it is not closed.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	return migrations.Apply(ctx, stdlib.OpenDBFromPool(pool), migrations.Postgres)
}
