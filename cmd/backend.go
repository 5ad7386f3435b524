package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/database"
	"github.com/Shivanand-hulikatti/event-ledger/internal/repository"
	"github.com/Shivanand-hulikatti/event-ledger/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/event-ledger/internal/service"
)

// backend is one migrated store selected by STORE_DRIVER.
type backend struct {
	stores service.Stores
	ping   func(context.Context) error
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("opened sqlite store", slog.String("path", cfg.SQLite.Path))
		return &backend{
			stores: service.Stores{
				Tx:            sqlite.NewTransactor(db),
				Events:        sqlite.NewEventRepository(db),
				Registrations: sqlite.NewRegistrationRepository(db),
				Views:         sqlite.NewViewRepository(db),
			},
			ping:  db.PingContext,
			close: func() { _ = db.Close() },
		}, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", slog.Int("count", applied))
		return &backend{
			stores: service.Stores{
				Tx:            repository.NewTransactor(pool, cfg.Ledger.Isolation),
				Events:        repository.NewEventRepository(pool),
				Registrations: repository.NewRegistrationRepository(pool),
				Views:         repository.NewViewRepository(pool),
			},
			ping:  pool.Ping,
			close: pool.Close,
		}, nil
	}
}
