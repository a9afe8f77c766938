package repository

import (
	"context"
	"fmt"

	"github.com/glizzus/action-timer/internal/config"
	"github.com/glizzus/action-timer/internal/datalayer"
)

// Open connects to the store selected by cfg and migrates it.
// The returned function releases the connection.
func Open(ctx context.Context, cfg *config.StoreConfig) (ActionStore, func() error, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		pgCfg, err := config.NewPostgresConfigFromEnv()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load postgres config: %w", err)
		}
		pool, err := datalayer.NewPostgresPool(ctx, pgCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := datalayer.MigratePostgres(pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		closer := func() error {
			pool.Close()
			return nil
		}
		return NewPostgresActionRepository(pool), closer, nil

	case config.StoreDriverSQLite:
		db, err := datalayer.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := datalayer.MigrateSQLite(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		return NewSQLiteActionRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
