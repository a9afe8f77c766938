package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// StoreConfig selects where actions are persisted.
// Path is only used by the sqlite driver; postgres reads PostgresConfig.
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=sqlite"`
	Path   string `env:"STORE_PATH, default=actions.sqlite"`
}

func NewStoreConfigFromEnv() (*StoreConfig, error) {
	var cfg StoreConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q, expected %q or %q", cfg.Driver, StoreDriverPostgres, StoreDriverSQLite)
	}

	return &cfg, nil
}
