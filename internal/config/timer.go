package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type TimerConfig struct {
	// DeliveryTimeout bounds a single completion notification attempt.
	DeliveryTimeout time.Duration `env:"TIMER_DELIVERY_TIMEOUT, default=10s"`
}

func NewTimerConfigFromEnv() (*TimerConfig, error) {
	var cfg TimerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.DeliveryTimeout <= 0 {
		return nil, fmt.Errorf("TIMER_DELIVERY_TIMEOUT must be positive, got %s", cfg.DeliveryTimeout)
	}
	return &cfg, nil
}

type LogConfig struct {
	Level slog.Level `env:"LOG_LEVEL, default=info"`
}

func NewLogConfigFromEnv() (*LogConfig, error) {
	var cfg LogConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
