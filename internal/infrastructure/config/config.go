package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Config holds all process-level settings, parsed from the environment.
// A .env file may be loaded by the caller (godotenv) before Load runs.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DB_URL"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`

	// NodeID distinguishes this process on the cross-node relay channel.
	// Generated when unset so single-node deployments need no config.
	NodeID string `env:"NODE_ID"`

	// FeedCap bounds the live activity feed kept per open view.
	FeedCap int `env:"FEED_CAP" envDefault:"50"`

	AsynqConcurrency int `env:"ASYNQ_CONCURRENCY" envDefault:"10"`
}

// Load parses process configuration and validates required settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("config: DB_URL is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("config: SESSION_SECRET is required")
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	if cfg.FeedCap <= 0 {
		cfg.FeedCap = 50
	}
	return cfg, nil
}
