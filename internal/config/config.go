package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	// ContentPath is a JSON or YAML content file. Empty means the built-in
	// catalog.
	ContentPath   string `env:"CONTENT_PATH"`
	StrictContent bool   `env:"STRICT_CONTENT" envDefault:"false"`

	SessionStore string        `env:"SESSION_STORE" envDefault:"memory"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	TipDelay     time.Duration `env:"TIP_DELAY" envDefault:"1s"`
	AdvanceDelay time.Duration `env:"ADVANCE_DELAY" envDefault:"1500ms"`

	// EventsEnabled publishes presentation events to Redis.
	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: must be %q or %q", c.SessionStore, SessionStoreMemory, SessionStoreRedis)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.TipDelay < 0 || c.AdvanceDelay < 0 {
		return fmt.Errorf("presentation delays cannot be negative")
	}
	if c.UsesRedis() && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when using redis")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.SessionStore == SessionStoreRedis || c.EventsEnabled
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
