// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Metrics backends.
const (
	MetricsNoop       = "noop"
	MetricsPrometheus = "prometheus"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Storage backend: memory or postgres
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	// Database (PostgreSQL), required for the postgres backend
	DatabaseURL string `env:"DATABASE_URL"`

	// Cache (Redis), optional. Enables the follow cache and login throttling.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Password hashing cost for new credentials
	PasswordHashTime     uint32 `env:"PASSWORD_HASH_TIME" envDefault:"3"`
	PasswordHashMemoryKB uint32 `env:"PASSWORD_HASH_MEMORY_KB" envDefault:"65536"`
	PasswordHashThreads  uint8  `env:"PASSWORD_HASH_THREADS" envDefault:"4"`

	// Follow cache
	FollowCacheTTL time.Duration `env:"FOLLOW_CACHE_TTL" envDefault:"30s"`

	// Login throttling (0 disables)
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int `env:"LOGIN_BURST" envDefault:"5"`

	// Metrics backend: noop or prometheus
	MetricsBackend string `env:"METRICS_BACKEND" envDefault:"noop"`

	// Upper bound for a single CLI operation
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"10s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// LoginThrottleEnabled reports whether login attempts are rate limited.
func (c *Config) LoginThrottleEnabled() bool {
	return c.RedisEnabled() && c.LoginRatePerMinute > 0
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.MetricsBackend {
	case MetricsNoop, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown METRICS_BACKEND %q", c.MetricsBackend)
	}

	if c.LoginRatePerMinute < 0 || c.LoginBurst < 0 {
		return errors.New("login rate limit values must not be negative")
	}

	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
