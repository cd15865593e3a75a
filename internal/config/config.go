package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Store drivers.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite3"
	DriverMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Reconcile ReconcileConfig
	Log       LogConfig
	HTTP      HTTPConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// StoreConfig selects and configures the key store.
// URL and AnonKey address a hosted PostgREST project; DSN addresses a SQL database.
type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER" envDefault:"postgrest"`
	URL     string        `env:"STORE_URL" envDefault:"http://localhost:54321"`
	AnonKey string        `env:"STORE_ANON_KEY"`
	Table   string        `env:"STORE_TABLE" envDefault:"api_keys"`
	Timeout time.Duration `env:"STORE_TIMEOUT" envDefault:"15s"`
	DSN     string        `env:"DB_DSN" envDefault:"data/apikeys.db"`
}

// ReconcileConfig holds expiry sweep configuration.
type ReconcileConfig struct {
	Interval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	Timezone string        `env:"RECONCILE_TIMEZONE" envDefault:"Local"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// HTTPConfig holds HTTP middleware configuration.
type HTTPConfig struct {
	CORSOrigins         []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PlaygroundRateLimit int      `env:"PLAYGROUND_RATE_LIMIT" envDefault:"30"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Store); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}
	if err := env.Parse(&cfg.Reconcile); err != nil {
		return nil, fmt.Errorf("parsing reconcile config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.HTTP); err != nil {
		return nil, fmt.Errorf("parsing http config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the reconcile timezone.
func (c *ReconcileConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgREST:
		if c.Store.URL == "" {
			return fmt.Errorf("STORE_URL is required for the %s driver", DriverPostgREST)
		}
		if c.Store.AnonKey == "" {
			return fmt.Errorf("STORE_ANON_KEY is required for the %s driver", DriverPostgREST)
		}
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the %s driver", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s, %s; got %q",
			DriverPostgREST, DriverPostgres, DriverSQLite, DriverMemory, c.Store.Driver)
	}

	if c.Reconcile.Interval < time.Second {
		return fmt.Errorf("RECONCILE_INTERVAL must be at least 1s, got %s", c.Reconcile.Interval)
	}
	if _, err := c.Reconcile.Location(); err != nil {
		return fmt.Errorf("RECONCILE_TIMEZONE: %w", err)
	}
	if c.HTTP.PlaygroundRateLimit < 0 {
		return fmt.Errorf("PLAYGROUND_RATE_LIMIT must not be negative")
	}

	switch c.Log.Format {
	case "json", "pretty":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or pretty, got %q", c.Log.Format)
	}

	return nil
}
