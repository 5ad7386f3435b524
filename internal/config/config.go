// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Ledger isolation modes for the PostgreSQL store.
const (
	IsolationReadCommitted = "read_committed"
	IsolationSerializable  = "serializable"
)

// Config is the top-level configuration.
type Config struct {
	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Store     StoreConfig     `envPrefix:"STORE_"`
	Postgres  PostgresConfig  `envPrefix:"DB_"`
	SQLite    SQLiteConfig    `envPrefix:"SQLITE_"`
	Ledger    LedgerConfig    `envPrefix:"LEDGER_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Telemetry TelemetryConfig `envPrefix:"OTEL_"`
}

type HTTPConfig struct {
	Addr         string        `env:"ADDR"          envDefault:":8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"  envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT"  envDefault:"60s"`
	CORSOrigins  []string      `env:"CORS_ORIGINS"  envDefault:"*" envSeparator:","`
}

type StoreConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `env:"HOST"               envDefault:"localhost"`
	Port            int           `env:"PORT"               envDefault:"5432"`
	User            string        `env:"USER"               envDefault:"postgres"`
	Password        string        `env:"PASSWORD"           envDefault:"postgres"`
	Name            string        `env:"NAME"               envDefault:"eventledger"`
	SSLMode         string        `env:"SSLMODE"            envDefault:"disable"`
	MaxConns        int32         `env:"MAX_CONNS"          envDefault:"20"`
	MinConns        int32         `env:"MIN_CONNS"          envDefault:"2"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME"  envDefault:"30m"`
	MaxConnIdleTime time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"5m"`
	ConnectAttempts uint          `env:"CONNECT_ATTEMPTS"   envDefault:"5"`
}

// DSN builds a libpq-compatible connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type SQLiteConfig struct {
	Path         string        `env:"PATH"           envDefault:"event-ledger.db"`
	BusyTimeout  time.Duration `env:"BUSY_TIMEOUT"   envDefault:"5s"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"1"`
}

// LedgerConfig bounds every registration and cancellation attempt.
type LedgerConfig struct {
	MaxAttempts    uint          `env:"MAX_ATTEMPTS"    envDefault:"5"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"10ms"`
	MaxBackoff     time.Duration `env:"MAX_BACKOFF"     envDefault:"200ms"`
	Timeout        time.Duration `env:"TIMEOUT"         envDefault:"5s"`
	Isolation      string        `env:"ISOLATION"       envDefault:"read_committed"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"event-ledger"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Store.Driver)
	}

	switch c.Ledger.Isolation {
	case IsolationReadCommitted, IsolationSerializable:
	default:
		return fmt.Errorf("LEDGER_ISOLATION must be %q or %q, got %q",
			IsolationReadCommitted, IsolationSerializable, c.Ledger.Isolation)
	}
	if c.Ledger.MaxAttempts == 0 {
		return fmt.Errorf("LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	if c.Ledger.Timeout <= 0 {
		return fmt.Errorf("LEDGER_TIMEOUT must be positive")
	}
	if c.SQLite.MaxOpenConns < 1 {
		return fmt.Errorf("SQLITE_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Telemetry.Endpoint != "" {
		if _, err := url.Parse(c.Telemetry.Endpoint); err != nil {
			return fmt.Errorf("OTEL_ENDPOINT: %w", err)
		}
	}
	return nil
}
