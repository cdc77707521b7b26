package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Supabase SupabaseConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Session  SessionConfig
	Auth     AuthStateConfig
}

type SupabaseConfig struct {
	URL        string `env:"SUPABASE_URL, required"`
	AnonKey    string `env:"SUPABASE_ANON_KEY, required"`
	JWTSecret  string `env:"SUPABASE_JWT_SECRET, required"`
	ServiceKey string `env:"SUPABASE_SERVICE_KEY"`
}

type PostgresConfig struct {
	URL      string `env:"DATABASE_URL, required"`
	MaxConns int    `env:"DATABASE_MAX_CONNS, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=dashboard"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SessionConfig struct {
	TTL          time.Duration `env:"SESSION_TTL,           default=168h"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=true"`
}

type AuthStateConfig struct {
	MachineCacheSize    int           `env:"MACHINE_CACHE_SIZE,    default=10000"`
	PendingPollInterval time.Duration `env:"PENDING_POLL_INTERVAL, default=30s"`
	GateWaitTimeout     time.Duration `env:"GATE_WAIT_TIMEOUT,     default=5s"`
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.MachineCacheSize <= 0 {
		errs = append(errs, errors.New("MACHINE_CACHE_SIZE must be positive"))
	}
	if c.Auth.PendingPollInterval < time.Second {
		errs = append(errs, errors.New("PENDING_POLL_INTERVAL must be at least 1s"))
	}
	if c.Auth.GateWaitTimeout <= 0 {
		errs = append(errs, errors.New("GATE_WAIT_TIMEOUT must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
