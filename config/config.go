package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Database drivers understood by database.Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds every runtime setting of the service. Values come from the
// process environment, optionally seeded from a .env file.
type Config struct {
	Port        string `env:"PORT" env-default:"3001" env-description:"HTTP listen port"`
	Env         string `env:"ENV" env-default:"development" env-description:"development or production"`
	Debug       bool   `env:"DEBUG" env-default:"false" env-description:"enable debug logging"`
	ServiceName string `env:"SERVICE_NAME" env-default:"library" env-description:"name reported by GET /"`

	Database Database
	JWT      JWT

	NATSPort        int           `env:"NATS_PORT" env-default:"4233" env-description:"embedded NATS port, -1 for random, 0 to disable"`
	AllowOrigins    []string      `env:"CORS_ALLOW_ORIGINS" env-separator:"," env-description:"allowed CORS origins, empty allows all"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Database struct {
	Driver     string `env:"DB_DRIVER" env-default:"postgres" env-description:"postgres or sqlite"`
	URL        string `env:"DATABASE_URL" env-description:"postgres DSN"`
	SQLitePath string `env:"SQLITE_PATH" env-default:"library.db" env-description:"sqlite database file"`
	LogQueries bool   `env:"DB_LOG_QUERIES" env-default:"false"`
}

type JWT struct {
	Secret string        `env:"JWT_SECRET" env-description:"HMAC secret used to sign access tokens"`
	TTL    time.Duration `env:"JWT_TTL" env-default:"30m" env-description:"access token lifetime"`
}

const devSecret = "default-dev-secret-change-me"

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.JWT.Secret = devSecret
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Usage describes every supported variable, for --help style output.
func Usage() string {
	help, _ := cleanenv.GetDescription(&Config{}, nil)
	return help
}
