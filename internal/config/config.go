// Package config loads runtime configuration for the front-end server and the
// development API from environment variables.
//
// A .env file in the working directory is loaded first when present, so local
// runs pick up their settings without exporting them. Real environment
// variables win over the file.
package config

import (
	"fmt"
	"strings"
	"time"

	// godotenv reads KEY=value pairs from .env into the process environment.
	"github.com/joho/godotenv"
	// envconfig fills the tagged structs below, applying defaults and
	// failing on missing required values.
	"github.com/kelseyhightower/envconfig"
)

// Config is the front-end (BFF) server's configuration.
type Config struct {
	Port string `envconfig:"PORT" default:"3000"`
	Env  string `envconfig:"ENV" default:"development"`

	// APIBaseURL is the remote REST API, including any path prefix,
	// for example "https://api.playout.example/api".
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"15s"`

	// TokenSecret, when set, makes the server verify HS256 ID tokens itself.
	// When empty tokens are only decoded and the remote API verifies them.
	TokenSecret string `envconfig:"TOKEN_SECRET"`

	// SnapshotMaxAge is how long the games and turfs snapshots serve page
	// reads before they are reloaded. Mutations always check against a fresh
	// load regardless.
	SnapshotMaxAge time.Duration `envconfig:"SNAPSHOT_MAX_AGE" default:"30s"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
}

// DevAPI is the development API server's configuration.
type DevAPI struct {
	Port             string `envconfig:"DEVAPI_PORT" default:"8080"`
	Env              string `envconfig:"ENV" default:"development"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsSource string `envconfig:"MIGRATIONS_SOURCE" default:"file://migrations"`
	TokenSecret      string `envconfig:"TOKEN_SECRET"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// Load reads the front-end server's configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	if cfg.SnapshotMaxAge < 0 {
		return nil, fmt.Errorf("config: SNAPSHOT_MAX_AGE must not be negative")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &cfg, nil
}

// LoadDevAPI reads the development API's configuration.
func LoadDevAPI() (*DevAPI, error) {
	_ = godotenv.Load()

	var cfg DevAPI
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	return &cfg, nil
}

// IsProduction reports whether env names a production deployment.
func IsProduction(env string) bool {
	return strings.EqualFold(env, "production")
}
