// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Rate-limit store selections.
const (
	StoreMemory = "memory"
	StoreTable  = "table"
)

// Server holds the settings read once at process start.
type Server struct {
	ListenAddr      string        `env:"LISTEN_ADDR"      envDefault:":8080"`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN"   envDefault:"*"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES"   envDefault:"65536"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	RateLimitStore  string        `env:"RATE_LIMIT_STORE"          envDefault:"memory"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX"            envDefault:"3"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW"         envDefault:"1h"`
	RateLimitSweep  time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"10m"`
}

// Backend holds the persistence settings. It is read lazily, at connection
// time, so a missing URI surfaces as a per-request configuration error.
type Backend struct {
	URI            string        `env:"DATABASE_URL"`
	Database       string        `env:"DATABASE_NAME"`
	ConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Load parses and checks the server configuration.
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch c.RateLimitStore {
	case StoreMemory, StoreTable:
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be %q or %q, got %q", StoreMemory, StoreTable, c.RateLimitStore)
	}
	if c.RateLimitMax < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitSweep <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be positive, got %s", c.RateLimitSweep)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// LoadBackend parses the backend configuration. An empty URI is not an error
// here; the caller decides when it is required.
func LoadBackend() (Backend, error) {
	var cfg Backend
	if err := env.Parse(&cfg); err != nil {
		return Backend{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return cfg, nil
}
