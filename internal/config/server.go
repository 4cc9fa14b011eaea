package config

import (
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Storage         StorageConfig
	HTTP            HTTPConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"RITMO_SHUTDOWN_TIMEOUT" default:"15s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"RITMO_HTTP_HOST"`
	Port              string        `env:"RITMO_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"RITMO_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `env:"RITMO_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `env:"RITMO_HTTP_IDLE_TIMEOUT" default:"2m"`
	ReadHeaderTimeout time.Duration `env:"RITMO_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	MaxBodyBytes      int64         `env:"RITMO_HTTP_MAX_BODY_BYTES" default:"1048576"`
}

// Addr returns the listen address in host:port form.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
