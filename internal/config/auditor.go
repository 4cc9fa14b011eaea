package config

import (
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/env"
)

// AuditorConfig holds all configuration for the backlog auditor binary.
type AuditorConfig struct {
	Storage          StorageConfig
	Observability    ObservabilityConfig
	Interval         time.Duration `env:"RITMO_AUDITOR_INTERVAL" default:"1h"`
	OperationTimeout time.Duration `env:"RITMO_AUDITOR_OPERATION_TIMEOUT" default:"5m"`
}

// LoadAuditorConfig loads and validates auditor configuration from environment.
func LoadAuditorConfig() (*AuditorConfig, error) {
	cfg := &AuditorConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load auditor config: %w", err)
	}

	return cfg, nil
}
