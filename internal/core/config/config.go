package config

import (
	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/persistence/badgerstore"
	"github.com/vietddude/lifeline/internal/infra/persistence/redisstore"
	"github.com/vietddude/lifeline/internal/infra/remote/openaiclient"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/fallback"
	"github.com/vietddude/lifeline/internal/resilience/health"
	"github.com/vietddude/lifeline/internal/resilience/offline"
	"github.com/vietddude/lifeline/internal/resilience/recovery"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server       ServerConfig                `yaml:"server"`
	Logging      LoggingConfig               `yaml:"logging"`
	Storage      StorageConfig               `yaml:"storage"`
	OpenAI       openaiclient.Config         `yaml:"openai"`
	Connectivity connectivity.DetectorConfig `yaml:"connectivity"`
	Health       HealthConfig                `yaml:"health"`
	Queue        offline.Config              `yaml:"queue"`
	Recovery     RecoveryConfig              `yaml:"recovery"`
	Fallback     FallbackConfig              `yaml:"fallback"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageConfig selects and configures the durable state backend.
type StorageConfig struct {
	Backend string             `yaml:"backend"` // badger, redis, memory
	Badger  badgerstore.Config `yaml:"badger"`
	Redis   redisstore.Config  `yaml:"redis"`
}

// HealthConfig holds the monitor cadence and the subsystem probe endpoints.
type HealthConfig struct {
	Monitor   health.Config     `yaml:"monitor"`
	Endpoints map[string]string `yaml:"endpoints"` // subsystem name -> probe URL
}

// SubsystemEndpoints converts the YAML endpoint map to typed subsystem keys.
func (h HealthConfig) SubsystemEndpoints() map[domain.Subsystem]string {
	out := make(map[domain.Subsystem]string, len(h.Endpoints))
	for name, url := range h.Endpoints {
		out[domain.Subsystem(name)] = url
	}
	return out
}

// RecoveryConfig holds strategy engine settings.
type RecoveryConfig struct {
	Retry       recovery.RetryConfig `yaml:"retry"`
	HistorySize int                  `yaml:"history_size"`
}

// FallbackConfig holds the selector settings and optional catalog overrides.
// An empty Assets list keeps the built-in catalog.
type FallbackConfig struct {
	Selector fallback.Config        `yaml:"selector"`
	Assets   []domain.FallbackAsset `yaml:"assets"`
}
