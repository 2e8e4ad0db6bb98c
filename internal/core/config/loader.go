package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills settings the YAML left unset.
func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "badger"
	}
	if cfg.Storage.Badger.Path == "" {
		cfg.Storage.Badger.Path = "data/lifeline"
	}

	if cfg.Connectivity.Interval == 0 {
		cfg.Connectivity.Interval = 10 * time.Second
	}
	if cfg.Connectivity.ProbeTimeout == 0 {
		cfg.Connectivity.ProbeTimeout = 5 * time.Second
	}

	if cfg.Health.Monitor.Interval == 0 {
		cfg.Health.Monitor.Interval = 60 * time.Second
	}
	if cfg.Health.Monitor.ProbeTimeout == 0 {
		cfg.Health.Monitor.ProbeTimeout = 5 * time.Second
	}

	if cfg.Recovery.Retry.MaxAttempts == 0 {
		cfg.Recovery.Retry.MaxAttempts = 3
	}
	if cfg.Recovery.Retry.InitialDelay == 0 {
		cfg.Recovery.Retry.InitialDelay = time.Second
	}
	if cfg.Recovery.Retry.MaxDelay == 0 {
		cfg.Recovery.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Recovery.Retry.BackoffMultiple == 0 {
		cfg.Recovery.Retry.BackoffMultiple = 2.0
	}
	if cfg.Recovery.HistorySize == 0 {
		cfg.Recovery.HistorySize = 100
	}

	if cfg.Fallback.Selector.CacheTTL == 0 {
		cfg.Fallback.Selector.CacheTTL = 5 * time.Minute
	}
	if cfg.Fallback.Selector.MaxAttempts == 0 {
		cfg.Fallback.Selector.MaxAttempts = 3
	}
}
