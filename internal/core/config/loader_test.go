package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	// Setup env var
	os.Setenv("TEST_OPENAI_KEY", "sk-test-123")
	defer os.Unsetenv("TEST_OPENAI_KEY")

	// Create temp config file
	configContent := `
openai:
  api_key: ${TEST_OPENAI_KEY}
storage:
  backend: redis
  redis:
    url: redis://localhost:6379/0
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	// Load config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-test-123" {
		t.Errorf("Expected api key sk-test-123, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.Storage.Backend != "redis" {
		t.Errorf("Expected backend redis, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("Unexpected redis url: %s", cfg.Storage.Redis.URL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte("server:\n  port: 0\n")); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Expected default backend badger, got %s", cfg.Storage.Backend)
	}
	if cfg.Connectivity.Interval != 10*time.Second {
		t.Errorf("Expected default probe interval 10s, got %v", cfg.Connectivity.Interval)
	}
	if cfg.Recovery.Retry.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", cfg.Recovery.Retry.MaxAttempts)
	}
	if cfg.Fallback.Selector.CacheTTL != 5*time.Minute {
		t.Errorf("Expected default cache TTL 5m, got %v", cfg.Fallback.Selector.CacheTTL)
	}
}

func TestLoad_EndpointMap(t *testing.T) {
	configContent := `
health:
  endpoints:
    chat: https://api.example.com/health
    image_generation: https://img.example.com/health
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	endpoints := cfg.Health.SubsystemEndpoints()
	if len(endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(endpoints))
	}
}
