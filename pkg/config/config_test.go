package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.MonthlyDocLimit != 1000 {
		t.Errorf("expected default monthly limit 1000, got %d", cfg.MonthlyDocLimit)
	}
	if len(cfg.APIKeys) != 1 || cfg.APIKeys[0] != "agent1_key" {
		t.Errorf("unexpected default API keys: %v", cfg.APIKeys)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "Test App")
	t.Setenv("API_KEYS", "k1, k2,,k3,")
	t.Setenv("MONTHLY_DOC_LIMIT", "5")
	t.Setenv("PORT", "9090")
	t.Setenv("USE_GPU", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AppName != "Test App" {
		t.Errorf("expected app name override, got %q", cfg.AppName)
	}
	if len(cfg.APIKeys) != 3 {
		t.Errorf("expected 3 keys after dropping empties, got %v", cfg.APIKeys)
	}
	if cfg.MonthlyDocLimit != 5 {
		t.Errorf("expected limit 5, got %d", cfg.MonthlyDocLimit)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected PORT env to win, got %d", cfg.Port)
	}
	if !cfg.UseGPU {
		t.Error("expected USE_GPU=true to parse")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug level, got %q", cfg.LogLevel)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("app_name: YAML App\nport: 8081\nworker_count: 4\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AppName != "YAML App" {
		t.Errorf("expected YAML app name, got %q", cfg.AppName)
	}
	if cfg.Port != 8081 {
		t.Errorf("expected YAML port, got %d", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected YAML worker count, got %d", cfg.WorkerCount)
	}
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("APP_NAME=Env App\nPORT=8082\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AppName != "Env App" {
		t.Errorf("expected dotenv app name, got %q", cfg.AppName)
	}
	if cfg.Port != 8082 {
		t.Errorf("expected dotenv port, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no API keys", func(c *Config) { c.APIKeys = nil }},
		{"zero limit", func(c *Config) { c.MonthlyDocLimit = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"empty storage dir", func(c *Config) { c.StorageDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestParseAPIKeys(t *testing.T) {
	keys := ParseAPIKeys(" a ,, b,")
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("unexpected keys: %v", keys)
	}
}
