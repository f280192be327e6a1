package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// Config holds the runtime configuration for the vision service.
type Config struct {
	AppName         string   `json:"app_name"`
	APIKeys         []string `json:"api_keys"`
	MonthlyDocLimit int      `json:"monthly_doc_limit"`
	StorageDir      string   `json:"storage_dir"`
	DBPath          string   `json:"db_path"`

	OCRLang    string `json:"ocr_lang"`
	OCRCommand string `json:"ocr_command"`
	UseGPU     bool   `json:"use_gpu"`

	Port        int    `json:"port"`
	WorkerCount int    `json:"worker_count"`
	QueueSize   int    `json:"queue_size"`
	LogLevel    string `json:"log_level"`

	TelemetryEnabled bool `json:"telemetry_enabled"`
	TelemetryPort    int  `json:"telemetry_port"`
}

// Load builds the configuration: defaults, then the optional config file,
// then environment variables. A .yaml/.yml path is parsed as a YAML config,
// anything else is loaded as a dotenv file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
			}
		}
	} else {
		if _, err := os.Stat(".env"); err == nil {
			godotenv.Load(".env")
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		AppName:          "GPU Vision AI",
		APIKeys:          []string{"agent1_key"},
		MonthlyDocLimit:  1000,
		StorageDir:       "./uploads",
		DBPath:           "./vision.db",
		OCRLang:          "en",
		OCRCommand:       "paddleocr-cli",
		UseGPU:           false,
		Port:             8000,
		WorkerCount:      2,
		QueueSize:        128,
		LogLevel:         "info",
		TelemetryEnabled: true,
		TelemetryPort:    9090,
	}
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("APP_NAME"); v != "" {
		cfg.AppName = v
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		cfg.APIKeys = ParseAPIKeys(v)
	}
	if v := os.Getenv("MONTHLY_DOC_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MonthlyDocLimit = n
		}
	}
	if v := os.Getenv("LOCAL_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OCR_LANG"); v != "" {
		cfg.OCRLang = v
	}
	if v := os.Getenv("OCR_COMMAND"); v != "" {
		cfg.OCRCommand = v
	}
	if v := os.Getenv("USE_GPU"); v != "" {
		cfg.UseGPU = parseBool(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerCount = n
		}
	}
	if v := os.Getenv("QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueSize = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TELEMETRY_ENABLED"); v != "" {
		cfg.TelemetryEnabled = parseBool(v)
	}
	if v := os.Getenv("TELEMETRY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TelemetryPort = n
		}
	}
}

// ParseAPIKeys splits a comma-separated key list, dropping empty entries.
func ParseAPIKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Validate checks the essential fields.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name is required")
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}
	if c.MonthlyDocLimit <= 0 {
		return fmt.Errorf("monthly_doc_limit must be positive")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in range 1-65535")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}
	validLogLevels := []string{"debug", "info", "warn", "error"}
	valid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	if c.TelemetryEnabled && (c.TelemetryPort <= 0 || c.TelemetryPort > 65535) {
		return fmt.Errorf("telemetry_port must be in range 1-65535")
	}
	return nil
}
