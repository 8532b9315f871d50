// Package config loads service configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	databaseURLEnv    = "DATABASE_URL"
	databaseDriverEnv = "DATABASE_DRIVER"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	portEnv           = "PORT"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	callTimeoutEnv    = "CALL_TIMEOUT"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds every setting of the service. Zero-valued sections are filled from defaults.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Auth      JWTConfig       `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the store. Driver is "postgres" or "sqlite"; URL is the DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// PipelineConfig bounds the generation pipeline.
type PipelineConfig struct {
	// CallTimeout applies to every external call (rewrite, title generation).
	CallTimeout time.Duration `yaml:"call_timeout"`
	// BatchLimit caps concurrent scans in a batch request.
	BatchLimit int `yaml:"batch_limit"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotifyConfig sizes per-subscriber queues.
type NotifyConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// RateLimitConfig limits generation requests per owner.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: DriverSQLite, URL: "file:medcontent.db?_pragma=foreign_keys(1)"},
		LLM:      LLMConfig{Model: "gemini-2.5-flash"},
		Pipeline: PipelineConfig{CallTimeout: 90 * time.Second, BatchLimit: 8},
		Auth:     JWTConfig{ExpirationHours: 24},
		Log:      LogConfig{Level: "info", Format: "text"},
		Notify:   NotifyConfig{QueueSize: 64},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 10,
			Burst:             3,
			CleanupInterval:   5 * time.Minute,
		},
	}
}

// Load builds a configuration from defaults, then the YAML file at path (skipped when
// path is empty), then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(portEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", portEnv, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(callTimeoutEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", callTimeoutEnv, err)
		}
		c.Pipeline.CallTimeout = d
	}
	return c.Auth.applyEnvOverrides()
}

// Validate checks that the configuration has usable values.
// Secrets are not required here; commands that need them check on use.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config error: 'database.driver' must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Pipeline.CallTimeout <= 0 {
		return fmt.Errorf("config error: 'pipeline.call_timeout' must be positive")
	}
	if c.Pipeline.BatchLimit < 0 {
		return fmt.Errorf("config error: 'pipeline.batch_limit' must be non-negative")
	}
	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("config error: 'notify.queue_size' must be at least 1")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("config error: 'rate_limit' values must be non-negative")
	}
	return c.Auth.normalize()
}
