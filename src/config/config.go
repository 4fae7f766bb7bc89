package config

import (
	"fmt"
	"os"
	"time"

	"market-collector/src/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestampField   = "updated_at"
	DefaultBatchConcurrency = 3
	DefaultBatchDelayMs     = 100
	DefaultTaskRetention    = 3600
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills optional fields left empty in the YAML.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.TimestampField == "" {
		c.Storage.TimestampField = DefaultTimestampField
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Network.ConcurrentRequests == 0 {
		c.Network.ConcurrentRequests = 5
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = DefaultBatchConcurrency
	}
	if c.Batch.DelayMs == 0 {
		c.Batch.DelayMs = DefaultBatchDelayMs
	}
	if c.Tasks.RetentionSeconds == 0 {
		c.Tasks.RetentionSeconds = DefaultTaskRetention
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	if c.Network.MinDelayMs < 0 {
		return fmt.Errorf("min delay cannot be negative")
	}

	// Data sources
	if len(c.DataSource.Sources) == 0 {
		return fmt.Errorf("at least one data source must be configured")
	}
	seen := make(map[string]bool)
	for i, src := range c.DataSource.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name '%s'", src.Name)
		}
		seen[src.Name] = true
		if src.BaseURL == "" {
			return fmt.Errorf("source '%s' must have a base_url", src.Name)
		}
	}

	// Batch pool
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1")
	}
	if c.Batch.DelayMs < 0 {
		return fmt.Errorf("batch delay cannot be negative")
	}

	// Schedules
	for i, s := range c.Schedules {
		if s.Collection == "" {
			return fmt.Errorf("schedule %d must name a collection", i)
		}
		d, err := time.ParseDuration(s.Interval)
		if err != nil {
			return fmt.Errorf("schedule '%s' has invalid interval: %w", s.Collection, err)
		}
		if d < time.Minute {
			return fmt.Errorf("schedule '%s' interval must be at least 1m", s.Collection)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// BatchDelay is the minimum delay between batch sub-requests.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Batch.DelayMs) * time.Millisecond
}

// TaskRetention is how long finished tasks are kept.
func (c *Config) TaskRetention() time.Duration {
	return time.Duration(c.Tasks.RetentionSeconds) * time.Second
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
