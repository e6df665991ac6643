// Package config loads the planweave service configuration file. Every
// value can also be set through CLI flags or environment variables; the file
// is for deployments that prefer one declarative artifact.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the planweave service configuration.
type Config struct {
	Port        int           `yaml:"port"`
	DatabaseURL string        `yaml:"database_url"`
	EventBus    string        `yaml:"event_bus"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	LogLevel    string        `yaml:"log_level"`
	Tracing     bool          `yaml:"tracing"`
	Model       ModelConfig   `yaml:"model"`
	Catalog     CatalogConfig `yaml:"catalog"`
}

// ModelConfig configures the model provider used for plan generation.
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// CatalogConfig configures the integration catalog source.
type CatalogConfig struct {
	// Source is a JSON catalog file path or a postgres URL. Empty uses the
	// built-in catalog.
	Source string `yaml:"source"`

	// RefreshSchedule is a cron expression for periodic catalog reloads.
	// Empty disables refreshing.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:     9090,
		EventBus: "gochannel",
		CacheTTL: 24 * time.Hour,
		LogLevel: "info",
		Model: ModelConfig{
			Name: "gpt-4o",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can run a service.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}

	if c.Model.APIKey == "" {
		return errors.New("model api_key is required")
	}

	return nil
}
