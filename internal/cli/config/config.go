// Package config loads svcref configuration from svcref.yml and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/svcref/svcref/internal/catalog"
)

// Config represents the svcref configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Output  OutputConfig  `mapstructure:"output"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

// CatalogConfig configures the remote catalog client.
type CatalogConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Retries        int    `mapstructure:"retries"`
	CacheSize      int    `mapstructure:"cache_size"`
}

// OutputConfig configures default rendering behavior.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// MonitorConfig configures the schema drift monitor.
type MonitorConfig struct {
	SchemaDir  string `mapstructure:"schema_dir"`
	SampleSize int    `mapstructure:"sample_size"`
}

// Load loads the configuration from svcref.yml or svcref.yaml in the current
// directory, with SVCREF_* environment overrides. Missing file means
// defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("catalog.base_url", catalog.DefaultBaseURL)
	v.SetDefault("catalog.timeout_seconds", 30)
	v.SetDefault("catalog.retries", 2)
	v.SetDefault("catalog.cache_size", 512)
	v.SetDefault("output.format", "table")
	v.SetDefault("output.no_color", false)
	v.SetDefault("monitor.schema_dir", "schemas")
	v.SetDefault("monitor.sample_size", 10)

	v.SetConfigName("svcref")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SVCREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Timeout returns the catalog request timeout as a duration.
func (c *CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	switch cfg.Output.Format {
	case "table", "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of table, text, json, yaml; got: %s", cfg.Output.Format)
	}

	if cfg.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must not be empty")
	}
	if cfg.Catalog.TimeoutSeconds <= 0 {
		return fmt.Errorf("catalog.timeout_seconds must be positive, got: %d", cfg.Catalog.TimeoutSeconds)
	}
	if cfg.Catalog.Retries < 0 {
		return fmt.Errorf("catalog.retries must not be negative, got: %d", cfg.Catalog.Retries)
	}
	if cfg.Monitor.SampleSize <= 0 {
		return fmt.Errorf("monitor.sample_size must be positive, got: %d", cfg.Monitor.SampleSize)
	}

	return nil
}
