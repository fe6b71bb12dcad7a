// Package config loads sitecheck configuration from an optional YAML file and
// merges CLI flag overrides on top. Flags take precedence over the file,
// which takes precedence over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where LoadConfigFromDir looks relative to a directory.
const DefaultConfigPath = ".sitecheck/config.yaml"

// HistoryConfig controls the optional run-history database.
type HistoryConfig struct {
	// Enabled records every completed run to the database.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the SQLite history database.
	DBPath string `yaml:"db_path"`
}

// Config holds every tunable of a check run.
type Config struct {
	// BaseURL is prepended to each collected path before the request.
	BaseURL string `yaml:"base_url"`

	// ContentDir is the root directory scanned for documents.
	ContentDir string `yaml:"content_dir"`

	// Workers bounds concurrent in-flight requests.
	Workers int `yaml:"workers"`

	// Timeout is the per-request deadline.
	Timeout time.Duration `yaml:"-"`

	// RatePerSec caps the request start rate (0 = unlimited).
	RatePerSec float64 `yaml:"rate_per_sec"`

	// History configures run recording.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with the stock defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:1313",
		ContentDir: "content",
		Workers:    100,
		Timeout:    5 * time.Minute,
		RatePerSec: 0,
		History: HistoryConfig{
			Enabled: false,
			DBPath:  ".sitecheck/history.db",
		},
	}
}

// LoadConfig loads configuration from path. A missing file returns the
// defaults without error; a malformed file returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings in YAML; parse through a shadow struct.
	type yamlConfig struct {
		BaseURL    string        `yaml:"base_url"`
		ContentDir string        `yaml:"content_dir"`
		Workers    int           `yaml:"workers"`
		Timeout    string        `yaml:"timeout"`
		RatePerSec float64       `yaml:"rate_per_sec"`
		History    HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.BaseURL != "" {
		cfg.BaseURL = yamlCfg.BaseURL
	}
	if yamlCfg.ContentDir != "" {
		cfg.ContentDir = yamlCfg.ContentDir
	}
	if yamlCfg.Workers != 0 {
		cfg.Workers = yamlCfg.Workers
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.RatePerSec != 0 {
		cfg.RatePerSec = yamlCfg.RatePerSec
	}
	if yamlCfg.History.Enabled {
		cfg.History.Enabled = true
	}
	if yamlCfg.History.DBPath != "" {
		cfg.History.DBPath = yamlCfg.History.DBPath
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from dir/.sitecheck/config.yaml,
// falling back to defaults when the file is absent.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultConfigPath))
}

// MergeWithFlags overlays explicitly-set CLI flags on the loaded config.
// Nil pointers mean the flag was not set and the config value stands.
func (c *Config) MergeWithFlags(baseURL, contentDir *string, workers *int, timeout *time.Duration, ratePerSec *float64, historyEnabled *bool) {
	if baseURL != nil {
		c.BaseURL = *baseURL
	}
	if contentDir != nil {
		c.ContentDir = *contentDir
	}
	if workers != nil {
		c.Workers = *workers
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if ratePerSec != nil {
		c.RatePerSec = *ratePerSec
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate checks the merged configuration for values the run cannot use.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("content directory must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RatePerSec < 0 {
		return fmt.Errorf("rate must not be negative, got %g", c.RatePerSec)
	}
	return nil
}
