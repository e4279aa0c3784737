package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type APIConfig struct {
	BaseURL           string        `yaml:"base_url"` // {lang} is replaced by the locale
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`  // per item attempt
	Attempts          int           `yaml:"attempts"` // per item
}

type FeedConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	Concurrency      int           `yaml:"concurrency"`
	Threshold        float64       `yaml:"threshold"` // viewports remaining
	ExtractThreshold int           `yaml:"extract_threshold"`
	FullText         bool          `yaml:"full_text"`
	BackoffMin       time.Duration `yaml:"backoff_min"`
	BackoffMax       time.Duration `yaml:"backoff_max"`
}

type StoreConfig struct {
	Type     string `yaml:"type"` // "memory", "file", "sqlite" or "valkey"
	Path     string `yaml:"path"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	File   string `yaml:"file"`
}

type MetricsConfig struct {
	Address string `yaml:"address"` // empty disables the server
}

type AppConfig struct {
	Locale    string        `yaml:"locale"` // empty means detect from $LANG
	Languages []string      `yaml:"languages"`
	API       APIConfig     `yaml:"api"`
	Feed      FeedConfig    `yaml:"feed"`
	Store     StoreConfig   `yaml:"store"`
	Log       LogConfig     `yaml:"log"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		Languages: []string{"en", "es"},
		API: APIConfig{
			BaseURL:           "https://{lang}.wikipedia.org",
			RequestsPerSecond: 20,
			Timeout:           3 * time.Second,
			Attempts:          3,
		},
		Feed: FeedConfig{
			BatchSize:        10,
			Threshold:        5,
			ExtractThreshold: 150,
			BackoffMin:       time.Second,
			BackoffMax:       30 * time.Second,
		},
		Store: StoreConfig{
			Type: "file",
			Path: filepath.Join(dataDir, "state"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(dataDir, "wikifeed.log"),
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*AppConfig, error) {
	c := Default()

	if path != "" {
		if err := loadYaml(path, c); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	c.Store.Path = expandHome(c.Store.Path)
	c.Log.File = expandHome(c.Log.File)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AppConfig) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("no languages configured")
	}
	if c.Feed.BatchSize <= 0 {
		return fmt.Errorf("feed.batch_size must be positive, got %d", c.Feed.BatchSize)
	}
	if c.Feed.Threshold <= 0 {
		return fmt.Errorf("feed.threshold must be positive, got %v", c.Feed.Threshold)
	}
	if c.API.Attempts <= 0 {
		return fmt.Errorf("api.attempts must be positive, got %d", c.API.Attempts)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout)
	}

	switch c.Store.Type {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s store", c.Store.Type)
		}
	case "valkey":
		if c.Store.Address == "" {
			return fmt.Errorf("store.address is required for valkey store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wikifeed"
	}
	return filepath.Join(home, ".wikifeed")
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func loadYaml(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
