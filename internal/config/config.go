// Package config handles configuration loading and validation for herodex
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the catalog keys in the file.
const (
	EnvPublicKey  = "HERODEX_PUBLIC_KEY"
	EnvPrivateKey = "HERODEX_PRIVATE_KEY"
)

// Store backends accepted in store.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the main configuration for herodex
type Config struct {
	// Directory holding the local stores
	DataDir string `yaml:"data_dir"`

	Store    StoreConfig    `yaml:"store"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Settings SettingsConfig `yaml:"settings"`
	UI       UIConfig       `yaml:"ui"`
}

// StoreConfig selects where settings, users and favorites are kept
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path overrides the location derived from data_dir
	Path string `yaml:"path,omitempty"`
}

// CatalogConfig holds the character API settings
type CatalogConfig struct {
	BaseURL    string `yaml:"base_url"`
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	Limit      int    `yaml:"limit"`
	Timeout    string `yaml:"timeout"`
}

// SettingsConfig holds settings persistence options
type SettingsConfig struct {
	WriteTimeout string `yaml:"write_timeout"`
}

// UIConfig holds terminal presentation options
type UIConfig struct {
	NoColor bool `yaml:"no_color"`
	Dense   bool `yaml:"dense"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Catalog: CatalogConfig{
			BaseURL: "https://gateway.marvel.com",
			Limit:   50,
			Timeout: "15s",
		},
		Settings: SettingsConfig{
			WriteTimeout: "5s",
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
// Catalog keys set in the environment win over the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvPublicKey)); v != "" {
		c.Catalog.PublicKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrivateKey)); v != "" {
		c.Catalog.PrivateKey = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// the file may carry the private key
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.DataDir == "" && c.Store.Path == "" {
			return fmt.Errorf("data_dir is required for the %s backend", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q, %q or %q, got %q", BackendFile, BackendSQLite, BackendMemory, c.Store.Backend)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.Catalog.Limit < 1 || c.Catalog.Limit > 100 {
		return fmt.Errorf("catalog.limit must be between 1 and 100")
	}
	if _, err := parseDuration("catalog.timeout", c.Catalog.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration("settings.write_timeout", c.Settings.WriteTimeout); err != nil {
		return err
	}
	return nil
}

// StorePath returns where the configured backend keeps its data.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	if c.Store.Backend == BackendSQLite {
		return filepath.Join(c.DataDir, "herodex.db")
	}
	return filepath.Join(c.DataDir, "store")
}

// CatalogTimeout returns catalog.timeout, zero when unset or invalid.
func (c *Config) CatalogTimeout() time.Duration {
	d, _ := parseDuration("catalog.timeout", c.Catalog.Timeout)
	return d
}

// WriteTimeout returns settings.write_timeout, zero when unset or invalid.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := parseDuration("settings.write_timeout", c.Settings.WriteTimeout)
	return d
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

// DefaultPath returns the path to herodex.yaml in the user config directory
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "herodex.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "herodex")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "herodex")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".herodex"
	}
	return filepath.Join(home, ".config", "herodex")
}
