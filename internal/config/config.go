package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appName = "careops-triage"

	defaultRefreshInterval = 30 * time.Second
	defaultLookbackDays    = 7
	defaultRequestsPerSec  = 5
)

// Source kinds
const (
	SourceDemo = "demo"
	SourceHTTP = "http"
	SourceFile = "file"
)

// Store kinds
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// SourceConfig selects where items come from
type SourceConfig struct {
	Kind         string `yaml:"kind"` // "demo", "http" or "file"
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	File         string `yaml:"file"`
	LookbackDays int    `yaml:"lookback_days"`
	// RequestsPerSecond caps calls to the http source; 0 disables the limit
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Watch refreshes as soon as the file source changes on disk
	Watch bool `yaml:"watch"`
}

// StoreConfig selects the backend for persisted settings and presets
type StoreConfig struct {
	Kind string `yaml:"kind"` // "json" or "sqlite"
	Path string `yaml:"path"` // defaults to a file in the config directory
}

// Config holds application configuration
type Config struct {
	Source          SourceConfig  `yaml:"source"`
	Store           StoreConfig   `yaml:"store"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DefaultWindow   string        `yaml:"default_window"`
	Theme           string        `yaml:"theme"`
	LogLevel        string        `yaml:"log_level"`
	MetricsAddr     string        `yaml:"metrics_addr"`
}

func defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:              SourceDemo,
			LookbackDays:      defaultLookbackDays,
			RequestsPerSecond: defaultRequestsPerSec,
			Watch:             true,
		},
		Store:           StoreConfig{Kind: StoreJSON},
		RefreshInterval: defaultRefreshInterval,
		DefaultWindow:   "today",
		Theme:           "default",
		LogLevel:        "info",
	}
}

// Load loads configuration from the config file, a .env file and the
// environment. Environment variables take precedence over the config file.
func Load() (*Config, error) {
	cfg := defaults()

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a running process depends on
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDemo:
	case SourceHTTP:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for the http source")
		}
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("source.file is required for the file source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	switch c.Store.Kind {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}

	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.Source.LookbackDays < 0 {
		return fmt.Errorf("source.lookback_days must not be negative")
	}
	if c.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("source.requests_per_second must not be negative")
	}
	return nil
}

// Lookback is the fetch window of the http source
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Source.LookbackDays) * 24 * time.Hour
}

func (c *Config) loadFromFile() error {
	configPath := getConfigPath()
	if configPath == "" {
		return os.ErrNotExist
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// loadDotEnv reads .env from the working directory and the config directory.
// Variables already present in the environment are left alone.
func loadDotEnv() error {
	paths := []string{".env"}
	if dir, err := GetConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) loadFromEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("CAREOPS_SOURCE_KIND", &c.Source.Kind)
	setString("CAREOPS_SOURCE_URL", &c.Source.URL)
	setString("CAREOPS_SOURCE_TOKEN", &c.Source.Token)
	setString("CAREOPS_SOURCE_FILE", &c.Source.File)
	setString("CAREOPS_STORE", &c.Store.Kind)
	setString("CAREOPS_STORE_PATH", &c.Store.Path)
	setString("CAREOPS_THEME", &c.Theme)
	setString("CAREOPS_LOG_LEVEL", &c.LogLevel)
	setString("CAREOPS_METRICS_ADDR", &c.MetricsAddr)

	if v := os.Getenv("CAREOPS_LOOKBACK_DAYS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAREOPS_LOOKBACK_DAYS %q: %w", v, err)
		}
		c.Source.LookbackDays = d
	}
	if v := os.Getenv("CAREOPS_SOURCE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CAREOPS_SOURCE_RPS %q: %w", v, err)
		}
		c.Source.RequestsPerSecond = rps
	}
	if v := os.Getenv("CAREOPS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CAREOPS_REFRESH_INTERVAL %q: %w", v, err)
		}
		c.RefreshInterval = d
	}

	c.Source.Kind = strings.ToLower(c.Source.Kind)
	c.Store.Kind = strings.ToLower(c.Store.Kind)
	return nil
}

// getConfigPath returns the path to the config file
// Priority: $CAREOPS_TRIAGE_CONFIG > ~/.config/careops-triage/config.yaml
func getConfigPath() string {
	if configPath := os.Getenv("CAREOPS_TRIAGE_CONFIG"); configPath != "" {
		return configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName, "config.yaml")
}

func GetConfigDir() (string, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return "", fmt.Errorf("cannot determine config path")
	}
	return filepath.Dir(configPath), nil
}

// EnsureConfigDir ensures the config directory exists
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// SaveExampleConfig creates an example config file unless one exists
func SaveExampleConfig() error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	example := `# CareOps Triage Configuration

# Where items come from: "demo", "http" or "file".
# CAREOPS_SOURCE_KIND, CAREOPS_SOURCE_URL, CAREOPS_SOURCE_TOKEN and
# CAREOPS_SOURCE_FILE override these values.
source:
  kind: "demo"
  # url: "https://notifications.example.org/api/v1"
  # token: ""
  # file: "/path/to/items.json"
  lookback_days: 7
  # Cap on http source requests per second (0 = unlimited)
  requests_per_second: 5
  # Refresh as soon as the file source changes
  watch: true

# Persisted settings and filter presets: "json" or "sqlite"
store:
  kind: "json"
  # path: ""

# How often the dashboard refetches items
refresh_interval: 30s

# Initial time window (today, week, month, all)
default_window: "today"

# Color theme (default, catppuccin, dracula, nord, gruvbox)
theme: "default"

# Log level for careops-triage.log (debug, info, warn, error)
log_level: "info"

# Serve prometheus metrics on this address, e.g. "127.0.0.1:9464"
# metrics_addr: ""
`

	return os.WriteFile(configPath, []byte(example), 0600)
}

// Save persists the fields the dashboard manages. Source credentials already
// in the file are preserved.
func (c *Config) Save() error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	existing := defaults()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, existing); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	existing.Theme = c.Theme
	existing.DefaultWindow = c.DefaultWindow
	existing.RefreshInterval = c.RefreshInterval

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# CareOps Triage Configuration\n# Note: the source token can also be set via CAREOPS_SOURCE_TOKEN\n\n")
	return os.WriteFile(configPath, append(header, data...), 0600)
}
