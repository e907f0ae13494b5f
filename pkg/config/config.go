package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvServerURL overrides ServerURL when set
const EnvServerURL = "STG_SERVER_URL"

const (
	defaultServerURL      = "http://127.0.0.1:8080"
	defaultRetryBackoffMS = 200
	defaultDebounceMS     = 500
	defaultColorTheme     = "auto"
	defaultLogLevel       = "info"
)

type Config struct {
	// Negotiation service
	ServerURL            string `yaml:"server_url"`
	NegotiationTimeoutMS int    `yaml:"negotiation_timeout_ms"`
	MaxRetries           int    `yaml:"max_retries"`
	RetryBackoffMS       int    `yaml:"retry_backoff_ms"`

	// Drop directory
	WatchDebounceMS int `yaml:"watch_debounce_ms"`

	// UI Settings
	ColorTheme string `yaml:"color_theme"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:            defaultServerURL,
		NegotiationTimeoutMS: 0,
		MaxRetries:           0,
		RetryBackoffMS:       defaultRetryBackoffMS,
		WatchDebounceMS:      defaultDebounceMS,
		ColorTheme:           defaultColorTheme,
		LogLevel:             defaultLogLevel,
		LogFile:              "",
	}
}

// Load reads configuration from the specified file path.
// A missing file yields the defaults. The environment is applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// applyDefaults fills in essential values left empty by the file
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = defaultServerURL
	}
	if c.RetryBackoffMS <= 0 {
		c.RetryBackoffMS = defaultRetryBackoffMS
	}
	if c.WatchDebounceMS <= 0 {
		c.WatchDebounceMS = defaultDebounceMS
	}
	if c.ColorTheme == "" {
		c.ColorTheme = defaultColorTheme
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		c.ServerURL = v
	}
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an http(s) URL, got %q", c.ServerURL)
	}
	if c.NegotiationTimeoutMS < 0 {
		return fmt.Errorf("negotiation_timeout_ms must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if !isValidColorTheme(c.ColorTheme) {
		return fmt.Errorf("color_theme must be one of auto, dark, light, got %q", c.ColorTheme)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// NegotiationTimeout returns the per-call bound (0 = none)
func (c *Config) NegotiationTimeout() time.Duration {
	return time.Duration(c.NegotiationTimeoutMS) * time.Millisecond
}

// RetryBackoff returns the base delay between negotiation attempts
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// WatchDebounce returns how long a drop directory must settle
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isValidColorTheme checks if the theme is one the UI knows
func isValidColorTheme(theme string) bool {
	validThemes := []string{"auto", "dark", "light"}
	for _, valid := range validThemes {
		if theme == valid {
			return true
		}
	}
	return false
}
