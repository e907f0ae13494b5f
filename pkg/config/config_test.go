package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}
	return configPath
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.ServerURL != "http://127.0.0.1:8080" {
		t.Errorf("expected default ServerURL, got %q", cfg.ServerURL)
	}

	if cfg.NegotiationTimeoutMS != 0 {
		t.Errorf("expected no negotiation timeout by default, got %d", cfg.NegotiationTimeoutMS)
	}

	if cfg.MaxRetries != 0 {
		t.Errorf("expected a single attempt by default, got %d retries", cfg.MaxRetries)
	}

	if cfg.WatchDebounceMS != 500 {
		t.Errorf("expected default WatchDebounceMS=500, got %d", cfg.WatchDebounceMS)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	t.Setenv(EnvServerURL, "")

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg.ServerURL != defaultServerURL {
		t.Errorf("expected default ServerURL, got %q", cfg.ServerURL)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel='info', got %q", cfg.LogLevel)
	}
}

func TestSave_And_Load(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &Config{
		ServerURL:            "https://stage.example.com",
		NegotiationTimeoutMS: 3000,
		MaxRetries:           2,
		RetryBackoffMS:       50,
		WatchDebounceMS:      250,
		ColorTheme:           "dark",
		LogLevel:             "debug",
		LogFile:              "/tmp/stg.log",
	}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("loaded config differs:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	configPath := writeConfig(t, `server_url: ""
retry_backoff_ms: 0
watch_debounce_ms: -1
max_retries: 3
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.ServerURL != defaultServerURL {
		t.Errorf("expected default ServerURL for empty value, got %q", cfg.ServerURL)
	}
	if cfg.RetryBackoffMS != 200 {
		t.Errorf("expected default RetryBackoffMS=200, got %d", cfg.RetryBackoffMS)
	}
	if cfg.WatchDebounceMS != 500 {
		t.Errorf("expected default WatchDebounceMS=500, got %d", cfg.WatchDebounceMS)
	}

	// Should preserve specified values
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, "server_url: http://from-file:9000\n")
	t.Setenv(EnvServerURL, "http://from-env:7000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.ServerURL != "http://from-env:7000" {
		t.Errorf("expected env to win, got %q", cfg.ServerURL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `server_url: http://x
max_retries: [invalid yaml structure
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error loading invalid YAML, got nil")
	}
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv(EnvServerURL, "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no scheme", "server_url: localhost:8080\n", "server_url"},
		{"ftp scheme", "server_url: ftp://host\n", "server_url"},
		{"negative timeout", "negotiation_timeout_ms: -5\n", "negotiation_timeout_ms"},
		{"negative retries", "max_retries: -1\n", "max_retries"},
		{"unknown theme", "color_theme: neon\n", "color_theme"},
		{"unknown log level", "log_level: loud\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{NegotiationTimeoutMS: 1500, RetryBackoffMS: 200, WatchDebounceMS: 500}

	if got := cfg.NegotiationTimeout(); got != 1500*time.Millisecond {
		t.Errorf("NegotiationTimeout = %v", got)
	}
	if got := cfg.RetryBackoff(); got != 200*time.Millisecond {
		t.Errorf("RetryBackoff = %v", got)
	}
	if got := cfg.WatchDebounce(); got != 500*time.Millisecond {
		t.Errorf("WatchDebounce = %v", got)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	if err := DefaultConfig().Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	content := string(data)
	for _, key := range []string{"server_url", "negotiation_timeout_ms", "max_retries", "watch_debounce_ms", "log_level"} {
		if !strings.Contains(content, key) {
			t.Errorf("config file should contain %q", key)
		}
	}
}
