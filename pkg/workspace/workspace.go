package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const appName = "stg"

// Workspace holds the per-user directories stg writes to
type Workspace struct {
	StatePath   string
	LogsPath    string
	ReportsPath string
	ConfigPath  string
}

// New creates a Workspace with XDG-compliant paths
func New() (*Workspace, error) {
	statePath, stateErr := getStateRoot()
	configPath, configErr := getConfigPath()
	if stateErr != nil {
		return nil, fmt.Errorf("failed to determine state directory: %w", stateErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return &Workspace{
		StatePath:   statePath,
		LogsPath:    filepath.Join(statePath, "logs"),
		ReportsPath: filepath.Join(statePath, "reports"),
		ConfigPath:  configPath,
	}, nil
}

// getStateRoot follows XDG_STATE_HOME on Unix and uses AppData on Windows
func getStateRoot() (string, error) {
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, appName), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "state", appName), nil
}

func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.yaml"), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName+"-config", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appName, "config.yaml"), nil
}

// Initialize creates the state directories if they don't exist
func (w *Workspace) Initialize() error {
	for _, dir := range []string{w.StatePath, w.LogsPath, w.ReportsPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogFile returns the default log file path
func (w *Workspace) LogFile() string {
	return filepath.Join(w.LogsPath, appName+".log")
}

// ReportPath returns a timestamped report path for a session started at t
func (w *Workspace) ReportPath(t time.Time) string {
	return filepath.Join(w.ReportsPath, "session-"+t.Format("20060102-150405")+".html")
}
