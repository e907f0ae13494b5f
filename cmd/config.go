package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/pkg/config"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective stg configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.FormatTitle("Configuration"))
		fmt.Println()
		for _, kv := range configRows(appConfig) {
			fmt.Println(ui.RenderKeyValue(kv[0], kv[1]))
		}
		fmt.Println()
		fmt.Println(ui.FormatMuted("File: " + activeConfigPath()))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := activeConfigPath()

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		fmt.Println(ui.FormatSuccess("Config written to " + path))
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $VISUAL or $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := activeConfigPath()

		// Ensure it exists
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config file not found at %s (run 'stg config init')", path)
		}

		fmt.Println(ui.FormatInfo("Opening config: " + path))

		c := exec.Command(preferredEditor(), path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return appWorkspace.ConfigPath
}

func configRows(cfg *config.Config) [][2]string {
	logFile := cfg.LogFile
	if logFile == "" && appWorkspace != nil {
		logFile = appWorkspace.LogFile()
	}

	return [][2]string{
		{"server_url", cfg.ServerURL},
		{"negotiation_timeout_ms", strconv.Itoa(cfg.NegotiationTimeoutMS)},
		{"max_retries", strconv.Itoa(cfg.MaxRetries)},
		{"retry_backoff_ms", strconv.Itoa(cfg.RetryBackoffMS)},
		{"watch_debounce_ms", strconv.Itoa(cfg.WatchDebounceMS)},
		{"color_theme", cfg.ColorTheme},
		{"log_level", cfg.LogLevel},
		{"log_file", logFile},
	}
}
