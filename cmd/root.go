package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/internal/adapters/negotiation"
	"github.com/kamal-hamza/stg-cli/internal/adapters/source"
	"github.com/kamal-hamza/stg-cli/pkg/config"
	"github.com/kamal-hamza/stg-cli/pkg/logging"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
	"github.com/kamal-hamza/stg-cli/pkg/workspace"
)

var (
	// Global workspace and configuration
	appWorkspace *workspace.Workspace
	appConfig    *config.Config

	// Adapters
	negotiationClient *negotiation.HTTPClient
	fileSource        *source.LocalSource

	logCloser io.Closer

	// Global flags
	configPath  string
	serverURL   string
	verboseMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stg",
	Short: "STG - stage files and negotiate upload identifiers",
	Long: ui.StyleTitle.Render("STG") + " - File Staging Client\n\n" +
		"Select local files and let stg negotiate an identifier for each one\n" +
		"with the upload service. Every file is negotiated independently and\n" +
		"its progress is shown live.",
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := executeRoot(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

// executeRoot runs c and closes the log file, including when c fails
func executeRoot(ctx context.Context, c *cobra.Command) error {
	defer closeLog()
	return c.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the XDG config path)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Negotiation service URL (overrides config and "+config.EnvServerURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Also write logs to stderr")
}

// initializeApp loads configuration and wires the adapters
func initializeApp(cmd *cobra.Command, args []string) error {
	// version needs nothing
	if cmd.Name() == "version" {
		return nil
	}

	ws, err := workspace.New()
	if err != nil {
		return fmt.Errorf("failed to initialize workspace: %w", err)
	}
	if err := ws.Initialize(); err != nil {
		return err
	}
	appWorkspace = ws

	path := configPath
	if path == "" {
		path = appWorkspace.ConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --server: %w", err)
		}
	}
	appConfig = cfg

	ui.SetTheme(appConfig.ColorTheme)

	logFile := appConfig.LogFile
	if logFile == "" {
		logFile = appWorkspace.LogFile()
	}
	opts := logging.Options{Level: appConfig.LogLevel, File: logFile}
	if verboseMode {
		opts.Console = os.Stderr
	}
	closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	logCloser = closer

	negotiationClient = negotiation.NewHTTPClient(appConfig.ServerURL, negotiation.Options{
		MaxRetries:   appConfig.MaxRetries,
		RetryBackoff: appConfig.RetryBackoff(),
	})
	fileSource = source.NewLocalSource()

	log.Debug().
		Str("command", cmd.Name()).
		Str("server", appConfig.ServerURL).
		Str("config", path).
		Msg("stg initialized")

	return nil
}

func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatWarning("failed to close log file: "+err.Error()))
	}
	logCloser = nil
}

// getContext returns the command context, cancelled on interrupt
func getContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
