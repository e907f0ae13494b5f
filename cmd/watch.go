package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/internal/adapters/watcher"
	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/services"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

var (
	watchPlain    bool
	watchExisting bool
	watchReport   string
	watchOpen     bool
)

var watchCmd = &cobra.Command{
	Use:     "watch [dir]",
	Aliases: []string{"w"},
	Short:   "Stage every file dropped into a directory (alias: w)",
	Long: `Watch a drop directory and stage each regular file that appears in it.

Files written in a burst are staged together once the directory has been
quiet for watch_debounce_ms. Hidden files, editor backups and partial
downloads (*.part, *.crdownload) are ignored. A file whose name is already
staged in this run is skipped.

Keys in the live view:
  c    copy negotiated identifiers
  r    clear the list
  q    stop watching

Examples:
  stg watch ~/Drop
  stg watch --existing --plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchPlain, "plain", "p", false, "Log results as lines instead of the live view")
	watchCmd.Flags().BoolVarP(&watchExisting, "existing", "e", false, "Also stage files already in the directory")
	watchCmd.Flags().StringVarP(&watchReport, "report", "r", "", "Write an HTML report of the session to this path on exit")
	watchCmd.Flags().BoolVarP(&watchOpen, "open", "o", false, "Open the report once written (default report path when --report is not set)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(getContext(cmd))
	defer cancel()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	sess := newAppSession()
	defer sess.Close()

	drop, err := watcher.New(dir, appConfig.WatchDebounce(), func(ctx context.Context, paths []string) {
		if _, err := sess.stager.Execute(ctx, services.StageRequest{Paths: paths}); err != nil {
			log.Error().Err(err).Msg("failed to stage dropped files")
		}
	})
	if err != nil {
		return err
	}

	changes, unsubscribe := sess.registry.Subscribe()
	defer unsubscribe()

	if watchExisting {
		existing, err := drop.Existing()
		if err != nil {
			drop.Close()
			return err
		}
		if len(existing) > 0 {
			if _, err := sess.stage(ctx, existing); err != nil {
				drop.Close()
				return err
			}
		}
	}

	watchErr := make(chan error, 1)
	go func() { watchErr <- drop.Run(ctx) }()

	if watchPlain || !isInteractive() {
		fmt.Println(ui.FormatRocket("Watching " + drop.Dir()))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
		printTerminalRows(ctx, os.Stdout, sess.projection, changes)
	} else {
		m := newStagingModel("Watching "+drop.Dir(), sess.projection, sess.registry, changes, false)
		if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("error running watch view: %w", err)
		}
	}

	cancel()
	if err := <-watchErr; err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.RenderSummary(sess.projection.Summary()))
	reportPath := watchReport
	if reportPath == "" && watchOpen {
		reportPath = appWorkspace.ReportPath(time.Now())
	}
	return sess.finish(context.WithoutCancel(ctx), reportPath, watchOpen, false)
}

// printTerminalRows writes each file once it reaches a terminal status.
// Rows are scanned on start, on every change and once more when ctx ends.
func printTerminalRows(ctx context.Context, w io.Writer, rows rowSource, changes <-chan struct{}) {
	printed := make(map[string]bool)
	scan := func() {
		for _, v := range rows.Rows() {
			if printed[v.ID] || !v.Status.IsTerminal() {
				continue
			}
			printed[v.ID] = true
			fmt.Fprintln(w, formatResultLine(v))
		}
	}

	scan()
	for {
		select {
		case <-ctx.Done():
			scan()
			return
		case <-changes:
			scan()
		}
	}
}

func formatResultLine(v domain.FileView) string {
	if v.Status == domain.StatusNegotiated {
		return ui.FormatSuccess(fmt.Sprintf("%s → %s", v.Name, v.Identifier))
	}
	return ui.FormatError(fmt.Sprintf("%s: %s", v.Name, v.Error))
}
