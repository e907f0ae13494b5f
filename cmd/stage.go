package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/internal/adapters/picker"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

var (
	stageDir    string
	stageDepth  int
	stagePlain  bool
	stageJSON   bool
	stageCopy   bool
	stageReport string
	stageOpen   bool
)

var stageCmd = &cobra.Command{
	Use:     "stage [files...]",
	Aliases: []string{"s", "add"},
	Short:   "Stage files and negotiate an identifier for each (alias: s, add)",
	Long: `Stage one or more files. Every new file is negotiated with the upload
service on its own; a file that is already staged in this run is skipped.

With no arguments an interactive picker lists the files under --dir.
Use Tab to select several files and Enter to stage them.

Progress is shown live until every file has either been negotiated or
failed. In plain mode (or when output is not a terminal) a table is
printed at the end instead.

Examples:
  stg stage report.pdf notes.txt
  stg stage --dir ~/Downloads
  stg stage *.png --plain --copy
  stg stage data.csv --json`,
	RunE: runStage,
}

func init() {
	stageCmd.Flags().StringVarP(&stageDir, "dir", "d", ".", "Directory to pick files from when none are given")
	stageCmd.Flags().IntVar(&stageDepth, "depth", 3, "How deep the picker looks below --dir (0 = unlimited)")
	stageCmd.Flags().BoolVarP(&stagePlain, "plain", "p", false, "Print a table when done instead of the live view")
	stageCmd.Flags().BoolVar(&stageJSON, "json", false, "Print the final state as JSON")
	stageCmd.Flags().BoolVarP(&stageCopy, "copy", "c", false, "Copy negotiated identifiers to the clipboard")
	stageCmd.Flags().StringVarP(&stageReport, "report", "r", "", "Write an HTML report of the session to this path")
	stageCmd.Flags().BoolVarP(&stageOpen, "open", "o", false, "Open the report once written (default report path when --report is not set)")
}

func runStage(cmd *cobra.Command, args []string) error {
	ctx := getContext(cmd)

	paths, err := selectPaths(ctx, picker.NewFuzzyPicker(stageDepth), stageDir, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println(ui.FormatMuted("No files selected"))
		return nil
	}

	sess := newAppSession()
	defer sess.Close()

	changes, unsubscribe := sess.registry.Subscribe()
	defer unsubscribe()

	resp, err := sess.stage(ctx, paths)
	if err != nil {
		return err
	}
	if len(resp.Admitted) == 0 {
		return fmt.Errorf("nothing to stage")
	}

	if stagePlain || stageJSON || !isInteractive() {
		if err := sess.registry.Wait(ctx); err != nil {
			return err
		}
	} else {
		m := newStagingModel("Staging "+pluralFiles(len(resp.Admitted)), sess.projection, nil, changes, true)
		if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("error running staging view: %w", err)
		}
	}

	rows := sess.projection.Rows()
	summary := sess.projection.Summary()

	switch {
	case stageJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	default:
		fmt.Print(ui.FilesTable(rows).Render())
		fmt.Println()
		fmt.Println(ui.RenderSummary(summary))
	}

	reportPath := stageReport
	if reportPath == "" && stageOpen {
		reportPath = appWorkspace.ReportPath(time.Now())
	}
	if err := sess.finish(ctx, reportPath, stageOpen, stageCopy); err != nil {
		return err
	}

	if !summary.Done() {
		fmt.Fprintln(os.Stderr, ui.FormatWarning("Stopped before every file finished"))
		return nil
	}
	return failureError(summary)
}

// selectPaths returns args as given, or asks p when there are none
func selectPaths(ctx context.Context, p ports.FilePicker, dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	picked, err := p.Pick(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to pick files: %w", err)
	}
	return picked, nil
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
