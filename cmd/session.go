package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"

	"github.com/kamal-hamza/stg-cli/internal/adapters/report"
	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
	"github.com/kamal-hamza/stg-cli/internal/core/services"
	"github.com/kamal-hamza/stg-cli/pkg/config"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

// session is one staging run: a registry, the service admitting into it
// and the projection displays read from
type session struct {
	registry   *services.Registry
	stager     *services.StageService
	projection *services.Projection
}

func newSession(client ports.NegotiationClient, src ports.FileSource, opts ...services.RegistryOption) *session {
	registry := services.NewRegistry(client, opts...)
	return &session{
		registry:   registry,
		stager:     services.NewStageService(src, registry),
		projection: services.NewProjection(registry),
	}
}

// newAppSession builds a session from the loaded configuration
func newAppSession() *session {
	return newSession(negotiationClient, fileSource, sessionOptions(appConfig)...)
}

func sessionOptions(cfg *config.Config) []services.RegistryOption {
	return []services.RegistryOption{
		services.WithNegotiationTimeout(cfg.NegotiationTimeout()),
	}
}

func (s *session) Close() {
	s.registry.Close()
}

// stage admits paths and reports the ones that could not be read
func (s *session) stage(ctx context.Context, paths []string) (*services.StageResponse, error) {
	resp, err := s.stager.Execute(ctx, services.StageRequest{Paths: paths})
	if err != nil {
		return nil, err
	}
	for _, r := range resp.Rejected {
		fmt.Fprintln(os.Stderr, ui.FormatWarning(fmt.Sprintf("Skipped %s: %v", r.Path, r.Error)))
	}
	return resp, nil
}

// finish runs the steps shared by every command once staging is over.
// Messages go to stderr so stdout stays machine readable.
func (s *session) finish(ctx context.Context, reportPath string, openReport, copyIDs bool) error {
	rows := s.projection.Rows()

	if reportPath != "" {
		if err := writeReport(ctx, report.NewHTMLReport("stg session"), reportPath, rows); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, ui.FormatSuccess("Report written to " + reportPath))

		if openReport {
			if err := openFile(reportPath); err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatWarning(err.Error()))
			}
		}
	}

	if copyIDs {
		if text := identifierList(s.projection.Identifiers()); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatMuted("(Clipboard access failed, please copy manually)"))
			} else {
				fmt.Fprintln(os.Stderr, ui.FormatInfo("Identifiers copied to clipboard"))
			}
		}
	}

	return nil
}

func writeReport(ctx context.Context, w ports.ReportWriter, path string, rows []domain.FileView) error {
	if err := w.Write(ctx, path, rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// identifierList formats "name<TAB>id" lines sorted by name
func identifierList(ids map[string]string) string {
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\t')
		b.WriteString(ids[name])
		b.WriteByte('\n')
	}
	return b.String()
}

// failureError turns failed files into a non-zero exit
func failureError(summary domain.Summary) error {
	if n := summary.Count(domain.StatusFailed); n > 0 {
		return fmt.Errorf("%d of %d files failed to prepare", n, summary.Total)
	}
	return nil
}

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}
