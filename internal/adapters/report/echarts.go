package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// HTMLReport renders a staging session as a standalone HTML page:
// a pie of status counts and a bar of per-file progress
type HTMLReport struct {
	Title string
}

// NewHTMLReport creates a report writer
func NewHTMLReport(title string) *HTMLReport {
	if title == "" {
		title = "Staging session"
	}
	return &HTMLReport{Title: title}
}

// Write renders views to path, creating parent directories as needed
func (r *HTMLReport) Write(ctx context.Context, path string, views []domain.FileView) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := r.Render(f, views); err != nil {
		return err
	}
	return f.Close()
}

// Render writes the report page to w
func (r *HTMLReport) Render(w io.Writer, views []domain.FileView) error {
	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(r.statusPie(views), r.progressBar(views))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func (r *HTMLReport) statusPie(views []domain.FileView) *charts.Pie {
	summary := domain.Summarize(views)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    r.Title,
			Subtitle: fmt.Sprintf("%d files", summary.Total),
		}),
	)

	items := make([]opts.PieData, 0, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		n := summary.Count(s)
		if n == 0 {
			continue
		}
		items = append(items, opts.PieData{Name: s.String(), Value: n})
	}
	pie.AddSeries("status", items)

	return pie
}

func (r *HTMLReport) progressBar(views []domain.FileView) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Progress"}),
	)

	names := make([]string, 0, len(views))
	values := make([]opts.BarData, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
		values = append(values, opts.BarData{Name: v.Status.String(), Value: v.Progress})
	}
	bar.SetXAxis(names).AddSeries("progress", values)

	return bar
}
