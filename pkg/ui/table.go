package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// TableColumn represents a column in the table
type TableColumn struct {
	Header string
	Width  int
	Align  string // "left", "right", "center"
}

// Table represents a data table
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

// NewTable creates a new table with specified columns
func NewTable(columns []TableColumn) *Table {
	return &Table{
		Columns: columns,
		Rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells []string) {
	t.Rows = append(t.Rows, cells)
}

// Render renders the table as a string. Cells may already be styled;
// widths are measured on the visible text.
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}

	var builder strings.Builder

	colWidths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		colWidths[i] = max(lipgloss.Width(col.Header), col.Width)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], lipgloss.Width(cell))
			}
		}
	}

	headerParts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headerParts[i] = padString(col.Header, colWidths[i], "left")
	}
	builder.WriteString(StyleTableHeader.Render(strings.Join(headerParts, "  ")))
	builder.WriteString("\n")

	separatorParts := make([]string, len(t.Columns))
	for i := range t.Columns {
		separatorParts[i] = strings.Repeat("─", colWidths[i])
	}
	builder.WriteString(StyleTableBorder.Render(strings.Join(separatorParts, "  ")))
	builder.WriteString("\n")

	for idx, row := range t.Rows {
		rowParts := make([]string, len(t.Columns))
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowParts[i] = padString(cell, colWidths[i], t.Columns[i].Align)
		}

		rowStyle := StyleTableRow
		if idx%2 == 1 {
			rowStyle = StyleTableRowAlt
		}
		builder.WriteString(rowStyle.Render(strings.Join(rowParts, "  ")))
		builder.WriteString("\n")
	}

	return builder.String()
}

// padString pads a string to the specified visible width with alignment
func padString(s string, width int, align string) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}

	padding := width - w

	switch align {
	case "right":
		return strings.Repeat(" ", padding) + s
	case "center":
		leftPad := padding / 2
		rightPad := padding - leftPad
		return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", rightPad)
	default:
		return s + strings.Repeat(" ", padding)
	}
}

// FilesTable lays out staged files in admission order
func FilesTable(views []domain.FileView) *Table {
	table := NewTable([]TableColumn{
		{Header: "FILE", Width: 20},
		{Header: "STATUS", Width: 14},
		{Header: "PROGRESS", Align: "right"},
		{Header: "IDENTIFIER / ERROR"},
	})

	for _, v := range views {
		detail := v.Identifier
		if v.Status == domain.StatusFailed {
			detail = StyleError.Render(v.Error)
		}
		table.AddRow([]string{
			v.Name,
			StatusBadge(v.Status),
			strconv.Itoa(v.Progress) + "%",
			detail,
		})
	}

	return table
}

// RenderSummary renders "N files: a negotiated, b failed, ..." skipping empty statuses
func RenderSummary(s domain.Summary) string {
	parts := make([]string, 0, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		if n := s.Count(status); n > 0 {
			parts = append(parts, StatusStyle(status).Render(fmt.Sprintf("%d %s", n, status)))
		}
	}

	noun := "files"
	if s.Total == 1 {
		noun = "file"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", s.Total, noun)
	}
	return fmt.Sprintf("%d %s: %s", s.Total, noun, strings.Join(parts, ", "))
}

// RenderKeyValue renders a key-value pair
func RenderKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s",
		StyleAccent.Render(key),
		value,
	)
}
