package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

// rowSource is what the staging view reads from
type rowSource interface {
	Rows() []domain.FileView
	Identifiers() map[string]string
}

type resetter interface {
	Reset()
}

// Key bindings
type stagingKeyMap struct {
	Reset key.Binding
	Copy  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k stagingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.Reset, k.Help, k.Quit}
}

func (k stagingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Copy, k.Reset},
		{k.Help, k.Quit},
	}
}

var stagingKeys = stagingKeyMap{
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "clear list"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c", "y"),
		key.WithHelp("c", "copy ids"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type changedMsg struct{}

type statusMsg struct {
	message string
	style   lipgloss.Style
}

type stagingModel struct {
	title   string
	rows    rowSource
	reset   resetter
	changes <-chan struct{}

	// quitWhenDone ends the program once every file is terminal
	quitWhenDone bool

	views         []domain.FileView
	summary       domain.Summary
	spinner       spinner.Model
	bar           progress.Model
	help          help.Model
	keys          stagingKeyMap
	width         int
	message       string
	messageStyle  lipgloss.Style
	messageExpiry time.Time
}

func newStagingModel(title string, rows rowSource, reset resetter, changes <-chan struct{}, quitWhenDone bool) stagingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.StyleInfo

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20

	m := stagingModel{
		title:        title,
		rows:         rows,
		reset:        reset,
		changes:      changes,
		quitWhenDone: quitWhenDone,
		spinner:      sp,
		bar:          bar,
		help:         help.New(),
		keys:         stagingKeys,
	}
	m.refresh()
	return m
}

func (m stagingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.changes))
}

// waitForChange turns one registry notification into a message
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m *stagingModel) refresh() {
	m.views = m.rows.Rows()
	m.summary = domain.Summarize(m.views)
}

func (m stagingModel) done() bool {
	return m.summary.Total > 0 && m.summary.Done()
}

func (m stagingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case changedMsg:
		m.refresh()
		if m.quitWhenDone && m.done() {
			return m, tea.Quit
		}
		return m, waitForChange(m.changes)

	case statusMsg:
		m.message = msg.message
		m.messageStyle = msg.style
		m.messageExpiry = time.Now().Add(3 * time.Second)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m stagingModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Reset):
		if m.reset != nil {
			m.reset.Reset()
			m.refresh()
			return m, func() tea.Msg {
				return statusMsg{message: "List cleared", style: ui.StyleInfo}
			}
		}

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyIdentifiers()
	}

	return m, nil
}

func (m stagingModel) copyIdentifiers() tea.Cmd {
	text := identifierList(m.rows.Identifiers())
	return func() tea.Msg {
		if text == "" {
			return statusMsg{message: "No identifiers yet", style: ui.StyleWarning}
		}
		if err := clipboard.WriteAll(text); err != nil {
			return statusMsg{message: "Clipboard access failed", style: ui.StyleError}
		}
		return statusMsg{message: "Identifiers copied", style: ui.StyleSuccess}
	}
}

func (m stagingModel) View() string {
	var b strings.Builder

	b.WriteString(ui.FormatTitle(m.title))
	b.WriteString("\n\n")

	if len(m.views) == 0 {
		b.WriteString(ui.FormatMuted("  No files staged yet."))
		b.WriteString("\n")
	}

	nameWidth := 12
	for _, v := range m.views {
		nameWidth = max(nameWidth, lipgloss.Width(v.Name))
	}

	for _, v := range m.views {
		b.WriteString(m.renderRow(v, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.RenderSummary(m.summary))
	b.WriteString("\n")

	if m.message != "" && time.Now().Before(m.messageExpiry) {
		b.WriteString(m.messageStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m stagingModel) renderRow(v domain.FileView, nameWidth int) string {
	badge := ui.StatusBadge(v.Status)
	if v.Status == domain.StatusNegotiating {
		badge = ui.StatusStyle(v.Status).Render(m.spinner.View() + " " + v.Status.String())
	}

	detail := ui.FormatMuted(v.Identifier)
	if v.Status == domain.StatusFailed {
		detail = ui.StyleError.Render(v.Error)
	}

	return fmt.Sprintf("  %s  %s  %s %3d%%  %s",
		padRight(v.Name, nameWidth),
		padRight(badge, 16),
		m.bar.ViewAs(float64(v.Progress)/100),
		v.Progress,
		detail,
	)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
