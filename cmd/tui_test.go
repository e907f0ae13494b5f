package cmd

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// fakeRows is a fixed row source
type fakeRows struct {
	views []domain.FileView
}

func (f *fakeRows) Rows() []domain.FileView {
	return append([]domain.FileView(nil), f.views...)
}

func (f *fakeRows) Identifiers() map[string]string {
	ids := make(map[string]string)
	for _, v := range f.views {
		if v.Status == domain.StatusNegotiated {
			ids[v.Name] = v.Identifier
		}
	}
	return ids
}

type fakeResetter struct {
	rows  *fakeRows
	calls int
}

func (f *fakeResetter) Reset() {
	f.calls++
	f.rows.views = nil
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestStagingModelInitialization(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "a.txt", Status: domain.StatusWaiting},
	}}

	m := newStagingModel("Staging", rows, nil, nil, true)

	if len(m.views) != 1 {
		t.Errorf("Expected 1 row, got %d", len(m.views))
	}
	if m.summary.Pending() != 1 {
		t.Errorf("Expected 1 pending file, got %d", m.summary.Pending())
	}
	if m.done() {
		t.Error("Expected model not to be done with a waiting file")
	}
}

func TestStagingModelQuitsWhenDone(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "a.txt", Status: domain.StatusNegotiating},
	}}
	changes := make(chan struct{}, 1)
	m := newStagingModel("Staging", rows, nil, changes, true)

	rows.views[0] = domain.FileView{ID: "1", Name: "a.txt", Status: domain.StatusNegotiated, Progress: 25, Identifier: "id-1"}
	updated, cmd := m.Update(changedMsg{})
	m = updated.(stagingModel)

	if m.views[0].Status != domain.StatusNegotiated {
		t.Errorf("Expected refreshed row, got %v", m.views[0].Status)
	}
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg once every file is terminal")
	}
}

func TestStagingModelKeepsWaitingWhilePending(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "a.txt", Status: domain.StatusNegotiating},
	}}
	changes := make(chan struct{}, 1)
	m := newStagingModel("Watching", rows, nil, changes, true)

	_, cmd := m.Update(changedMsg{})
	if cmd == nil {
		t.Fatal("Expected a command waiting for the next change")
	}

	changes <- struct{}{}
	if _, ok := cmd().(changedMsg); !ok {
		t.Error("Expected the wait command to yield changedMsg")
	}
}

func TestStagingModelWatchModeDoesNotQuit(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "a.txt", Status: domain.StatusFailed, Error: domain.NegotiationFailedMessage},
	}}
	changes := make(chan struct{}, 1)
	m := newStagingModel("Watching", rows, nil, changes, false)

	_, cmd := m.Update(changedMsg{})
	changes <- struct{}{}
	if _, ok := cmd().(tea.QuitMsg); ok {
		t.Error("Watch mode must keep running after files finish")
	}
}

func TestStagingModelQuitKey(t *testing.T) {
	m := newStagingModel("Staging", &fakeRows{}, nil, nil, true)

	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestStagingModelResetKey(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "a.txt", Status: domain.StatusNegotiated, Identifier: "id-1"},
	}}
	reset := &fakeResetter{rows: rows}
	m := newStagingModel("Watching", rows, reset, nil, false)

	updated, cmd := m.Update(runeKey('r'))
	m = updated.(stagingModel)

	if reset.calls != 1 {
		t.Errorf("Expected Reset to be called once, got %d", reset.calls)
	}
	if len(m.views) != 0 {
		t.Errorf("Expected empty list after reset, got %d rows", len(m.views))
	}
	if msg, ok := cmd().(statusMsg); !ok || msg.message != "List cleared" {
		t.Errorf("Expected status message, got %#v", msg)
	}
}

func TestStagingModelResetKeyWithoutResetter(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{{ID: "1", Name: "a.txt"}}}
	m := newStagingModel("Staging", rows, nil, nil, true)

	updated, _ := m.Update(runeKey('r'))
	if len(updated.(stagingModel).views) != 1 {
		t.Error("Rows must stay when the view cannot reset")
	}
}

func TestStagingModelCopyWithoutIdentifiers(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{{ID: "1", Name: "a.txt", Status: domain.StatusNegotiating}}}
	m := newStagingModel("Staging", rows, nil, nil, true)

	_, cmd := m.Update(runeKey('c'))
	msg, ok := cmd().(statusMsg)
	if !ok || msg.message != "No identifiers yet" {
		t.Errorf("Expected 'No identifiers yet', got %#v", msg)
	}
}

func TestStagingModelView(t *testing.T) {
	rows := &fakeRows{views: []domain.FileView{
		{ID: "1", Name: "report.pdf", Status: domain.StatusNegotiated, Progress: 25, Identifier: "srv-123"},
		{ID: "2", Name: "bad.bin", Status: domain.StatusFailed, Error: domain.NegotiationFailedMessage},
		{ID: "3", Name: "slow.iso", Status: domain.StatusNegotiating},
	}}
	m := newStagingModel("Staging 3 files", rows, nil, nil, true)

	view := m.View()
	for _, want := range []string{"Staging 3 files", "report.pdf", "srv-123", "25%", "bad.bin", "fail to prepare", "slow.iso", "negotiating"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}
}

func TestStagingModelEmptyView(t *testing.T) {
	m := newStagingModel("Watching", &fakeRows{}, nil, nil, false)

	if !strings.Contains(m.View(), "No files staged yet") {
		t.Error("Expected empty state message")
	}
}

func TestStagingModelStatusMessage(t *testing.T) {
	m := newStagingModel("Staging", &fakeRows{}, nil, nil, true)

	updated, _ := m.Update(statusMsg{message: "Identifiers copied"})
	if !strings.Contains(updated.(stagingModel).View(), "Identifiers copied") {
		t.Error("Expected status message in view")
	}
}
