package mocks

import (
	"context"
	"sync"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// MockHealthChecker is a mock implementation of the HealthChecker interface for testing
type MockHealthChecker struct {
	mu    sync.Mutex
	err   error
	calls int
}

// NewMockHealthChecker creates a healthy mock
func NewMockHealthChecker() *MockHealthChecker {
	return &MockHealthChecker{}
}

// SetError makes every Ping return err (nil = healthy)
func (m *MockHealthChecker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Ping implements ports.HealthChecker
func (m *MockHealthChecker) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.err
}

// Calls returns how many times Ping ran
func (m *MockHealthChecker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockReportWriter is a mock implementation of the ReportWriter interface for testing
type MockReportWriter struct {
	mu      sync.Mutex
	written map[string][]domain.FileView
	err     error
}

// NewMockReportWriter creates a new mock report writer
func NewMockReportWriter() *MockReportWriter {
	return &MockReportWriter{
		written: make(map[string][]domain.FileView),
	}
}

// SetError makes every Write fail with err
func (m *MockReportWriter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Write implements ports.ReportWriter
func (m *MockReportWriter) Write(ctx context.Context, path string, views []domain.FileView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.written[path] = append([]domain.FileView(nil), views...)
	return nil
}

// Written returns the views written to path
func (m *MockReportWriter) Written(path string) ([]domain.FileView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.written[path]
	return v, ok
}

// MockFilePicker is a mock implementation of the FilePicker interface for testing
type MockFilePicker struct {
	mu     sync.Mutex
	picked []string
	err    error
	dirs   []string
}

// NewMockFilePicker creates a picker that returns picked for every call
func NewMockFilePicker(picked ...string) *MockFilePicker {
	return &MockFilePicker{picked: picked}
}

// SetError makes every Pick fail with err
func (m *MockFilePicker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Pick implements ports.FilePicker
func (m *MockFilePicker) Pick(ctx context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = append(m.dirs, dir)
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.picked...), nil
}

// Dirs returns the directories Pick was called with
func (m *MockFilePicker) Dirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dirs...)
}
