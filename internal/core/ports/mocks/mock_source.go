package mocks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// MockFileSource is a mock implementation of the FileSource interface for testing
type MockFileSource struct {
	mu    sync.RWMutex
	files map[string]domain.FileHandle
}

// NewMockFileSource creates a new mock file source
func NewMockFileSource() *MockFileSource {
	return &MockFileSource{
		files: make(map[string]domain.FileHandle),
	}
}

// Add registers a path with the given content type
func (m *MockFileSource) Add(path, contentType string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = domain.FileHandle{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        size,
		Path:        path,
	}
}

// Open implements ports.FileSource
func (m *MockFileSource) Open(ctx context.Context, path string) (domain.FileHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.files[path]
	if !ok {
		return domain.FileHandle{}, fmt.Errorf("file not found: %s", path)
	}
	return h, nil
}
