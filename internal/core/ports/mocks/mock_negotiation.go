package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrScriptedFailure is returned for names scripted to fail
var ErrScriptedFailure = errors.New("scripted negotiation failure")

// MockNegotiationClient is a mock implementation of the NegotiationClient interface for testing.
// Each name can be scripted with an identifier or a failure, and optionally
// held until the test releases it.
type MockNegotiationClient struct {
	mu       sync.RWMutex
	ids      map[string]string
	failures map[string]error
	gates    map[string]chan struct{}
	calls    []NegotiateCall
	started  chan string
}

// NegotiateCall records one Negotiate invocation
type NegotiateCall struct {
	Name        string
	ContentType string
}

// NewMockNegotiationClient creates a new mock client.
// Unscripted names succeed with the identifier "id-<name>".
func NewMockNegotiationClient() *MockNegotiationClient {
	return &MockNegotiationClient{
		ids:      make(map[string]string),
		failures: make(map[string]error),
		gates:    make(map[string]chan struct{}),
		started:  make(chan string, 128),
	}
}

// Succeed scripts name to return id
func (m *MockNegotiationClient) Succeed(name, id string) *MockNegotiationClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ids[name] = id
	delete(m.failures, name)
	return m
}

// Fail scripts name to fail with err (ErrScriptedFailure when nil)
func (m *MockNegotiationClient) Fail(name string, err error) *MockNegotiationClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		err = ErrScriptedFailure
	}
	m.failures[name] = err
	delete(m.ids, name)
	return m
}

// Hold blocks negotiations of name until Release(name) is called
func (m *MockNegotiationClient) Hold(name string) *MockNegotiationClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gates[name] = make(chan struct{})
	return m
}

// Release lets a held negotiation of name complete
func (m *MockNegotiationClient) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gate, ok := m.gates[name]; ok {
		close(gate)
		delete(m.gates, name)
	}
}

// Started delivers the name of each negotiation as it begins
func (m *MockNegotiationClient) Started() <-chan string {
	return m.started
}

// Calls returns a copy of the recorded invocations
func (m *MockNegotiationClient) Calls() []NegotiateCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]NegotiateCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times name was negotiated
func (m *MockNegotiationClient) CallCount(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Negotiate implements ports.NegotiationClient
func (m *MockNegotiationClient) Negotiate(ctx context.Context, name, contentType string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, NegotiateCall{Name: name, ContentType: contentType})
	gate := m.gates[name]
	m.mu.Unlock()

	select {
	case m.started <- name:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.failures[name]; ok {
		return "", err
	}
	if id, ok := m.ids[name]; ok {
		return id, nil
	}
	return fmt.Sprintf("id-%s", name), nil
}
