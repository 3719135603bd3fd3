// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of ptysession.Backend for testing.
type MockBackend struct {
	mock.Mock
	events chan ptysession.Event
}

// Create mocks the Create method. The first return value may be a
// func(context.Context, int, int) string to generate ids per call.
func (m *MockBackend) Create(ctx context.Context, cols, rows int) (string, error) {
	args := m.Called(ctx, cols, rows)
	if fn, ok := args.Get(0).(func(context.Context, int, int) string); ok {
		return fn(ctx, cols, rows), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

// Write mocks the Write method.
func (m *MockBackend) Write(ctx context.Context, sessionID, data string) error {
	args := m.Called(ctx, sessionID, data)
	return args.Error(0)
}

// Resize mocks the Resize method.
func (m *MockBackend) Resize(ctx context.Context, sessionID string, cols, rows int) error {
	args := m.Called(ctx, sessionID, cols, rows)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockBackend) Close(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// Events returns the channel fed by Emit.
func (m *MockBackend) Events() <-chan ptysession.Event {
	return m.events
}

// Emit pushes an event onto the backend's stream.
func (m *MockBackend) Emit(ev ptysession.Event) {
	m.events <- ev
}

// NewMockBackend creates a mock backend with a buffered event stream.
// Close succeeds by default; other methods need explicit expectations.
func NewMockBackend(t *testing.T) *MockBackend {
	t.Helper()
	m := &MockBackend{events: make(chan ptysession.Event, 64)}

	m.On("Close", mock.Anything, mock.Anything).Return(nil).Maybe()

	return m
}

// FakeRenderer records everything written to it.
type FakeRenderer struct {
	mu     sync.Mutex
	writes []string
	cols   int
	rows   int
}

// NewFakeRenderer creates a renderer reporting the given size.
func NewFakeRenderer(cols, rows int) *FakeRenderer {
	return &FakeRenderer{cols: cols, rows: rows}
}

// Write implements ptysession.Renderer.
func (r *FakeRenderer) Write(data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, data)
}

// Size implements ptysession.Renderer.
func (r *FakeRenderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cols, r.rows
}

// SetSize changes the reported size.
func (r *FakeRenderer) SetSize(cols, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cols, r.rows = cols, rows
}

// Writes returns a copy of every write so far.
func (r *FakeRenderer) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// Output returns all writes joined.
func (r *FakeRenderer) Output() string {
	return strings.Join(r.Writes(), "")
}

// Contains reports whether the output contains substr.
func (r *FakeRenderer) Contains(substr string) bool {
	return strings.Contains(r.Output(), substr)
}
