package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/advisor/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	// FailPublish causes PublishSessionSaved to return an error.
	FailPublish bool

	mu     sync.Mutex
	events []*eventstream.SessionSavedEvent
	closed bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishSessionSaved(_ context.Context, event *eventstream.SessionSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}
	if m.FailPublish {
		return errors.New("mock publish failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the events published so far.
func (m *MockPublisher) Events() []*eventstream.SessionSavedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.SessionSavedEvent(nil), m.events...)
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
