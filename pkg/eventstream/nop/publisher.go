package nop

import (
	"context"

	"github.com/papercomputeco/advisor/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSessionSaved validates input and otherwise does nothing.
func (p *Publisher) PublishSessionSaved(_ context.Context, event *eventstream.SessionSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
