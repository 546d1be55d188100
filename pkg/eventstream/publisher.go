package eventstream

import "context"

// Publisher publishes session events to an event stream backend.
type Publisher interface {
	PublishSessionSaved(ctx context.Context, event *SessionSavedEvent) error
	Close() error
}
