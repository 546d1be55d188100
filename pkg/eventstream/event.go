package eventstream

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionSaved is emitted after a session is persisted and indexed.
	EventTypeSessionSaved = "advisor.session.saved"
)

// SessionSavedEvent is a transport-neutral event payload for a stored session.
type SessionSavedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	ClientName    string    `json:"client_name"`
	SessionID     string    `json:"session_id"`

	// Position is the session's slot in the vector index.
	Position   int `json:"position"`
	TextLength int `json:"text_length"`
}

// NewSessionSavedEvent stamps a new event with an id and the current time.
func NewSessionSavedEvent(clientName, sessionID string, position, textLength int) (*SessionSavedEvent, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating event id: %w", err)
	}
	return &SessionSavedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeSessionSaved,
		EventID:       id.String(),
		EmittedAt:     time.Now().UTC(),
		ClientName:    clientName,
		SessionID:     sessionID,
		Position:      position,
		TextLength:    textLength,
	}, nil
}
