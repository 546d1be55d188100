package sessionlog

import "errors"

var (
	// ErrCorrupt is returned when the session file exists but cannot be
	// read or parsed.
	ErrCorrupt = errors.New("session log corrupt")

	// ErrPersist is returned when the document could not be written.
	ErrPersist = errors.New("session log write failed")
)
