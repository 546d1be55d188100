package eventstream

import "errors"

var (
	// ErrNilSessionEvent indicates a nil session event payload was provided to a publisher.
	ErrNilSessionEvent = errors.New("nil session event")

	// ErrPublish wraps transport failures.
	ErrPublish = errors.New("publishing event failed")
)
