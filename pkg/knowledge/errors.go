package knowledge

import "errors"

var (
	// ErrDuplicateSession is returned when a client already has a session
	// with the given id.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrSessionOrder is returned when a session id does not sort after the
	// client's latest session id.
	ErrSessionOrder = errors.New("session id out of order")

	// ErrIndexBehind is returned when a session was persisted but could not
	// be added to the vector index. It is searchable after the next rebuild.
	ErrIndexBehind = errors.New("session persisted but not indexed")

	// ErrSessionNotFound is returned by lookups of unknown sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("knowledge store closed")
)
