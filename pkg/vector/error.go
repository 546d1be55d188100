package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrConnection is returned when a remote index cannot be reached.
	ErrConnection = errors.New("vector index connection failed")

	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("vector index closed")
)
