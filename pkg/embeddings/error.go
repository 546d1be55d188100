package embeddings

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmptyText is returned for empty or whitespace-only input.
	ErrEmptyText = errors.New("empty text cannot be embedded")

	// ErrDimensionMismatch is returned when a vector does not have the
	// configured number of dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
