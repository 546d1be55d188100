// Package embeddings provides text embedding capabilities.
package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// Embedder maps text to fixed-length vectors. Identical text always maps to
// the same vector for a given model.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts each text into a vector embedding. The result
	// holds exactly one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector this embedder returns.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}

// ValidateInput applies the shared empty-input policy: an empty batch, or
// any text that is empty or only whitespace, is rejected with ErrEmptyText.
func ValidateInput(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts given", ErrEmptyText)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: text at index %d", ErrEmptyText, i)
		}
	}
	return nil
}

// ValidateOutput checks that an embedder produced one vector of the
// expected dimension per input.
func ValidateOutput(vectors [][]float32, inputs int, dims uint) error {
	if len(vectors) != inputs {
		return fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbedding, len(vectors), inputs)
	}
	for i, v := range vectors {
		if uint(len(v)) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dims)
		}
	}
	return nil
}
