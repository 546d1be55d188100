// Package vector provides the nearest-neighbor index used to find sessions
// similar to a query.
//
// An Index is append-only: every Add assigns the next dense, zero-based
// position and positions never change for the lifetime of the index.
// Callers keep their own position-aligned side records and depend only on
// the ordering Search returns, never on the absolute distance values, so an
// approximate backend can replace the exact one.
package vector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Neighbor is a single search hit.
type Neighbor struct {
	// Position is the index position assigned by Add.
	Position int

	// Distance is the Euclidean distance to the query; lower is closer.
	// Backends may report squared distance as long as ordering is preserved.
	Distance float32
}

// Index stores vectors and answers k-nearest-neighbor queries.
type Index interface {
	// Add appends a vector and returns the position assigned to it.
	Add(ctx context.Context, vec []float32) (int, error)

	// Search returns up to k neighbors of query sorted by ascending distance,
	// ties broken by ascending position. An empty index or k <= 0 yields an
	// empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Len is the number of vectors added so far.
	Len() int

	// Dimensions is the vector length the index accepts.
	Dimensions() uint

	// Reset removes every vector so the index can be rebuilt from scratch.
	Reset(ctx context.Context) error

	// Close releases any resources held by the index.
	Close() error
}

// CheckDimensions returns ErrDimensionMismatch when vec does not have dims entries.
func CheckDimensions(vec []float32, dims uint) error {
	if uint(len(vec)) != dims {
		return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(vec), dims)
	}
	return nil
}

// SortNeighbors orders neighbors by ascending distance, then position.
func SortNeighbors(ns []Neighbor) {
	slices.SortFunc(ns, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
}
