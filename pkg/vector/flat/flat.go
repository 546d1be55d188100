// Package flat provides an exact, in-memory vector.Index.
//
// Search computes the distance from the query to every stored vector, which
// is the right trade-off for the tens to low thousands of sessions a single
// advisor process holds.
package flat

import (
	"context"
	"math"
	"sync"

	"github.com/papercomputeco/advisor/pkg/vector"
)

// Index is a brute-force Euclidean index.
type Index struct {
	dims uint

	mu      sync.RWMutex
	vectors [][]float32
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dims uint) *Index {
	return &Index{dims: dims}
}

// Add appends a copy of vec.
func (i *Index) Add(_ context.Context, vec []float32) (int, error) {
	if err := vector.CheckDimensions(vec, i.dims); err != nil {
		return 0, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.vectors = append(i.vectors, append([]float32(nil), vec...))
	return len(i.vectors) - 1, nil
}

// Search returns the k nearest vectors to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if k <= 0 || len(i.vectors) == 0 {
		return []vector.Neighbor{}, nil
	}
	if err := vector.CheckDimensions(query, i.dims); err != nil {
		return nil, err
	}

	neighbors := make([]vector.Neighbor, len(i.vectors))
	for pos, v := range i.vectors {
		if pos%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		neighbors[pos] = vector.Neighbor{
			Position: pos,
			Distance: vector.SquaredL2(query, v),
		}
	}

	vector.SortNeighbors(neighbors)
	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}

	for n := range neighbors {
		neighbors[n].Distance = float32(math.Sqrt(float64(neighbors[n].Distance)))
	}
	return neighbors, nil
}

// Len returns the number of stored vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vectors)
}

// Dimensions returns the vector length the index accepts.
func (i *Index) Dimensions() uint {
	return i.dims
}

// Reset drops all vectors.
func (i *Index) Reset(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vectors = nil
	return nil
}

// Close is a no-op for the in-memory index.
func (i *Index) Close() error {
	return nil
}

var _ vector.Index = (*Index)(nil)
