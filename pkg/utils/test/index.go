package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/advisor/pkg/vector"
	"github.com/papercomputeco/advisor/pkg/vector/flat"
)

// ErrMockIndex is returned by MockIndex when a failure is switched on.
var ErrMockIndex = errors.New("mock index failure")

// MockIndex is an exact in-memory index whose operations can be made to fail.
type MockIndex struct {
	*flat.Index

	FailAdd    bool
	FailSearch bool
	FailReset  bool
}

func NewMockIndex(dims uint) *MockIndex {
	return &MockIndex{Index: flat.NewIndex(dims)}
}

func (m *MockIndex) Add(ctx context.Context, vec []float32) (int, error) {
	if m.FailAdd {
		return 0, ErrMockIndex
	}
	return m.Index.Add(ctx, vec)
}

func (m *MockIndex) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if m.FailSearch {
		return nil, ErrMockIndex
	}
	return m.Index.Search(ctx, query, k)
}

func (m *MockIndex) Reset(ctx context.Context) error {
	if m.FailReset {
		return ErrMockIndex
	}
	return m.Index.Reset(ctx)
}

var _ vector.Index = (*MockIndex)(nil)
