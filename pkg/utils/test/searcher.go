package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/advisor/pkg/websearch"
)

// MockSearcher returns the same results for every query.
type MockSearcher struct {
	Results []websearch.Result
	Err     error

	mu      sync.Mutex
	queries []string
}

func NewMockSearcher(results ...websearch.Result) *MockSearcher {
	return &MockSearcher{Results: results}
}

func (m *MockSearcher) Search(_ context.Context, query string, maxResults int) ([]websearch.Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if maxResults > 0 && len(m.Results) > maxResults {
		return m.Results[:maxResults], nil
	}
	return m.Results, nil
}

// Queries returns every query received so far.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
