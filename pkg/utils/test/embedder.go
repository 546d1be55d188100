package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/advisor/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for text not found in Embeddings.
	Default []float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// FailAll causes every call to return an error.
	FailAll bool

	mu    sync.Mutex
	calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := embeddings.ValidateInput(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailAll || (m.FailOn != "" && text == m.FailOn) {
			return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrEmbedding, text)
		}
		if emb, ok := m.Embeddings[text]; ok {
			out[i] = emb
			continue
		}
		out[i] = m.Default
	}
	return out, nil
}

// Calls returns how many times Embed or EmbedBatch ran.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) Dimensions() uint {
	return uint(len(m.Default))
}

func (m *MockEmbedder) Close() error {
	return nil
}
