// Package ollama implements pkg/embeddings' Embedder client for Ollama's embedding APIs
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/advisor/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "all-minilm"

	// DefaultDimensions is the output size of DefaultEmbeddingModel.
	DefaultDimensions = 384

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	defaultTimeout = 120 * time.Second
)

// Embedder embeds session text with an Ollama embedding model.
type Embedder struct {
	client     *api.Client
	model      string
	dimensions uint
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use (e.g., "all-minilm", "nomic-embed-text").
	// Defaults to DefaultEmbeddingModel if empty.
	Model string

	// Dimensions is the vector size the model produces. Responses of any
	// other size are rejected. Defaults to DefaultDimensions if zero.
	Dimensions uint

	// Timeout bounds a single embedding request. Defaults to 120s.
	Timeout time.Duration
}

// NewEmbedder creates a new embedder using Ollama's embedding API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url %q: %w", baseURL, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Embedder{
		client:     api.NewClient(u, &http.Client{Timeout: timeout}),
		model:      model,
		dimensions: dims,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts with a single /api/embed request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := embeddings.ValidateInput(texts); err != nil {
		return nil, err
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %v", embeddings.ErrEmbedding, err)
	}

	if err := embeddings.ValidateOutput(resp.Embeddings, len(texts), e.dimensions); err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() uint {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
