// Package ollama implements llm.Caller with the Ollama generate API.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default completion model.
	DefaultModel = "llama2"

	defaultTimeout = 300 * time.Second
)

// Caller completes prompts with a local Ollama server.
type Caller struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

// Config holds configuration for the Ollama caller.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// HTTPClient overrides the default client with a 300s timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewCaller creates a new Ollama caller.
func NewCaller(c Config) (*Caller, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url %q: %w", baseURL, err)
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Caller{
		client: api.NewClient(u, httpClient),
		model:  model,
		logger: logger.OrNop(c.Logger),
	}, nil
}

// Complete runs a non-streaming generate request.
func (c *Caller) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var b strings.Builder
	start := time.Now()
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %v", llm.ErrCompletion, err)
	}

	c.logger.Debug("ollama completion",
		"model", c.model,
		"prompt_chars", len(prompt),
		"completion_chars", b.Len(),
		"duration", time.Since(start),
	)
	return b.String(), nil
}

var _ llm.Caller = (*Caller)(nil)
