// Package openai implements llm.Caller with the OpenAI chat completions API
// or any server compatible with it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// DefaultModel is the default chat model.
const DefaultModel = goopenai.GPT4oMini

// Caller completes prompts with a single user message.
type Caller struct {
	client *goopenai.Client
	model  string
	logger *slog.Logger
}

// Config holds configuration for the OpenAI caller.
type Config struct {
	APIKey string

	// BaseURL overrides the OpenAI endpoint, e.g. for a local gateway.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	Logger *slog.Logger
}

// NewCaller creates a new OpenAI caller.
func NewCaller(c Config) (*Caller, error) {
	if c.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	config := goopenai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	return &Caller{
		client: goopenai.NewClientWithConfig(config),
		model:  model,
		logger: logger.OrNop(c.Logger),
	}, nil
}

// Complete sends prompt as a user message and returns the first choice.
func (c *Caller) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %v", llm.ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", llm.ErrCompletion)
	}

	c.logger.Debug("openai completion",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

var _ llm.Caller = (*Caller)(nil)
