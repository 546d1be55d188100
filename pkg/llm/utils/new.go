package llmutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/ollama"
	"github.com/papercomputeco/advisor/pkg/llm/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type NewCallerOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Logger       *slog.Logger
}

func NewCaller(o *NewCallerOpts) (llm.Caller, error) {
	switch o.ProviderType {
	case "", ProviderOllama:
		return ollama.NewCaller(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Logger:  o.Logger,
		})
	case ProviderOpenAI:
		return openai.NewCaller(openai.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Logger:  o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}
