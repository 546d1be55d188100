// Package llm is the boundary to the language models that drive the
// advisor, analyst and client agents.
package llm

import "context"

// Caller sends a single prompt to a model and returns its text completion.
type Caller interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
