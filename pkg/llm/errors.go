package llm

import "errors"

var (
	// ErrCompletion wraps any failure talking to a model.
	ErrCompletion = errors.New("llm completion failed")

	// ErrNoJSONArray is returned when a completion holds no [...] span.
	ErrNoJSONArray = errors.New("no JSON array found")

	// ErrNoJSONObject is returned when a completion holds no {...} span.
	ErrNoJSONObject = errors.New("no JSON object found")
)
