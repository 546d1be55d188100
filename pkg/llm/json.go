package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONArray decodes the span from the first '[' to the last ']' of
// text. Models tend to wrap the array in prose or code fences.
func ExtractJSONArray[T any](text string) ([]T, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return nil, ErrNoJSONArray
	}

	var out []T
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decoding JSON array: %w", err)
	}
	return out, nil
}

// ExtractJSONObject decodes the span from the first '{' to the last '}' of text.
func ExtractJSONObject[T any](text string) (T, error) {
	var out T
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return out, ErrNoJSONObject
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("decoding JSON object: %w", err)
	}
	return out, nil
}
