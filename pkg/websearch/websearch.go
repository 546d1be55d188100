// Package websearch is the boundary to internet search used by the analyst.
package websearch

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxResults matches what the analyst feeds into a summary prompt.
const DefaultMaxResults = 5

// ErrSearch wraps failures talking to a search backend.
var ErrSearch = errors.New("web search failed")

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// String renders the result for use in a prompt.
func (r Result) String() string {
	switch {
	case r.Title != "" && r.URL != "":
		return fmt.Sprintf("%s: %s (%s)", r.Title, r.Snippet, r.URL)
	case r.URL != "":
		return fmt.Sprintf("%s (%s)", r.Snippet, r.URL)
	default:
		return r.Snippet
	}
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
