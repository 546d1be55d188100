// Package duckduckgo implements websearch.Searcher over the DuckDuckGo
// Instant Answer API.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/websearch"
)

const (
	// DefaultBaseURL is the Instant Answer endpoint.
	DefaultBaseURL = "https://api.duckduckgo.com/"

	defaultTimeout = 15 * time.Second
)

// Config holds configuration for the DuckDuckGo searcher.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	HTTPClient *http.Client

	Logger *slog.Logger
}

// Searcher queries DuckDuckGo.
type Searcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSearcher creates a new DuckDuckGo searcher.
func NewSearcher(c Config) *Searcher {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Searcher{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.OrNop(c.Logger),
	}
}

type topic struct {
	Text     string  `json:"Text"`
	FirstURL string  `json:"FirstURL"`
	Name     string  `json:"Name"`
	Topics   []topic `json:"Topics"`
}

type instantAnswer struct {
	Heading       string  `json:"Heading"`
	AbstractText  string  `json:"AbstractText"`
	AbstractURL   string  `json:"AbstractURL"`
	Results       []topic `json:"Results"`
	RelatedTopics []topic `json:"RelatedTopics"`
}

// Search returns up to maxResults hits: the abstract first, then direct
// results, then related topics. maxResults <= 0 uses the package default.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	if maxResults <= 0 {
		maxResults = websearch.DefaultMaxResults
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing base url: %v", websearch.ErrSearch, err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", websearch.ErrSearch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", websearch.ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", websearch.ErrSearch, resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", websearch.ErrSearch, err)
	}

	results := collect(answer, maxResults)
	s.logger.Debug("duckduckgo search", "query", query, "results", len(results))
	return results, nil
}

func collect(answer instantAnswer, maxResults int) []websearch.Result {
	results := make([]websearch.Result, 0, maxResults)
	add := func(r websearch.Result) bool {
		if len(results) >= maxResults {
			return false
		}
		results = append(results, r)
		return true
	}

	if answer.AbstractText != "" {
		add(websearch.Result{
			Title:   answer.Heading,
			Snippet: answer.AbstractText,
			URL:     answer.AbstractURL,
		})
	}

	var walk func(ts []topic) bool
	walk = func(ts []topic) bool {
		for _, t := range ts {
			if len(t.Topics) > 0 {
				if !walk(t.Topics) {
					return false
				}
				continue
			}
			if t.Text == "" {
				continue
			}
			title, snippet, found := strings.Cut(t.Text, " - ")
			if !found {
				title, snippet = "", t.Text
			}
			if !add(websearch.Result{Title: title, Snippet: snippet, URL: t.FirstURL}) {
				return false
			}
		}
		return true
	}

	if walk(answer.Results) {
		walk(answer.RelatedTopics)
	}
	return results
}

var _ websearch.Searcher = (*Searcher)(nil)
