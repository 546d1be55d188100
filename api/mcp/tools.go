package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/session"
)

const defaultTopK = 3

var (
	retrieveToolName    = "retrieve_similar_sessions"
	retrieveDescription = "Find past financial advisory sessions closest in meaning to the query text. Returns the session text of each match with its Euclidean distance, nearest first."

	listToolName    = "list_client_sessions"
	listDescription = "List the stored advisory sessions of one client in the order they were saved."
)

// RetrieveInput represents the input arguments for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text describing the client situation to match against past sessions"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of sessions to return (default: 3)"`
}

// RetrieveOutput represents the output of the retrieve tool.
type RetrieveOutput struct {
	Query   string            `json:"query"`
	Matches []knowledge.Match `json:"matches"`
	Count   int               `json:"count"`
}

// ListInput represents the input arguments for the list tool.
type ListInput struct {
	ClientName string `json:"client_name" jsonschema:"name of the client whose sessions to list"`
}

// SessionSummary is one stored session without its full profile.
type SessionSummary struct {
	SessionID           string `json:"session_id"`
	Questions           int    `json:"questions"`
	Tasks               int    `json:"tasks"`
	FinalRecommendation string `json:"final_recommendation"`
}

// ListOutput represents the output of the list tool.
type ListOutput struct {
	ClientName string           `json:"client_name"`
	Sessions   []SessionSummary `json:"sessions"`
	Count      int              `json:"count"`
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult serializes the structured output as JSON for the text field as
// well, for clients that ignore structured content.
func textResult(out any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	logger := s.config.Logger

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	logger.Debug("MCP retrieve request", "query", input.Query, "top_k", topK)

	if input.Query == "" {
		return toolError("query is required"), RetrieveOutput{Matches: []knowledge.Match{}}, nil
	}

	matches, err := s.config.Store.RetrieveSimilarSessions(ctx, input.Query, topK)
	if err != nil {
		logger.Error("failed to retrieve sessions", "error", err)
		return toolError("Failed to retrieve sessions: %v", err), RetrieveOutput{Matches: []knowledge.Match{}}, nil
	}

	output := RetrieveOutput{
		Query:   input.Query,
		Matches: matches,
		Count:   len(matches),
	}
	res, err := textResult(output)
	if err != nil {
		return toolError("Failed to serialize results: %v", err), RetrieveOutput{Matches: []knowledge.Match{}}, nil
	}
	return res, output, nil
}

func (s *Server) handleListSessions(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	if input.ClientName == "" {
		return toolError("client_name is required"), ListOutput{Sessions: []SessionSummary{}}, nil
	}

	records := s.config.Store.Sessions(input.ClientName)
	output := ListOutput{
		ClientName: input.ClientName,
		Sessions:   summarize(records),
		Count:      len(records),
	}
	res, err := textResult(output)
	if err != nil {
		return toolError("Failed to serialize results: %v", err), ListOutput{Sessions: []SessionSummary{}}, nil
	}
	return res, output, nil
}

func summarize(records []session.Record) []SessionSummary {
	out := make([]SessionSummary, len(records))
	for i, r := range records {
		out[i] = SessionSummary{
			SessionID:           r.SessionID,
			Questions:           len(r.QATranscript),
			Tasks:               len(r.Tasks),
			FinalRecommendation: r.FinalRecommendation,
		}
	}
	return out
}
