// Package mcp provides an MCP (Model Context Protocol) server that lets
// agents consult past advisory sessions.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/utils"
)

// Store is the part of the knowledge store exposed as tools.
type Store interface {
	RetrieveSimilarSessions(ctx context.Context, query string, topK int) ([]knowledge.Match, error)
	Sessions(client string) []session.Record
}

type Config struct {
	Store Store

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the session tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "advisor",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Store == nil {
			return nil, errors.New("knowledge store is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        retrieveToolName,
			Description: retrieveDescription,
		}, s.handleRetrieve)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listToolName,
			Description: listDescription,
		}, s.handleListSessions)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
