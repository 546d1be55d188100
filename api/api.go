package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

// Store is the knowledge store as seen by the API.
type Store interface {
	SaveSession(ctx context.Context, in knowledge.SaveSessionInput) (*session.Record, error)
	RetrieveSimilarSessions(ctx context.Context, query string, topK int) ([]knowledge.Match, error)
	Clients() []string
	Sessions(client string) []session.Record
	Session(client, sessionID string) (*session.Record, error)
	Stats() knowledge.Stats
}

// Server is the API server for saving and querying advisory sessions.
type Server struct {
	config Config
	store  Store
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The store is shared with the rest of
// the process, so it is not closed by the server.
func NewServer(config Config, store Store, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	s := &Server{
		config: config,
		store:  store,
		logger: logger.OrNop(log),
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/stats", s.handleStats)
	v1.Post("/sessions", s.handleSaveSession)
	v1.Get("/clients", s.handleListClients)
	v1.Get("/clients/:name/sessions", s.handleListSessions)
	v1.Get("/clients/:name/sessions/:id", s.handleGetSession)
	v1.Get("/search", s.handleSearch)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
