package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/session"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ClientsResponse lists the clients with stored sessions.
type ClientsResponse struct {
	Clients []string `json:"clients"`
	Count   int      `json:"count"`
}

// SessionsResponse lists one client's sessions in save order.
type SessionsResponse struct {
	ClientName string           `json:"client_name"`
	Sessions   []session.Record `json:"sessions"`
	Count      int              `json:"count"`
}

// SearchResponse holds the matches for a query, nearest first.
type SearchResponse struct {
	Query   string            `json:"query"`
	TopK    int               `json:"top_k"`
	Matches []knowledge.Match `json:"matches"`
	Count   int               `json:"count"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStats returns the size and alignment of the knowledge store.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.store.Stats())
}

// handleSaveSession handles POST /v1/sessions.
func (s *Server) handleSaveSession(c *fiber.Ctx) error {
	var in knowledge.SaveSessionInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid session body: "+err.Error())
	}

	rec, err := s.store.SaveSession(c.UserContext(), in)
	if err != nil {
		status := saveStatus(err)
		if status == fiber.StatusInternalServerError {
			s.logger.Error("saving session failed", "client", in.ClientName, "error", err)
		}
		return errorJSON(c, status, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

func saveStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, knowledge.ErrDuplicateSession), errors.Is(err, knowledge.ErrSessionOrder):
		return fiber.StatusConflict
	case errors.Is(err, knowledge.ErrClosed):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleListClients(c *fiber.Ctx) error {
	clients := s.store.Clients()
	return c.JSON(ClientsResponse{Clients: clients, Count: len(clients)})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	name := c.Params("name")
	sessions := s.store.Sessions(name)
	if len(sessions) == 0 {
		return errorJSON(c, fiber.StatusNotFound, "client not found")
	}
	return c.JSON(SessionsResponse{ClientName: name, Sessions: sessions, Count: len(sessions)})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	rec, err := s.store.Session(c.Params("name"), c.Params("id"))
	if err != nil {
		if errors.Is(err, knowledge.ErrSessionNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "session not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(rec)
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 3): number of results to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "query parameter is required")
	}

	topK := DefaultTopK
	if raw := c.Query("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return errorJSON(c, fiber.StatusBadRequest, "top_k must be a positive integer")
		}
		topK = parsed
	}

	matches, err := s.store.RetrieveSimilarSessions(c.UserContext(), query, topK)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		if errors.Is(err, knowledge.ErrClosed) {
			return errorJSON(c, fiber.StatusServiceUnavailable, err.Error())
		}
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(SearchResponse{Query: query, TopK: topK, Matches: matches, Count: len(matches)})
}
