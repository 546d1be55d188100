// Package api provides an HTTP API server over the knowledge store of past
// advisory sessions.
package api

import "net/http"

// DefaultTopK is the number of matches returned by /v1/search when top_k is
// not given.
const DefaultTopK = 3

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
