package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/mcp"
	mcpauth "github.com/gipoly/gipoly-engine/pkg/mcp/auth"
	"github.com/gipoly/gipoly-engine/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
	}
}

// RegisterRoutes registers the workspace-scoped MCP endpoint.
// Route: /mcp/workspaces/{slug}. Layers from the outside in: method check,
// bearer auth, workspace membership, tenant scope, rate limit, JSON-RPC logging.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, mcpAuth *mcpauth.Middleware, routes ToolRoutes) {
	logged := middleware.MCPRequestLogger(h.logger)(h.httpServer)

	var handler http.HandlerFunc = logged.ServeHTTP
	if routes.RateLimit != nil {
		handler = routes.RateLimit(handler)
	}
	handler = mcpAuth.RequireAuth(routes.Workspace(routes.Tenant(handler)))

	mux.Handle("/mcp/workspaces/{slug}", h.requirePOST(handler))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
