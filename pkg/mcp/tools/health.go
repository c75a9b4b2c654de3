package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gipoly/gipoly-engine/pkg/auth"
)

type healthResult struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Workspace string `json:"workspace,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version and the caller's workspace.
func RegisterHealthTool(s *server.MCPServer, version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if ws, ok := auth.GetWorkspace(ctx); ok {
			result.Workspace = ws.Slug
		}
		return jsonResult(result)
	})
}
