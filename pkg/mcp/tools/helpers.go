package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// optionalString returns a trimmed string argument or "" when absent.
func optionalString(req mcp.CallToolRequest, name string) string {
	return trimString(req.GetString(name, ""))
}

// stringList reads an array argument, accepting a comma-separated string too.
func stringList(req mcp.CallToolRequest, name string) []string {
	raw, ok := req.GetArguments()[name]
	if !ok {
		return nil
	}

	var out []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && trimString(s) != "" {
				out = append(out, trimString(s))
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if p := trimString(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
