package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestTrimString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
		{"both sides whitespace", "  test  ", "test"},
		{"mixed whitespace", " \t\ntest\n\t ", "test"},
		{"no whitespace", "test", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trimString(tt.input))
		})
	}
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestOptionalString(t *testing.T) {
	req := toolRequest(map[string]any{"category": "  Toys ", "count": 3})

	assert.Equal(t, "Toys", optionalString(req, "category"))
	assert.Equal(t, "", optionalString(req, "missing"))
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{name: "array", value: []any{"a", " b ", ""}, want: []string{"a", "b"}},
		{name: "comma string", value: "a, b,,c", want: []string{"a", "b", "c"}},
		{name: "non string items", value: []any{1, "x"}, want: []string{"x"}},
		{name: "wrong type", value: 42, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringList(toolRequest(map[string]any{"interests": tt.value}), "interests"))
		})
	}

	assert.Nil(t, stringList(toolRequest(nil), "interests"))
}
