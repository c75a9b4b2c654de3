package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/validation"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as tool results so the calling model
// sees them instead of a bare protocol failure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad arguments, quota, missing
// analysis). System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceErrorResult converts an analysis service error into a tool result.
// It returns nil for errors that are not the caller's to fix; those travel
// back as protocol errors.
func serviceErrorResult(tool models.ToolKind, lang string, err error) *mcp.CallToolResult {
	var vErr *validation.Error

	switch {
	case errors.As(err, &vErr):
		return NewErrorResultWithDetails("validation_error", localization.Message("validation_error", lang), vErr.Fields)
	case errors.Is(err, apperrors.ErrLimitExceeded):
		return NewErrorResult("limit_exceeded", localization.Message(limitMessageKey(tool), lang))
	case errors.Is(err, apperrors.ErrUnsafeInput):
		return NewErrorResult("unsafe_input", localization.Message("unsafe_input", lang))
	case errors.Is(err, apperrors.ErrInvalidInput) && tool == models.ToolSEOStrategist:
		return NewErrorResult("page_fetch_failed", localization.Message("page_fetch_failed", lang))
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", localization.Message("validation_error", lang))
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", localization.Message("analysis_not_found", lang))
	case llm.IsQuotaExceeded(err):
		return NewErrorResult("ai_quota_exceeded", localization.Message("ai_quota_exceeded", lang))
	}
	return nil
}

func limitMessageKey(tool models.ToolKind) string {
	switch tool {
	case models.ToolTrendAgent:
		return "trend_suggestion_limit_reached"
	case models.ToolSEOStrategist:
		return "seo_analysis_limit_reached"
	default:
		return "workspace_limit_reached"
	}
}
