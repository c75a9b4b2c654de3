package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

// ParseAnalysisID extracts and validates the analysis ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseAnalysisID(w http.ResponseWriter, r *http.Request, tool models.ToolKind, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		// A malformed id can never match a stored analysis.
		writeLocalizedError(w, r, http.StatusNotFound, "not_found", toolMessages(tool).notFound, logger)
		return uuid.Nil, false
	}
	return id, true
}

// ParseTool resolves the {tool} path segment.
// Expects path parameter: tool
func ParseTool(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.ToolKind, bool) {
	tool, ok := models.ParseToolSlug(r.PathValue("tool"))
	if !ok {
		writeLocalizedError(w, r, http.StatusNotFound, "not_found", "not_found", logger)
		return "", false
	}
	return tool, true
}
