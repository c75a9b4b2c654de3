package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/validation"
)

// toolMessageKeys are the catalog keys each tool reports errors with.
type toolMessageKeys struct {
	limitReached string
	failed       string
	notFound     string
	deleted      string
}

func toolMessages(tool models.ToolKind) toolMessageKeys {
	switch tool {
	case models.ToolTrendAgent:
		return toolMessageKeys{
			limitReached: "trend_suggestion_limit_reached",
			failed:       "trend_analysis_error",
			notFound:     "suggestion_not_found",
			deleted:      "suggestion_deleted",
		}
	case models.ToolSEOStrategist:
		return toolMessageKeys{
			limitReached: "seo_analysis_limit_reached",
			failed:       "seo_analysis_error",
			notFound:     "analysis_not_found",
			deleted:      "analysis_deleted",
		}
	default:
		return toolMessageKeys{
			limitReached: "workspace_limit_reached",
			failed:       "adcreative_generation_error",
			notFound:     "analysis_not_found",
			deleted:      "analysis_deleted",
		}
	}
}

// writeServiceError maps a service error onto a status code and a localized
// detail. Internal error text is only logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, tool models.ToolKind, err error, logger *zap.Logger) {
	keys := toolMessages(tool)
	var vErr *validation.Error

	switch {
	case errors.Is(err, apperrors.ErrLimitExceeded):
		writeLocalizedError(w, r, http.StatusBadRequest, "limit_exceeded", keys.limitReached, logger)
	case errors.Is(err, apperrors.ErrUnsafeInput):
		writeLocalizedError(w, r, http.StatusBadRequest, "unsafe_input", "unsafe_input", logger)
	case errors.As(err, &vErr):
		body := ErrorBody{
			Detail: localization.FromRequest(r, "validation_error"),
			Error:  "validation_error",
			Fields: vErr.Fields,
		}
		if err := WriteJSON(w, http.StatusBadRequest, body); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	case errors.Is(err, apperrors.ErrInvalidInput) && tool == models.ToolSEOStrategist:
		// The URL audit reports an unreachable page as invalid input.
		writeLocalizedError(w, r, http.StatusBadRequest, "page_fetch_failed", "page_fetch_failed", logger)
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeLocalizedError(w, r, http.StatusBadRequest, "validation_error", "validation_error", logger)
	case errors.Is(err, apperrors.ErrNotFound):
		writeLocalizedError(w, r, http.StatusNotFound, "not_found", keys.notFound, logger)
	case llm.IsQuotaExceeded(err):
		logger.Warn("AI provider quota exhausted",
			zap.String("tool", string(tool)),
			zap.String("error", logging.SanitizeError(err)))
		writeLocalizedError(w, r, http.StatusTooManyRequests, "ai_quota_exceeded", "ai_quota_exceeded", logger)
	default:
		logger.Error("Tool request failed",
			zap.String("tool", string(tool)),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		writeLocalizedError(w, r, http.StatusInternalServerError, "generation_failed", keys.failed, logger)
	}
}
