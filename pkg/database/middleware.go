package database

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/localization"
)

// WithTenantContext binds the resolved workspace to the request for RLS. It
// runs after the workspace middleware and holds no connection; each
// repository call acquires its own through Acquire.
func WithTenantContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ws, ok := auth.GetWorkspace(r.Context())
			if !ok {
				logger.Error("Missing workspace in request context")
				writeError(w, r, http.StatusInternalServerError, "internal_error")
				return
			}

			next(w, r.WithContext(BindTenant(r.Context(), db, ws.ID)))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  errorCode,
		"detail": localization.FromRequest(r, "internal_server_error"),
	})
}
