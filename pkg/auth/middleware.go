package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

// WorkspaceResolver looks up a workspace by slug and confirms membership.
// It returns apperrors.ErrNotFound for an unknown slug and
// apperrors.ErrForbidden when the user is not a member.
type WorkspaceResolver interface {
	ResolveWorkspace(ctx context.Context, slug string, userID uuid.UUID) (*models.Workspace, error)
}

// Middleware provides HTTP authentication middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and requires the subject to be a user UUID.
// Sets claims and token in context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		if _, err := uuid.Parse(claims.Subject); err != nil {
			m.logger.Debug("Token subject is not a user id", zap.String("subject", claims.Subject))
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	}
}

// RequireWorkspace resolves the workspace named by the {pathParamName} path
// value and checks that the authenticated caller belongs to it.
// Must run after RequireAuth.
func (m *Middleware) RequireWorkspace(resolver WorkspaceResolver, pathParamName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID, err := RequireUserUUIDFromContext(r.Context())
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}

			slug := r.PathValue(pathParamName)
			ws, err := resolver.ResolveWorkspace(r.Context(), slug, userID)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				writeError(w, r, http.StatusNotFound, "workspace_not_found", "workspace_not_found")
				return
			case errors.Is(err, apperrors.ErrForbidden):
				m.logger.Warn("Workspace access denied",
					zap.String("workspace_slug", slug),
					zap.String("user_id", userID.String()))
				writeError(w, r, http.StatusForbidden, "forbidden", "workspace_access_denied")
				return
			case err != nil:
				m.logger.Error("Failed to resolve workspace",
					zap.String("workspace_slug", slug),
					zap.Error(err))
				writeError(w, r, http.StatusInternalServerError, "internal_error", "internal_server_error")
				return
			}

			next(w, r.WithContext(WithWorkspace(r.Context(), ws)))
		}
	}
}

// writeError writes the standard {"detail", "error"} body with a localized detail.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, messageKey string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"detail": localization.FromRequest(r, messageKey),
		"error":  code,
	})
}
