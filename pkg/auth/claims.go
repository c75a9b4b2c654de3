// Package auth provides JWT-based authentication and workspace membership
// checks for gipoly-engine.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
	// WorkspaceKey is the context key for the workspace resolved from the URL.
	WorkspaceKey contextKey = "workspace"
)

// Claims represents the JWT claims issued by the account service.
// Subject carries the user UUID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithClaims returns ctx carrying claims and the raw token.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}

// WithWorkspace returns ctx carrying the workspace the caller is acting in.
func WithWorkspace(ctx context.Context, ws *models.Workspace) context.Context {
	return context.WithValue(ctx, WorkspaceKey, ws)
}

// GetWorkspace retrieves the workspace placed in context by RequireWorkspace.
func GetWorkspace(ctx context.Context) (*models.Workspace, bool) {
	ws, ok := ctx.Value(WorkspaceKey).(*models.Workspace)
	return ws, ok && ws != nil
}
