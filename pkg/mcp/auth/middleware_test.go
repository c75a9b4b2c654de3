package mcpauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/config"
	"github.com/gipoly/gipoly-engine/pkg/testhelpers"
)

// mockAuthService is a mock implementation of auth.AuthService for testing.
type mockAuthService struct {
	claims      *auth.Claims
	token       string
	validateErr error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	return m.claims, m.token, nil
}

func userClaims() *auth.Claims {
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
}

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	claims := userClaims()
	middleware := NewMiddleware(&mockAuthService{claims: claims, token: "test-token"}, zap.NewNop())

	var gotClaims *auth.Claims
	var gotToken string
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = auth.GetClaims(r.Context())
		gotToken, _ = auth.GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp/workspaces/acme", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, claims, gotClaims)
	assert.Equal(t, "test-token", gotToken)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestMiddleware_RequireAuth_InvalidToken(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: auth.ErrMissingAuthorization}, zap.NewNop())

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp/workspaces/acme", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t,
		`Bearer error="invalid_token", error_description="The access token is invalid or expired"`,
		rec.Header().Get("WWW-Authenticate"))
}

func TestMiddleware_RequireAuth_NonUserSubject(t *testing.T) {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "service-account"}}
	middleware := NewMiddleware(&mockAuthService{claims: claims}, zap.NewNop())

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp/workspaces/acme", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestMiddleware_RequireAuth_UnverifiedTokenEndToEnd(t *testing.T) {
	validator, err := auth.NewTokenValidator(context.Background(), config.AuthConfig{EnableVerification: false})
	require.NoError(t, err)
	middleware := NewMiddleware(auth.NewAuthService(validator, "gipoly_jwt", zap.NewNop()), zap.NewNop())

	userID := uuid.New()
	var gotUser string
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.GetClaims(r.Context())
		gotUser = claims.Subject
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp/workspaces/acme", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID.String(), "owner@example.com"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), gotUser)
}
