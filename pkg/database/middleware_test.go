package database

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

func TestWithTenantContext_RequiresWorkspace(t *testing.T) {
	called := false
	handler := WithTenantContext(nil, zap.NewNop())(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/workspaces/acme/tools/trend-agent/analyses?lang=tr", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
	assert.NotEmpty(t, body["detail"])
}

func TestWithTenantContext_BindsWithoutHoldingConnection(t *testing.T) {
	ws := &models.Workspace{ID: uuid.New(), Slug: "acme"}

	var binding tenantBinding
	var held bool
	handler := WithTenantContext(nil, zap.NewNop())(func(w http.ResponseWriter, r *http.Request) {
		binding, _ = r.Context().Value(tenantBindingKey).(tenantBinding)
		_, held = GetTenantScope(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/acme/tools/trend-agent/suggest", nil)
	req = req.WithContext(auth.WithWorkspace(req.Context(), ws))
	handler(httptest.NewRecorder(), req)

	assert.Equal(t, ws.ID, binding.workspaceID)
	assert.False(t, held, "no connection is taken before a repository needs one")
}

func TestAcquire_ReusesHeldScope(t *testing.T) {
	held := &TenantScope{WorkspaceID: uuid.New()}
	ctx := SetTenantScope(context.Background(), held)

	scope, release, err := Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, held, scope)
	release()
}

func TestAcquire_NoScope(t *testing.T) {
	_, _, err := Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNoTenantScope)

	_, _, err = Acquire(BindTenant(context.Background(), nil, uuid.New()))
	assert.ErrorIs(t, err, ErrNoTenantScope)
}
