package testhelpers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

// SeedWorkspace inserts a user, a workspace owned by that user and the owner
// membership. Existing rows with the same ids are left in place.
func (e *EngineDB) SeedWorkspace(t *testing.T, userID, workspaceID uuid.UUID, slug string) *models.Workspace {
	t.Helper()
	ctx := context.Background()

	scope, err := e.DB.WithoutTenant(ctx)
	if err != nil {
		t.Fatalf("failed to create scope for workspace setup: %v", err)
	}
	defer scope.Close()

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, userID, userID.String()+"@example.com")
	if err != nil {
		t.Fatalf("failed to ensure test user: %v", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO workspaces (id, name, slug, owner_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`, workspaceID, "Workspace "+slug, slug, userID)
	if err != nil {
		t.Fatalf("failed to ensure test workspace: %v", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING`, workspaceID, userID, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to ensure workspace membership: %v", err)
	}

	return &models.Workspace{ID: workspaceID, Name: "Workspace " + slug, Slug: slug, OwnerID: userID}
}

// SeedUser inserts a user without any membership.
func (e *EngineDB) SeedUser(t *testing.T, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	scope, err := e.DB.WithoutTenant(ctx)
	if err != nil {
		t.Fatalf("failed to create scope for user setup: %v", err)
	}
	defer scope.Close()

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, userID, userID.String()+"@example.com")
	if err != nil {
		t.Fatalf("failed to ensure test user: %v", err)
	}
}

// ClearAnalyses deletes every stored analysis of a workspace.
func (e *EngineDB) ClearAnalyses(t *testing.T, workspaceID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	scope, err := e.DB.WithoutTenant(ctx)
	if err != nil {
		t.Fatalf("failed to create scope for cleanup: %v", err)
	}
	defer scope.Close()

	_, _ = scope.Conn.Exec(ctx, "DELETE FROM analyses WHERE workspace_id = $1", workspaceID)
}
