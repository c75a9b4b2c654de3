package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/database"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

// WorkspaceRepository reads workspaces and memberships. Workspaces are
// created and managed by the account service; the engine never writes them.
type WorkspaceRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
}

type workspaceRepository struct{}

// NewWorkspaceRepository creates a new workspace repository.
func NewWorkspaceRepository() WorkspaceRepository {
	return &workspaceRepository{}
}

var _ WorkspaceRepository = (*workspaceRepository)(nil)

func (r *workspaceRepository) GetBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		SELECT id, name, slug, owner_id, created_at
		FROM workspaces
		WHERE slug = $1`

	var ws models.Workspace
	err = scope.Conn.QueryRow(ctx, query, slug).Scan(
		&ws.ID, &ws.Name, &ws.Slug, &ws.OwnerID, &ws.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &ws, nil
}

// IsMember reports whether the user owns or belongs to the workspace.
func (r *workspaceRepository) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM workspaces WHERE id = $1 AND owner_id = $2
			UNION ALL
			SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
		)`

	var member bool
	if err := scope.Conn.QueryRow(ctx, query, workspaceID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("failed to check workspace membership: %w", err)
	}
	return member, nil
}
