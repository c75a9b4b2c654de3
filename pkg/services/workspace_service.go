package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/database"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/repositories"
)

// WorkspaceService resolves the workspace a request acts in.
type WorkspaceService interface {
	auth.WorkspaceResolver
}

type workspaceService struct {
	db     *database.DB
	repo   repositories.WorkspaceRepository
	logger *zap.Logger
}

// NewWorkspaceService creates a WorkspaceService.
func NewWorkspaceService(db *database.DB, repo repositories.WorkspaceRepository, logger *zap.Logger) WorkspaceService {
	return &workspaceService{
		db:     db,
		repo:   repo,
		logger: logger.Named("workspace"),
	}
}

var _ WorkspaceService = (*workspaceService)(nil)

// ResolveWorkspace looks the slug up without a tenant scope (the workspace
// is not known yet) and checks membership.
func (s *workspaceService) ResolveWorkspace(ctx context.Context, slug string, userID uuid.UUID) (*models.Workspace, error) {
	scope, err := s.db.WithoutTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer scope.Close()
	ctx = database.SetTenantScope(ctx, scope)

	ws, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get workspace %q: %w", slug, err)
	}

	member, err := s.repo.IsMember(ctx, ws.ID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		s.logger.Debug("User is not a workspace member",
			zap.String("workspace_id", ws.ID.String()),
			zap.String("user_id", userID.String()))
		return nil, apperrors.ErrForbidden
	}
	return ws, nil
}
