package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/repositories"
)

// DefaultAnalysisLimit is how many stored analyses a workspace may keep per tool.
const DefaultAnalysisLimit = 3

// QuotaGuard enforces the per-workspace, per-tool analysis limit.
type QuotaGuard interface {
	// CheckAndReserve fails with apperrors.ErrLimitExceeded when the workspace
	// already holds Limit() analyses for the tool. It runs before any model
	// call so a full workspace costs nothing; the insert re-checks the limit
	// atomically.
	CheckAndReserve(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) error
	Limit() int
}

type quotaGuard struct {
	repo   repositories.AnalysisRepository
	limit  int
	logger *zap.Logger
}

// NewQuotaGuard creates a guard. A non-positive limit uses DefaultAnalysisLimit.
func NewQuotaGuard(repo repositories.AnalysisRepository, limit int, logger *zap.Logger) QuotaGuard {
	if limit <= 0 {
		limit = DefaultAnalysisLimit
	}
	return &quotaGuard{
		repo:   repo,
		limit:  limit,
		logger: logger.Named("quota"),
	}
}

var _ QuotaGuard = (*quotaGuard)(nil)

func (g *quotaGuard) CheckAndReserve(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) error {
	count, err := g.repo.CountByWorkspace(ctx, workspaceID, tool)
	if err != nil {
		return fmt.Errorf("check analysis quota: %w", err)
	}

	if count >= g.limit {
		g.logger.Info("Analysis limit reached",
			zap.String("workspace_id", workspaceID.String()),
			zap.String("tool", string(tool)),
			zap.Int("count", count),
			zap.Int("limit", g.limit))
		return apperrors.ErrLimitExceeded
	}
	return nil
}

func (g *quotaGuard) Limit() int {
	return g.limit
}
