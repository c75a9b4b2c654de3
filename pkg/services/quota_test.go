package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

func TestQuotaGuard_CheckAndReserve(t *testing.T) {
	repo := newMockAnalysisRepository()
	guard := NewQuotaGuard(repo, DefaultAnalysisLimit, zap.NewNop())
	ctx := context.Background()
	wsID := uuid.New()

	for i := 0; i < DefaultAnalysisLimit; i++ {
		require.NoError(t, guard.CheckAndReserve(ctx, wsID, models.ToolTrendAgent))
		a, err := models.NewStoredAnalysis(wsID, uuid.New(), models.ToolTrendAgent, models.AnalysisTypeSuggest, map[string]any{}, map[string]any{})
		require.NoError(t, err)
		require.NoError(t, repo.CreateWithinLimit(ctx, a, guard.Limit()))
	}

	err := guard.CheckAndReserve(ctx, wsID, models.ToolTrendAgent)
	assert.ErrorIs(t, err, apperrors.ErrLimitExceeded)

	// Other tools and workspaces have their own allowance.
	assert.NoError(t, guard.CheckAndReserve(ctx, wsID, models.ToolSEOStrategist))
	assert.NoError(t, guard.CheckAndReserve(ctx, uuid.New(), models.ToolTrendAgent))
}

func TestQuotaGuard_CountError(t *testing.T) {
	repo := newMockAnalysisRepository()
	repo.countErr = errors.New("connection refused")
	guard := NewQuotaGuard(repo, DefaultAnalysisLimit, zap.NewNop())

	err := guard.CheckAndReserve(context.Background(), uuid.New(), models.ToolAdCreative)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrLimitExceeded)
	assert.Contains(t, err.Error(), "check analysis quota")
}

func TestQuotaGuard_Limit(t *testing.T) {
	assert.Equal(t, 3, NewQuotaGuard(newMockAnalysisRepository(), DefaultAnalysisLimit, zap.NewNop()).Limit())
	assert.Equal(t, 10, NewQuotaGuard(newMockAnalysisRepository(), 10, zap.NewNop()).Limit())
}
