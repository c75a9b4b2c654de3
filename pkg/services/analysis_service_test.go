package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/audit"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/storage"
	"github.com/gipoly/gipoly-engine/pkg/validation"
)

type analysisFixture struct {
	svc   AnalysisService
	repo  *mockAnalysisRepository
	ai    *llm.MockAIClient
	logs  *observer.ObservedLogs
	ctx   context.Context
	wsID  uuid.UUID
	user  uuid.UUID
	fetch *mockPageFetcher
}

func newAnalysisFixture(t *testing.T, reply string) *analysisFixture {
	t.Helper()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	repo := newMockAnalysisRepository()
	ai := llm.NewMockAIClient(reply)
	fetch := &mockPageFetcher{page: &models.PageContent{Title: "Page", Content: "content"}}

	svc := NewAnalysisService(
		NewTrendAgent(ai, nil, logger),
		NewSEOStrategist(ai, fetch, nil, logger),
		NewAdCreativeAgent(ai, storage.NewMemoryStore("ads"), nil, logger),
		NewQuotaGuard(repo, DefaultAnalysisLimit, logger),
		repo,
		audit.NewSecurityAuditor(logger),
		logger,
	)

	wsID, userID := uuid.New(), uuid.New()
	return &analysisFixture{
		svc:   svc,
		repo:  repo,
		ai:    ai,
		logs:  logs,
		ctx:   workspaceContext(wsID, userID),
		wsID:  wsID,
		user:  userID,
		fetch: fetch,
	}
}

func securityEvents(logs *observer.ObservedLogs, eventType audit.SecurityEventType) int {
	n := 0
	for _, e := range logs.All() {
		if e.LoggerName != "security_audit" {
			continue
		}
		raw, ok := e.ContextMap()["event_json"].(string)
		if !ok {
			continue
		}
		var event audit.SecurityEvent
		if json.Unmarshal([]byte(raw), &event) == nil && event.EventType == eventType {
			n++
		}
	}
	return n
}

func TestAnalysisService_SuggestTrends_Persists(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)

	got, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{
		Category:      "Electronics",
		TargetCountry: "Turkey",
		Language:      "tr",
	})
	require.NoError(t, err)

	require.NotNil(t, got.Analysis)
	assert.Equal(t, f.wsID, got.Analysis.WorkspaceID)
	assert.Equal(t, f.user, got.Analysis.UserID)
	assert.Equal(t, models.ToolTrendAgent, got.Analysis.Tool)
	assert.Equal(t, models.AnalysisTypeSuggest, got.Analysis.AnalysisType)
	assert.False(t, got.Analysis.CreatedAt.IsZero())
	assert.Equal(t, "₺500-1500", got.Result.Products[0].RecommendedPriceRange)

	var storedReq models.TrendRequest
	require.NoError(t, json.Unmarshal(got.Analysis.RequestData, &storedReq))
	assert.Equal(t, 3, storedReq.ProductCount, "defaults are stored with the request")
	assert.Equal(t, "tr", storedReq.Language)

	var storedResp models.TrendResult
	require.NoError(t, json.Unmarshal(got.Analysis.ResponseData, &storedResp))
	assert.Equal(t, "Akıllı ev prizi", storedResp.Products[0].ProductIdea)

	list, err := f.svc.List(f.ctx, models.ToolTrendAgent)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, got.Analysis.ID, list[0].ID)
}

func TestAnalysisService_QuotaCycle(t *testing.T) {
	f := newAnalysisFixture(t, `{"title": "t", "meta_description": "m", "keywords": [], "seo_description": "d", "recommendations": [], "score": 50}`)
	req := func() *models.ManualSEORequest {
		return &models.ManualSEORequest{ProductName: "Mug", ProductDescription: "Handmade mug"}
	}

	var ids []uuid.UUID
	for i := 0; i < DefaultAnalysisLimit; i++ {
		got, err := f.svc.AnalyzeSEOManual(f.ctx, req())
		require.NoError(t, err, "analysis %d", i+1)
		ids = append(ids, got.Analysis.ID)
	}

	callsBefore := f.ai.GenerateTextCalls
	_, err := f.svc.AnalyzeSEOManual(f.ctx, req())
	require.ErrorIs(t, err, apperrors.ErrLimitExceeded)
	assert.Equal(t, callsBefore, f.ai.GenerateTextCalls, "no model call once the limit is reached")
	assert.Equal(t, 1, securityEvents(f.logs, audit.EventQuotaExceeded))

	// The URL audit shares the SEO allowance.
	_, err = f.svc.AnalyzeSEOURL(f.ctx, &models.URLSEORequest{URL: "https://shop.example.com/mug"})
	require.ErrorIs(t, err, apperrors.ErrLimitExceeded)

	require.NoError(t, f.svc.Delete(f.ctx, models.ToolSEOStrategist, ids[0]))

	_, err = f.svc.AnalyzeSEOManual(f.ctx, req())
	require.NoError(t, err, "deleting an analysis frees a slot")

	list, err := f.svc.List(f.ctx, models.ToolSEOStrategist)
	require.NoError(t, err)
	assert.Len(t, list, DefaultAnalysisLimit)
}

func TestAnalysisService_LostRaceIsLimitError(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)
	f.repo.createErr = apperrors.ErrLimitExceeded

	_, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{TargetCountry: "Turkey"})
	assert.ErrorIs(t, err, apperrors.ErrLimitExceeded)
	assert.Equal(t, 1, securityEvents(f.logs, audit.EventQuotaExceeded))
}

func TestAnalysisService_SaveFailure(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)
	f.repo.createErr = errors.New("connection reset")

	_, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{TargetCountry: "Turkey"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save analysis")
}

func TestAnalysisService_ValidationRejectsBeforeModel(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)

	_, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{ProductCount: 9})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var vErr *validation.Error
	require.True(t, errors.As(err, &vErr))
	assert.ElementsMatch(t, []string{"target_country", "product_count"}, vErr.FieldNames())

	assert.Zero(t, f.ai.GenerateTextCalls)
	assert.Equal(t, 1, securityEvents(f.logs, audit.EventInputValidation))
}

func TestAnalysisService_InjectionScreening(t *testing.T) {
	t.Run("xss blocks", func(t *testing.T) {
		f := newAnalysisFixture(t, electronicsReply)

		_, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{
			TargetCountry:   "Turkey",
			AdditionalNotes: `<script>alert(document.cookie)</script>`,
		})
		require.ErrorIs(t, err, apperrors.ErrUnsafeInput)
		assert.Contains(t, err.Error(), "additional_notes")
		assert.Zero(t, f.ai.GenerateTextCalls)
		assert.Equal(t, 1, securityEvents(f.logs, audit.EventInjectionAttempt))
	})

	t.Run("sqli is audited only", func(t *testing.T) {
		f := newAnalysisFixture(t, electronicsReply)

		_, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{
			TargetCountry:   "Turkey",
			AdditionalNotes: "1' OR '1'='1' --",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.ai.GenerateTextCalls)
		assert.Equal(t, 1, securityEvents(f.logs, audit.EventInjectionAttempt))
	})
}

func TestAnalysisService_AdCreative(t *testing.T) {
	f := newAnalysisFixture(t, campaignReply)

	got, err := f.svc.GenerateAdCreative(f.ctx, newAdRequest())
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisTypeCampaign, got.Analysis.AnalysisType)
	assert.Equal(t, models.ToolAdCreative, got.Analysis.Tool)
	assert.NotEqual(t, models.ImageGenerationFailed, got.Result.ImageURL)

	var stored models.AdCreativeResult
	require.NoError(t, json.Unmarshal(got.Analysis.ResponseData, &stored))
	assert.Equal(t, got.Result.ImageURL, stored.ImageURL)
}

func TestAnalysisService_AgentFailureIsNotStored(t *testing.T) {
	f := newAnalysisFixture(t, "not json")

	_, err := f.svc.GenerateAdCreative(f.ctx, newAdRequest())
	require.ErrorIs(t, err, llm.ErrMalformedResponse)

	count, err := f.repo.CountByWorkspace(context.Background(), f.wsID, models.ToolAdCreative)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAnalysisService_GetAndDeleteAreToolScoped(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)

	got, err := f.svc.SuggestTrends(f.ctx, &models.TrendRequest{TargetCountry: "Turkey"})
	require.NoError(t, err)

	found, err := f.svc.Get(f.ctx, models.ToolTrendAgent, got.Analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Analysis.ID, found.ID)

	_, err = f.svc.Get(f.ctx, models.ToolAdCreative, got.Analysis.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(f.ctx, models.ToolSEOStrategist, got.Analysis.ID), apperrors.ErrNotFound)

	other := workspaceContext(uuid.New(), f.user)
	_, err = f.svc.Get(other, models.ToolTrendAgent, got.Analysis.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "analyses are invisible to other workspaces")
}

func TestAnalysisService_RequiresWorkspace(t *testing.T) {
	f := newAnalysisFixture(t, electronicsReply)

	_, err := f.svc.SuggestTrends(context.Background(), &models.TrendRequest{TargetCountry: "Turkey"})
	assert.Error(t, err)
	_, err = f.svc.List(context.Background(), models.ToolTrendAgent)
	assert.Error(t, err)
}
