package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/storage"
)

const campaignReply = `{
	"headlines": {"short": "Brew better", "long": "Brew better coffee every morning"},
	"ad_texts": ["Text one", "Text two"],
	"ctas": ["Shop now"],
	"keywords": [{"keyword": "coffee grinder", "trend_level": "high", "search_volume": "10K"}],
	"performance": {"ctr_estimate": "2.5%", "ad_score": 87, "conversion_potential": "high"},
	"insights": ["Morning audiences convert"],
	"budget_recommendations": {"daily_budget": "$50"}
}`

type failingStore struct{}

func (failingStore) Upload(context.Context, []byte, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

// blockingStore waits for its context to end and records whether a
// deadline was set.
type blockingStore struct {
	hadDeadline bool
}

func (s *blockingStore) Upload(ctx context.Context, _ []byte, _ string) (string, error) {
	_, s.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

func newAdRequest() *models.AdCreativeRequest {
	req := &models.AdCreativeRequest{
		ProductName:        "Kahve değirmeni",
		ProductDescription: "Manuel kahve değirmeni",
		Platform:           "Instagram",
		Goal:               "Sales",
		Audience:           models.Audience{Age: "25-34", Interests: []string{"coffee", "design"}},
		Language:           "tr",
	}
	req.ApplyDefaults()
	return req
}

func TestAdCreativeAgent_Generate(t *testing.T) {
	ai := llm.NewMockAIClient(campaignReply)
	ai.TranslateFunc = func(_ context.Context, text, _, target string) string {
		return "[" + target + "] " + text
	}
	store := storage.NewMemoryStore("ads")
	agent := NewAdCreativeAgent(ai, store, nil, zap.NewNop())

	result, outcome, err := agent.Generate(context.Background(), newAdRequest())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)

	assert.Equal(t, "Brew better", result.Headlines.Short)
	assert.Equal(t, []string{"Text one", "Text two"}, result.AdTexts)
	assert.Equal(t, 87, result.Performance.AdScore)
	assert.Equal(t, "$50", result.BudgetRecommendations.DailyBudget)
	require.Len(t, result.Keywords, 1)
	assert.Equal(t, "coffee grinder", result.Keywords[0].Keyword)

	assert.True(t, strings.HasPrefix(result.ImageURL, "https://storage.googleapis.com/ads/"), result.ImageURL)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 2, ai.TranslateCalls)
	assert.Equal(t, 1, ai.GenerateImageCalls)

	require.Len(t, ai.Prompts, 1)
	assert.Contains(t, ai.Prompts[0], "[en] Kahve değirmeni")
	assert.Contains(t, ai.Prompts[0], "coffee, design")
}

func TestAdCreativeAgent_ImageFailureDegrades(t *testing.T) {
	tests := []struct {
		name  string
		ai    func() *llm.MockAIClient
		store storage.BlobStore
	}{
		{
			name: "image model fails",
			ai: func() *llm.MockAIClient {
				ai := llm.NewMockAIClient(campaignReply)
				ai.GenerateImageFunc = func(context.Context, string) (*llm.Image, error) {
					return nil, llm.NewError(llm.ErrorTypeQuota, "quota exhausted", false, nil)
				}
				return ai
			},
			store: storage.NewMemoryStore("ads"),
		},
		{
			name:  "upload fails",
			ai:    func() *llm.MockAIClient { return llm.NewMockAIClient(campaignReply) },
			store: failingStore{},
		},
		{
			name:  "no store configured",
			ai:    func() *llm.MockAIClient { return llm.NewMockAIClient(campaignReply) },
			store: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := NewAdCreativeAgent(tt.ai(), tt.store, nil, zap.NewNop())

			result, _, err := agent.Generate(context.Background(), newAdRequest())
			require.NoError(t, err)
			assert.Equal(t, models.ImageGenerationFailed, result.ImageURL)
			assert.Equal(t, "Brew better", result.Headlines.Short, "campaign text is still returned")
		})
	}
}

func TestAdCreativeAgent_TextFailurePropagates(t *testing.T) {
	ai := llm.NewMockAIClient(`{"headlines": {"short": "x"}}`)
	agent := NewAdCreativeAgent(ai, storage.NewMemoryStore("ads"), nil, zap.NewNop())

	result, outcome, err := agent.Generate(context.Background(), newAdRequest())
	assert.Nil(t, result)
	assert.Equal(t, StateValidationFailed, outcome.State)
	assert.ErrorIs(t, err, llm.ErrValidationFailed)
	assert.Zero(t, ai.GenerateImageCalls, "no image for a failed campaign")
}

func TestAdCreativeAgent_UploadIsBounded(t *testing.T) {
	store := &blockingStore{}
	agent := NewAdCreativeAgent(llm.NewMockAIClient(campaignReply), store, nil, zap.NewNop()).(*adCreativeAgent)
	agent.uploadTimeout = 20 * time.Millisecond

	result, _, err := agent.Generate(context.Background(), newAdRequest())
	require.NoError(t, err)

	assert.True(t, store.hadDeadline)
	assert.Equal(t, models.ImageGenerationFailed, result.ImageURL)
}
