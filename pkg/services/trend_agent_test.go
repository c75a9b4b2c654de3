package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

const electronicsReply = "```json\n" + `{
  "products": [
    {
      "product_idea": "Akıllı ev prizi",
      "description": "Uygulama ile kontrol edilen priz",
      "recommended_price_range": "500-1500",
      "target_audience": "Genç profesyoneller",
      "competition_score": 12,
      "trend_score": "8/10",
      "profit_margin_estimate": "%25",
      "ecommerce_platforms": ["Trendyol", "Hepsiburada"]
    }
  ],
  "trend_analysis": {
    "category_analysis": "Elektronik kategorisi büyüyor",
    "market_trends": "Akıllı ev"
  },
  "summary": "Türkiye için elektronik önerileri",
  "next_steps": ["Tedarikçi bulun"]
}` + "\n```"

func newTestTrendAgent(ai llm.AIClient) *trendAgent {
	a := NewTrendAgent(ai, nil, zap.NewNop()).(*trendAgent)
	a.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestTrendAgent_ElectronicsTurkey(t *testing.T) {
	ai := llm.NewMockAIClient(electronicsReply)
	agent := newTestTrendAgent(ai)

	req := &models.TrendRequest{Category: "Electronics", TargetCountry: "Turkey", Language: "tr-TR"}
	req.ApplyDefaults()

	result, outcome, err := agent.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, outcome.FellBack)

	require.Len(t, result.Products, 1)
	p := result.Products[0]
	assert.Equal(t, "Akıllı ev prizi", p.ProductIdea)
	assert.Equal(t, "₺500-1500", p.RecommendedPriceRange)
	assert.Equal(t, 10, p.CompetitionScore, "scores are clamped to 1-10")
	assert.Equal(t, 8, p.TrendScore)
	assert.Equal(t, "Medium", p.EstimatedDemand)
	assert.Equal(t, []string{"Trendyol", "Hepsiburada"}, p.EcommercePlatforms)
	assert.Equal(t, "Elektronik kategorisi büyüyor", result.TrendAnalysis.CategoryAnalysis)
	assert.Equal(t, "Türkiye için elektronik önerileri", result.Summary)
	assert.Nil(t, result.TrendsData)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), result.CreatedAt)

	require.Len(t, ai.Prompts, 1)
	assert.Contains(t, ai.Prompts[0], "Electronics")
	assert.Contains(t, ai.Prompts[0], "Turkey")
	assert.Contains(t, ai.Prompts[0], "3")
}

func TestTrendAgent_FallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		ai   *llm.MockAIClient
	}{
		{name: "provider error", ai: &llm.MockAIClient{GenerateTextFunc: func(context.Context, string) (string, error) {
			return "", errProviderDown
		}}},
		{name: "malformed reply", ai: llm.NewMockAIClient("Sorry, no JSON today.")},
		{name: "empty products", ai: llm.NewMockAIClient(`{"products": [], "trend_analysis": {}, "summary": "", "next_steps": []}`)},
		{name: "products are not objects", ai: llm.NewMockAIClient(`{"products": ["Smart plug"], "trend_analysis": {}, "summary": "s", "next_steps": []}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := newTestTrendAgent(tt.ai)
			req := &models.TrendRequest{TargetCountry: "Germany"}
			req.ApplyDefaults()

			result, outcome, err := agent.Generate(context.Background(), req)
			require.NoError(t, err)
			assert.True(t, outcome.FellBack)
			assert.Error(t, outcome.Err)

			require.Len(t, result.Products, 1)
			assert.Equal(t, "Sustainable home and lifestyle products", result.Products[0].ProductIdea)
			assert.Equal(t, "€20-60", result.Products[0].RecommendedPriceRange)
		})
	}
}

func TestTrendAgent_SaturatesHugeScores(t *testing.T) {
	agent := newTestTrendAgent(llm.NewMockAIClient(`{
		"products": [{"product_idea": "Smart plug", "competition_score": 1e30, "trend_score": 99999999999999999999}],
		"trend_analysis": {}, "summary": "s", "next_steps": []
	}`))
	req := &models.TrendRequest{TargetCountry: "USA"}
	req.ApplyDefaults()

	result, outcome, err := agent.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, outcome.FellBack)
	require.Len(t, result.Products, 1)
	assert.Equal(t, 10, result.Products[0].CompetitionScore)
	assert.Equal(t, 10, result.Products[0].TrendScore)
}

func TestTrendAgent_FallbackIsLocalized(t *testing.T) {
	agent := newTestTrendAgent(llm.NewMockAIClient("nope"))
	req := &models.TrendRequest{TargetCountry: "Turkey", Language: "tr"}
	req.ApplyDefaults()

	result, outcome, err := agent.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, outcome.FellBack)
	assert.Equal(t, "Sürdürülebilir ev ve yaşam ürünleri", result.Products[0].ProductIdea)
	assert.Equal(t, "₺20-60", result.Products[0].RecommendedPriceRange)
	assert.Equal(t, "Orta", result.Products[0].EstimatedDemand)
}

func TestTrendRequest_Defaults(t *testing.T) {
	req := &models.TrendRequest{TargetCountry: "USA"}
	req.ApplyDefaults()

	assert.Equal(t, models.DefaultProductCount, req.ProductCount)
	require.NotNil(t, req.IncludeTrends)
	assert.True(t, *req.IncludeTrends)
	assert.Equal(t, models.LanguageEnglish, req.Language)
}
