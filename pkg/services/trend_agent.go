package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/jsonutil"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/prompts"
)

// trendSchema is the minimum shape a trend reply must have.
var trendSchema = llm.Schema{
	Required:      []string{"products", "trend_analysis", "summary", "next_steps"},
	NonEmptyLists: []string{"products"},
	ObjectLists:   []string{"products"},
	Objects:       []string{"trend_analysis"},
}

// TrendAgent suggests products for a market. It always produces a usable
// result: failures of the model or its reply yield a canned suggestion.
type TrendAgent interface {
	Generate(ctx context.Context, req *models.TrendRequest) (*models.TrendResult, Outcome, error)
}

type trendAgent struct {
	pipeline *pipeline
	policy   FailurePolicy
	now      func() time.Time
	logger   *zap.Logger
}

// NewTrendAgent creates a TrendAgent with the fallback failure policy.
func NewTrendAgent(ai llm.AIClient, observer GenerationObserver, logger *zap.Logger) TrendAgent {
	logger = logger.Named("trend-agent")
	return &trendAgent{
		pipeline: newPipeline(ai, observer, logger),
		policy:   FailurePolicyFallback,
		now:      time.Now,
		logger:   logger,
	}
}

var _ TrendAgent = (*trendAgent)(nil)

func (a *trendAgent) Generate(ctx context.Context, req *models.TrendRequest) (*models.TrendResult, Outcome, error) {
	obj, outcome := a.pipeline.run(ctx, generation{
		tool:     models.ToolTrendAgent,
		template: prompts.TrendAnalysis,
		language: req.Language,
		placeholders: map[string]string{
			"category":         req.Category,
			"target_country":   req.TargetCountry,
			"budget_range":     req.BudgetRange,
			"target_audience":  req.TargetAudience,
			"additional_notes": req.AdditionalNotes,
			"product_count":    strconv.Itoa(req.ProductCount),
		},
		schema: trendSchema,
		policy: a.policy,
	})

	if outcome.FellBack {
		a.logger.Info("Returning fallback trend suggestion",
			zap.String("error", logging.SanitizeError(outcome.Err)),
			zap.String("target_country", req.TargetCountry))
		return fallbackTrendResult(req, a.now()), outcome, nil
	}
	if outcome.Err != nil {
		return nil, outcome, fmt.Errorf("trend analysis: %w", outcome.Err)
	}

	return a.mapResult(obj, req), outcome, nil
}

func (a *trendAgent) mapResult(obj map[string]any, req *models.TrendRequest) *models.TrendResult {
	items := jsonutil.Objects(obj["products"])
	products := make([]models.ProductSuggestion, 0, len(items))
	for _, p := range items {
		products = append(products, models.ProductSuggestion{
			ProductIdea:           jsonutil.String(p["product_idea"]),
			Description:           jsonutil.String(p["description"]),
			RecommendedPriceRange: FormatCurrencyRange(jsonutil.String(p["recommended_price_range"]), req.TargetCountry),
			TargetAudience:        jsonutil.String(p["target_audience"]),
			CompetitionScore:      jsonutil.Clamp(jsonutil.Int(p["competition_score"], 5), 1, 10),
			TrendScore:            jsonutil.Clamp(jsonutil.Int(p["trend_score"], 5), 1, 10),
			ProfitMarginEstimate:  jsonutil.String(p["profit_margin_estimate"]),
			MarketOpportunity:     jsonutil.String(p["market_opportunity"]),
			RisksAndChallenges:    jsonutil.String(p["risks_and_challenges"]),
			MarketingSuggestions:  jsonutil.String(p["marketing_suggestions"]),
			EcommercePlatforms:    jsonutil.StringSlice(p["ecommerce_platforms"]),
			EstimatedDemand:       stringOr(jsonutil.String(p["estimated_demand"]), "Medium"),
		})
	}

	analysis := jsonutil.Object(obj["trend_analysis"])
	return &models.TrendResult{
		Products:   products,
		TrendsData: nil,
		TrendAnalysis: models.TrendAnalysis{
			CategoryAnalysis:     jsonutil.String(analysis["category_analysis"]),
			MarketTrends:         jsonutil.String(analysis["market_trends"]),
			SeasonalFactors:      jsonutil.String(analysis["seasonal_factors"]),
			CompetitiveLandscape: jsonutil.String(analysis["competitive_landscape"]),
			AIRecommendations:    jsonutil.String(analysis["ai_recommendations"]),
		},
		Summary:   jsonutil.String(obj["summary"]),
		NextSteps: jsonutil.StringSlice(obj["next_steps"]),
		CreatedAt: a.now().UTC(),
	}
}

// fallbackTrendResult is the canned single-product suggestion returned when
// the model cannot be used. Its content depends only on the request language
// and target country.
func fallbackTrendResult(req *models.TrendRequest, now time.Time) *models.TrendResult {
	platforms := []string{"Amazon", "Etsy", "Shopify"}

	if req.Language == models.LanguageTurkish {
		return &models.TrendResult{
			Products: []models.ProductSuggestion{{
				ProductIdea:           "Sürdürülebilir ev ve yaşam ürünleri",
				Description:           "Geri dönüştürülmüş veya doğal malzemelerden üretilen, günlük kullanıma yönelik çevre dostu ürünler.",
				RecommendedPriceRange: FormatCurrencyRange("20-60", req.TargetCountry),
				TargetAudience:        "Çevre bilinci yüksek 25-45 yaş arası tüketiciler",
				CompetitionScore:      5,
				TrendScore:            7,
				ProfitMarginEstimate:  "%30-40",
				MarketOpportunity:     "Sürdürülebilir ürünlere olan talep istikrarlı şekilde artıyor.",
				RisksAndChallenges:    "Tedarik maliyetleri ve sertifikasyon gereksinimleri.",
				MarketingSuggestions:  "Instagram ve Pinterest üzerinden görsel içerik, mikro-influencer iş birlikleri.",
				EcommercePlatforms:    []string{"Trendyol", "Hepsiburada", "Etsy"},
				EstimatedDemand:       "Orta",
			}},
			TrendAnalysis: models.TrendAnalysis{
				CategoryAnalysis:     "Yapay zeka analizi şu anda kullanılamıyor; bu öneri genel pazar eğilimlerine dayanmaktadır.",
				MarketTrends:         "Sürdürülebilirlik ve yerel üretim öne çıkan eğilimler arasında.",
				SeasonalFactors:      "Yıl boyunca talep görür, bayram ve yılbaşı dönemlerinde artış beklenir.",
				CompetitiveLandscape: "Orta düzeyde rekabet; markalaşma ile farklılaşma mümkün.",
				AIRecommendations:    "Daha ayrıntılı bir analiz için birkaç dakika sonra tekrar deneyin.",
			},
			Summary:   "Genel pazar eğilimlerine dayanan tek ürünlü bir öneri hazırlandı.",
			NextSteps: []string{"Tedarikçi araştırması yapın", "Küçük bir test stoğu ile başlayın", "Analizi daha sonra tekrar çalıştırın"},
			CreatedAt: now.UTC(),
		}
	}

	return &models.TrendResult{
		Products: []models.ProductSuggestion{{
			ProductIdea:           "Sustainable home and lifestyle products",
			Description:           "Everyday eco-friendly products made from recycled or natural materials.",
			RecommendedPriceRange: FormatCurrencyRange("20-60", req.TargetCountry),
			TargetAudience:        "Environmentally conscious consumers aged 25-45",
			CompetitionScore:      5,
			TrendScore:            7,
			ProfitMarginEstimate:  "30-40%",
			MarketOpportunity:     "Demand for sustainable products keeps growing steadily.",
			RisksAndChallenges:    "Sourcing costs and certification requirements.",
			MarketingSuggestions:  "Visual content on Instagram and Pinterest, micro-influencer partnerships.",
			EcommercePlatforms:    platforms,
			EstimatedDemand:       "Medium",
		}},
		TrendAnalysis: models.TrendAnalysis{
			CategoryAnalysis:     "AI analysis is currently unavailable; this suggestion is based on general market trends.",
			MarketTrends:         "Sustainability and local production are leading trends.",
			SeasonalFactors:      "Steady demand all year with peaks around holidays.",
			CompetitiveLandscape: "Moderate competition; branding allows differentiation.",
			AIRecommendations:    "Try again in a few minutes for a detailed analysis.",
		},
		Summary:   "A single-product suggestion based on general market trends.",
		NextSteps: []string{"Research suppliers", "Start with a small test inventory", "Run the analysis again later"},
		CreatedAt: now.UTC(),
	}
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
