package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gipoly/gipoly-engine/pkg/jsonutil"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/prompts"
	"github.com/gipoly/gipoly-engine/pkg/storage"
)

// defaultUploadTimeout bounds a single image upload.
const defaultUploadTimeout = 30 * time.Second

var adCreativeSchema = llm.Schema{
	Required: []string{"headlines", "ad_texts", "ctas", "keywords", "performance", "insights"},
	Lists:    []string{"ad_texts", "ctas", "keywords", "insights"},
	Objects:  []string{"performance"},
	NestedRequired: map[string][]string{
		"headlines":   {"short", "long"},
		"performance": {"ctr_estimate", "ad_score", "conversion_potential"},
	},
}

// AdCreativeAgent produces an ad campaign: copy from the text model and a
// product image from the image model. Copy failures are returned to the
// caller; image failures leave ImageURL set to models.ImageGenerationFailed.
type AdCreativeAgent interface {
	Generate(ctx context.Context, req *models.AdCreativeRequest) (*models.AdCreativeResult, Outcome, error)
}

type adCreativeAgent struct {
	pipeline *pipeline
	ai       llm.AIClient
	store    storage.BlobStore
	policy   FailurePolicy
	logger   *zap.Logger

	uploadTimeout time.Duration
}

// NewAdCreativeAgent creates an AdCreativeAgent. A nil store disables image
// generation.
func NewAdCreativeAgent(ai llm.AIClient, store storage.BlobStore, observer GenerationObserver, logger *zap.Logger) AdCreativeAgent {
	logger = logger.Named("adcreative-agent")
	return &adCreativeAgent{
		pipeline: newPipeline(ai, observer, logger),
		ai:       ai,
		store:    store,
		policy:   FailurePolicyPropagate,
		logger:   logger,

		uploadTimeout: defaultUploadTimeout,
	}
}

var _ AdCreativeAgent = (*adCreativeAgent)(nil)

func (a *adCreativeAgent) Generate(ctx context.Context, req *models.AdCreativeRequest) (*models.AdCreativeResult, Outcome, error) {
	name, description := a.translateProduct(ctx, req)
	interests := strings.Join(req.Audience.Interests, ", ")

	obj, outcome := a.pipeline.run(ctx, generation{
		tool:     models.ToolAdCreative,
		template: prompts.AdCreativeText,
		language: req.Language,
		placeholders: map[string]string{
			"product_name":        name,
			"product_description": description,
			"platform":            req.Platform,
			"goal":                req.Goal,
			"audience_age":        req.Audience.Age,
			"audience_interests":  interests,
		},
		schema: adCreativeSchema,
		policy: a.policy,
	})
	if outcome.Err != nil {
		return nil, outcome, fmt.Errorf("ad campaign generation: %w", outcome.Err)
	}

	result := mapAdCreative(obj)
	result.ImageURL = a.generateImage(ctx, map[string]string{
		"product_name":        name,
		"product_description": description,
		"platform":            req.Platform,
		"audience_age":        req.Audience.Age,
		"audience_interests":  interests,
	})

	return result, outcome, nil
}

// translateProduct renders the product name and description in English for
// the prompts. Translation is best-effort; untranslated text is used as is.
func (a *adCreativeAgent) translateProduct(ctx context.Context, req *models.AdCreativeRequest) (string, string) {
	var name, description string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name = a.ai.Translate(gctx, req.ProductName, "", models.LanguageEnglish)
		return nil
	})
	g.Go(func() error {
		description = a.ai.Translate(gctx, req.ProductDescription, "", models.LanguageEnglish)
		return nil
	})
	_ = g.Wait()

	return name, description
}

// generateImage returns the public URL of the campaign image, or
// models.ImageGenerationFailed when any step fails.
func (a *adCreativeAgent) generateImage(ctx context.Context, placeholders map[string]string) string {
	if a.store == nil {
		return models.ImageGenerationFailed
	}

	prompt, err := prompts.Render(prompts.AdCreativeImage, models.LanguageEnglish, placeholders)
	if err != nil {
		a.logger.Error("Failed to render image prompt", zap.Error(err))
		return models.ImageGenerationFailed
	}

	img, err := a.ai.GenerateImage(ctx, prompt)
	if err != nil {
		a.logger.Warn("Image generation failed, returning campaign without image",
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return models.ImageGenerationFailed
	}

	uploadCtx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()

	url, err := a.store.Upload(uploadCtx, img.Data, img.MIMEType)
	if err != nil {
		a.logger.Warn("Image upload failed, returning campaign without image",
			zap.String("error", logging.SanitizeError(err)))
		return models.ImageGenerationFailed
	}
	return url
}

func mapAdCreative(obj map[string]any) *models.AdCreativeResult {
	headlines := jsonutil.Object(obj["headlines"])
	perf := jsonutil.Object(obj["performance"])
	budget := jsonutil.Object(obj["budget_recommendations"])

	kwObjs := jsonutil.Objects(obj["keywords"])
	keywords := make([]models.AdKeyword, 0, len(kwObjs))
	for _, kw := range kwObjs {
		keywords = append(keywords, models.AdKeyword{
			Keyword:      jsonutil.String(kw["keyword"]),
			TrendLevel:   jsonutil.String(kw["trend_level"]),
			SearchVolume: jsonutil.String(kw["search_volume"]),
		})
	}

	return &models.AdCreativeResult{
		Headlines: models.Headlines{
			Short: jsonutil.String(headlines["short"]),
			Long:  jsonutil.String(headlines["long"]),
		},
		AdTexts:  jsonutil.StringSlice(obj["ad_texts"]),
		CTAs:     jsonutil.StringSlice(obj["ctas"]),
		Keywords: keywords,
		Performance: models.AdPerformance{
			CTREstimate:         jsonutil.String(perf["ctr_estimate"]),
			AdScore:             jsonutil.Clamp(jsonutil.Int(perf["ad_score"], 0), 0, 100),
			ConversionPotential: jsonutil.String(perf["conversion_potential"]),
			EstimatedReach:      jsonutil.String(perf["estimated_reach"]),
			CostPerClick:        jsonutil.String(perf["cost_per_click"]),
			ROASPotential:       jsonutil.String(perf["roas_potential"]),
		},
		Insights:     jsonutil.StringSlice(obj["insights"]),
		PlatformTips: jsonutil.StringSlice(obj["platform_tips"]),
		ABTesting:    jsonutil.StringSlice(obj["ab_testing"]),
		BudgetRecommendations: models.BudgetRecommendations{
			DailyBudget:      jsonutil.String(budget["daily_budget"]),
			CampaignDuration: jsonutil.String(budget["campaign_duration"]),
			BudgetAllocation: jsonutil.String(budget["budget_allocation"]),
		},
		CampaignTimeline: jsonutil.StringSlice(obj["campaign_timeline"]),
		NextSteps:        jsonutil.StringSlice(obj["next_steps"]),
	}
}
