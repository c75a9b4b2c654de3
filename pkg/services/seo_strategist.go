package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/jsonutil"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/prompts"
)

var (
	seoManualSchema = llm.Schema{
		Required: []string{"title", "meta_description", "keywords", "seo_description", "recommendations", "score"},
		Lists:    []string{"keywords", "recommendations"},
	}

	seoURLSchema = llm.Schema{
		Required: []string{"product_analysis", "seo_optimization", "seo_score"},
		Objects:  []string{"product_analysis", "seo_optimization"},
	}
)

// SEOStrategist writes SEO copy for a product and audits live product pages.
// Failures are always returned to the caller.
type SEOStrategist interface {
	AnalyzeManual(ctx context.Context, req *models.ManualSEORequest) (*models.SEOResult, Outcome, error)
	AnalyzeURL(ctx context.Context, req *models.URLSEORequest) (*models.URLSEOResult, Outcome, error)
}

type seoStrategist struct {
	pipeline *pipeline
	fetcher  PageFetcher
	policy   FailurePolicy
	logger   *zap.Logger
}

// NewSEOStrategist creates an SEOStrategist with the propagate failure policy.
func NewSEOStrategist(ai llm.AIClient, fetcher PageFetcher, observer GenerationObserver, logger *zap.Logger) SEOStrategist {
	logger = logger.Named("seo-strategist")
	return &seoStrategist{
		pipeline: newPipeline(ai, observer, logger),
		fetcher:  fetcher,
		policy:   FailurePolicyPropagate,
		logger:   logger,
	}
}

var _ SEOStrategist = (*seoStrategist)(nil)

func (s *seoStrategist) AnalyzeManual(ctx context.Context, req *models.ManualSEORequest) (*models.SEOResult, Outcome, error) {
	keywords := req.TargetKeywords
	if keywords == "" {
		keywords = "Not specified"
	}

	obj, outcome := s.pipeline.run(ctx, generation{
		tool:     models.ToolSEOStrategist,
		template: prompts.SEOManual,
		language: req.Language,
		placeholders: map[string]string{
			"product_name":        req.ProductName,
			"product_description": req.ProductDescription,
			"target_keywords":     keywords,
		},
		schema: seoManualSchema,
		policy: s.policy,
	})
	if outcome.Err != nil {
		return nil, outcome, fmt.Errorf("manual SEO analysis: %w", outcome.Err)
	}

	return &models.SEOResult{
		Title:           jsonutil.String(obj["title"]),
		MetaDescription: jsonutil.String(obj["meta_description"]),
		Keywords:        jsonutil.StringSlice(obj["keywords"]),
		SEODescription:  jsonutil.String(obj["seo_description"]),
		Recommendations: jsonutil.StringSlice(obj["recommendations"]),
		Score:           jsonutil.Clamp(jsonutil.Int(obj["score"], 0), 0, 100),
	}, outcome, nil
}

func (s *seoStrategist) AnalyzeURL(ctx context.Context, req *models.URLSEORequest) (*models.URLSEOResult, Outcome, error) {
	page, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		s.logger.Info("Could not fetch page for SEO audit",
			zap.String("url", req.URL),
			zap.String("error", logging.SanitizeError(err)))
		return nil, Outcome{State: StateStart, Err: err},
			fmt.Errorf("%w: could not fetch %s: %w", apperrors.ErrInvalidInput, req.URL, err)
	}

	obj, outcome := s.pipeline.run(ctx, generation{
		tool:     models.ToolSEOStrategist,
		template: prompts.SEOURL,
		language: req.Language,
		placeholders: map[string]string{
			"url":              req.URL,
			"page_title":       page.Title,
			"page_description": page.Description,
			"page_content":     page.Content,
		},
		schema: seoURLSchema,
		policy: s.policy,
	})
	if outcome.Err != nil {
		return nil, outcome, fmt.Errorf("URL SEO analysis: %w", outcome.Err)
	}

	return &models.URLSEOResult{
		URL:                 req.URL,
		ContentInfo:         *page,
		ProductAnalysis:     jsonutil.Object(obj["product_analysis"]),
		SEOOptimization:     jsonutil.Object(obj["seo_optimization"]),
		UserExperience:      jsonutil.Object(obj["user_experience"]),
		TechnicalSEO:        jsonutil.Object(obj["technical_seo"]),
		CompetitiveAnalysis: jsonutil.Object(obj["competitive_analysis"]),
		ImpactAnalysis:      jsonutil.Object(obj["impact_analysis"]),
		SegmentScores:       jsonutil.Object(obj["segment_scores"]),
		ActionItems:         jsonutil.Object(obj["action_items"]),
		SEOScore:            jsonutil.Clamp(jsonutil.Int(obj["seo_score"], 0), 0, 100),
	}, outcome, nil
}
