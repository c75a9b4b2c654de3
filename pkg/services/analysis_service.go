package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/audit"
	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/repositories"
	"github.com/gipoly/gipoly-engine/pkg/validation"
)

// Generated is a stored tool run: the typed result plus the persisted record.
type Generated[T any] struct {
	Analysis *models.StoredAnalysis
	Result   *T
	Outcome  Outcome
}

// AnalysisService runs the marketing tools for the workspace in the request
// context and manages their stored analyses. Every generating method
// validates, screens, checks quota, generates and persists, in that order.
type AnalysisService interface {
	SuggestTrends(ctx context.Context, req *models.TrendRequest) (*Generated[models.TrendResult], error)
	AnalyzeSEOManual(ctx context.Context, req *models.ManualSEORequest) (*Generated[models.SEOResult], error)
	AnalyzeSEOURL(ctx context.Context, req *models.URLSEORequest) (*Generated[models.URLSEOResult], error)
	GenerateAdCreative(ctx context.Context, req *models.AdCreativeRequest) (*Generated[models.AdCreativeResult], error)

	List(ctx context.Context, tool models.ToolKind) ([]*models.StoredAnalysis, error)
	Get(ctx context.Context, tool models.ToolKind, id uuid.UUID) (*models.StoredAnalysis, error)
	Delete(ctx context.Context, tool models.ToolKind, id uuid.UUID) error
}

type analysisService struct {
	trends  TrendAgent
	seo     SEOStrategist
	ads     AdCreativeAgent
	quota   QuotaGuard
	repo    repositories.AnalysisRepository
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewAnalysisService wires the agents to quota and persistence.
func NewAnalysisService(
	trends TrendAgent,
	seo SEOStrategist,
	ads AdCreativeAgent,
	quota QuotaGuard,
	repo repositories.AnalysisRepository,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		trends:  trends,
		seo:     seo,
		ads:     ads,
		quota:   quota,
		repo:    repo,
		auditor: auditor,
		logger:  logger.Named("analysis"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

// toolRun carries the tool-independent parts of a generating request.
type toolRun struct {
	tool         models.ToolKind
	analysisType string
	request      any
	// text is every free-text field, screened with libinjection.
	text map[string]string
}

func (s *analysisService) SuggestTrends(ctx context.Context, req *models.TrendRequest) (*Generated[models.TrendResult], error) {
	req.ApplyDefaults()
	run := toolRun{
		tool:         models.ToolTrendAgent,
		analysisType: models.AnalysisTypeSuggest,
		request:      req,
		text: map[string]string{
			"category":         req.Category,
			"target_country":   req.TargetCountry,
			"budget_range":     req.BudgetRange,
			"target_audience":  req.TargetAudience,
			"additional_notes": req.AdditionalNotes,
		},
	}
	return generate(ctx, s, run, func(ctx context.Context) (*models.TrendResult, Outcome, error) {
		return s.trends.Generate(ctx, req)
	})
}

func (s *analysisService) AnalyzeSEOManual(ctx context.Context, req *models.ManualSEORequest) (*Generated[models.SEOResult], error) {
	req.ApplyDefaults()
	run := toolRun{
		tool:         models.ToolSEOStrategist,
		analysisType: models.AnalysisTypeManual,
		request:      req,
		text: map[string]string{
			"product_name":        req.ProductName,
			"product_description": req.ProductDescription,
			"target_keywords":     req.TargetKeywords,
		},
	}
	return generate(ctx, s, run, func(ctx context.Context) (*models.SEOResult, Outcome, error) {
		return s.seo.AnalyzeManual(ctx, req)
	})
}

func (s *analysisService) AnalyzeSEOURL(ctx context.Context, req *models.URLSEORequest) (*Generated[models.URLSEOResult], error) {
	req.ApplyDefaults()
	run := toolRun{
		tool:         models.ToolSEOStrategist,
		analysisType: models.AnalysisTypeURL,
		request:      req,
		text:         map[string]string{"url": req.URL},
	}
	return generate(ctx, s, run, func(ctx context.Context) (*models.URLSEOResult, Outcome, error) {
		return s.seo.AnalyzeURL(ctx, req)
	})
}

func (s *analysisService) GenerateAdCreative(ctx context.Context, req *models.AdCreativeRequest) (*Generated[models.AdCreativeResult], error) {
	req.ApplyDefaults()
	run := toolRun{
		tool:         models.ToolAdCreative,
		analysisType: models.AnalysisTypeCampaign,
		request:      req,
		text: map[string]string{
			"product_name":        req.ProductName,
			"product_description": req.ProductDescription,
			"platform":            req.Platform,
			"goal":                req.Goal,
			"audience.age":        req.Audience.Age,
			"audience.interests":  strings.Join(req.Audience.Interests, ", "),
		},
	}
	return generate(ctx, s, run, func(ctx context.Context) (*models.AdCreativeResult, Outcome, error) {
		return s.ads.Generate(ctx, req)
	})
}

// generate is the shared request path. Methods cannot have type parameters,
// so it is a function over the service.
func generate[T any](
	ctx context.Context,
	s *analysisService,
	run toolRun,
	agent func(ctx context.Context) (*T, Outcome, error),
) (*Generated[T], error) {
	ws, userID, err := auth.RequireWorkspaceFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tool := string(run.tool)

	if err := validation.Struct(run.request); err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			s.auditor.LogInputValidation(ctx, ws.ID, tool, vErr.FieldNames())
		}
		return nil, err
	}

	if err := s.screen(ctx, ws.ID, run); err != nil {
		return nil, err
	}

	if err := s.quota.CheckAndReserve(ctx, ws.ID, run.tool); err != nil {
		if errors.Is(err, apperrors.ErrLimitExceeded) {
			s.auditor.LogQuotaExceeded(ctx, ws.ID, tool, s.quota.Limit())
		}
		return nil, err
	}

	start := time.Now()
	result, outcome, err := agent(ctx)
	if err != nil {
		return nil, err
	}

	analysis, err := models.NewStoredAnalysis(ws.ID, userID, run.tool, run.analysisType, run.request, result)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}

	if err := s.repo.CreateWithinLimit(ctx, analysis, s.quota.Limit()); err != nil {
		if errors.Is(err, apperrors.ErrLimitExceeded) {
			// Lost a race with a concurrent request for the last slot.
			s.auditor.LogQuotaExceeded(ctx, ws.ID, tool, s.quota.Limit())
			return nil, err
		}
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	s.logger.Info("Analysis created",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("tool", tool),
		zap.String("analysis_type", run.analysisType),
		zap.Bool("fell_back", outcome.FellBack),
		zap.Duration("elapsed", time.Since(start)))

	return &Generated[T]{Analysis: analysis, Result: result, Outcome: outcome}, nil
}

// screen audits every flagged field and rejects the request when any
// finding is blocking.
func (s *analysisService) screen(ctx context.Context, workspaceID uuid.UUID, run toolRun) error {
	results := validation.CheckFields(run.text)
	if len(results) == 0 {
		return nil
	}

	blocking := validation.Blocking(results)
	blocked := make(map[string]bool, len(blocking))
	for _, r := range blocking {
		blocked[r.Field] = true
	}

	for _, r := range results {
		s.auditor.LogInjectionAttempt(ctx, workspaceID, string(run.tool), audit.InjectionDetails{
			Field:       r.Field,
			Value:       run.text[r.Field],
			Kind:        r.Kind,
			Fingerprint: r.Fingerprint,
			Blocked:     blocked[r.Field],
		})
	}

	if len(blocking) > 0 {
		return fmt.Errorf("%w: field %s", apperrors.ErrUnsafeInput, blocking[0].Field)
	}
	return nil
}

func (s *analysisService) List(ctx context.Context, tool models.ToolKind) ([]*models.StoredAnalysis, error) {
	ws, ok := auth.GetWorkspace(ctx)
	if !ok {
		return nil, fmt.Errorf("workspace not found in context")
	}
	return s.repo.ListByWorkspace(ctx, ws.ID, tool)
}

func (s *analysisService) Get(ctx context.Context, tool models.ToolKind, id uuid.UUID) (*models.StoredAnalysis, error) {
	ws, ok := auth.GetWorkspace(ctx)
	if !ok {
		return nil, fmt.Errorf("workspace not found in context")
	}
	return s.repo.GetByID(ctx, id, ws.ID, tool)
}

func (s *analysisService) Delete(ctx context.Context, tool models.ToolKind, id uuid.UUID) error {
	ws, ok := auth.GetWorkspace(ctx)
	if !ok {
		return fmt.Errorf("workspace not found in context")
	}
	if err := s.repo.Delete(ctx, id, ws.ID, tool); err != nil {
		return err
	}

	s.logger.Info("Analysis deleted",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("analysis_id", id.String()),
		zap.String("tool", string(tool)))
	return nil
}
