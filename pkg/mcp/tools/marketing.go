// Package tools provides MCP tool implementations for gipoly-engine.
package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/services"
)

// MarketingToolDeps contains dependencies for the marketing tools.
type MarketingToolDeps struct {
	AnalysisService services.AnalysisService
	Logger          *zap.Logger
}

// generatedResponse is what every generating tool returns.
type generatedResponse struct {
	AnalysisID string `json:"analysis_id"`
	Result     any    `json:"result"`
}

// RegisterMarketingTools registers the trend, SEO and ad creative tools.
// Tool handlers expect the workspace and tenant scope in the request context.
func RegisterMarketingTools(s *server.MCPServer, deps *MarketingToolDeps) {
	registerSuggestTrendsTool(s, deps)
	registerAnalyzeSEOTool(s, deps)
	registerGenerateAdCreativeTool(s, deps)
	registerListAnalysesTool(s, deps)
}

func languageOption() mcp.ToolOption {
	return mcp.WithString(
		"language",
		mcp.Description("Response language: 'en' or 'tr'. Defaults to 'en'."),
		mcp.Enum(models.LanguageEnglish, models.LanguageTurkish),
	)
}

func registerSuggestTrendsTool(s *server.MCPServer, deps *MarketingToolDeps) {
	tool := mcp.NewTool(
		"suggest_trends",
		mcp.WithDescription(
			"Suggest trending products to sell in a target market. "+
				"Returns product ideas with price ranges, competition and trend scores. "+
				"Each workspace can store a limited number of suggestions.",
		),
		mcp.WithString("target_country", mcp.Required(), mcp.Description("Country to sell in, e.g. 'Turkey'")),
		mcp.WithString("category", mcp.Description("Product category, e.g. 'Electronics'")),
		mcp.WithString("budget_range", mcp.Description("Budget range in the local currency, e.g. '500-1500'")),
		mcp.WithString("target_audience", mcp.Description("Who the products are for")),
		mcp.WithString("additional_notes", mcp.Description("Anything else the suggestions should consider")),
		mcp.WithNumber("product_count", mcp.Description("Number of products to suggest (1-5, default 3)")),
		mcp.WithBoolean("include_trends", mcp.Description("Accepted for compatibility; trends_data is always null")),
		languageOption(),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		targetCountry, err := req.RequireString("target_country")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		trendReq := &models.TrendRequest{
			TargetCountry:   trimString(targetCountry),
			Category:        optionalString(req, "category"),
			BudgetRange:     optionalString(req, "budget_range"),
			TargetAudience:  optionalString(req, "target_audience"),
			AdditionalNotes: optionalString(req, "additional_notes"),
			ProductCount:    req.GetInt("product_count", 0),
			Language:        optionalString(req, "language"),
		}
		if _, ok := req.GetArguments()["include_trends"]; ok {
			include := req.GetBool("include_trends", true)
			trendReq.IncludeTrends = &include
		}

		got, err := deps.AnalysisService.SuggestTrends(ctx, trendReq)
		if err != nil {
			return toolFailure(deps, models.ToolTrendAgent, trendReq.Language, err)
		}
		return jsonResult(generatedResponse{AnalysisID: got.Analysis.ID.String(), Result: got.Result})
	})
}

func registerAnalyzeSEOTool(s *server.MCPServer, deps *MarketingToolDeps) {
	tool := mcp.NewTool(
		"analyze_seo",
		mcp.WithDescription(
			"Produce SEO copy for a product. In 'manual' mode the product is described by name and description. "+
				"In 'url' mode a live product page is fetched and audited.",
		),
		mcp.WithString("mode", mcp.Required(), mcp.Enum(models.AnalysisTypeManual, models.AnalysisTypeURL),
			mcp.Description("'manual' or 'url'")),
		mcp.WithString("product_name", mcp.Description("Product name (manual mode)")),
		mcp.WithString("product_description", mcp.Description("Product description (manual mode)")),
		mcp.WithString("target_keywords", mcp.Description("Comma-separated keywords to target (manual mode)")),
		mcp.WithString("url", mcp.Description("Product page URL (url mode)")),
		languageOption(),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := req.RequireString("mode")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		lang := optionalString(req, "language")

		switch trimString(mode) {
		case models.AnalysisTypeManual:
			got, err := deps.AnalysisService.AnalyzeSEOManual(ctx, &models.ManualSEORequest{
				ProductName:        optionalString(req, "product_name"),
				ProductDescription: optionalString(req, "product_description"),
				TargetKeywords:     optionalString(req, "target_keywords"),
				Language:           lang,
			})
			if err != nil {
				return toolFailure(deps, models.ToolSEOStrategist, lang, err)
			}
			return jsonResult(generatedResponse{AnalysisID: got.Analysis.ID.String(), Result: got.Result})

		case models.AnalysisTypeURL:
			got, err := deps.AnalysisService.AnalyzeSEOURL(ctx, &models.URLSEORequest{
				URL:      optionalString(req, "url"),
				Language: lang,
			})
			if err != nil {
				return toolFailure(deps, models.ToolSEOStrategist, lang, err)
			}
			return jsonResult(generatedResponse{AnalysisID: got.Analysis.ID.String(), Result: got.Result})
		}

		return NewErrorResult("invalid_parameters", "mode must be 'manual' or 'url'"), nil
	})
}

func registerGenerateAdCreativeTool(s *server.MCPServer, deps *MarketingToolDeps) {
	tool := mcp.NewTool(
		"generate_ad_creative",
		mcp.WithDescription(
			"Generate an ad campaign: headlines, ad texts, keywords, performance estimates and a product image. "+
				"If the image cannot be generated the campaign is still returned with image_url 'generation_failed'.",
		),
		mcp.WithString("product_name", mcp.Required(), mcp.Description("Product name")),
		mcp.WithString("product_description", mcp.Required(), mcp.Description("Product description")),
		mcp.WithString("platform", mcp.Required(), mcp.Description("Ad platform, e.g. 'instagram' or 'google'")),
		mcp.WithString("goal", mcp.Required(), mcp.Description("Campaign goal, e.g. 'sales' or 'awareness'")),
		mcp.WithString("audience_age", mcp.Required(), mcp.Description("Audience age range, e.g. '25-34'")),
		mcp.WithArray("audience_interests", mcp.Required(),
			mcp.Description("Audience interests"),
			mcp.Items(map[string]any{"type": "string"})),
		languageOption(),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		adReq := &models.AdCreativeRequest{
			Language:           optionalString(req, "language"),
			ProductName:        optionalString(req, "product_name"),
			ProductDescription: optionalString(req, "product_description"),
			Platform:           optionalString(req, "platform"),
			Goal:               optionalString(req, "goal"),
			Audience: models.Audience{
				Age:       optionalString(req, "audience_age"),
				Interests: stringList(req, "audience_interests"),
			},
		}

		got, err := deps.AnalysisService.GenerateAdCreative(ctx, adReq)
		if err != nil {
			return toolFailure(deps, models.ToolAdCreative, adReq.Language, err)
		}
		return jsonResult(generatedResponse{AnalysisID: got.Analysis.ID.String(), Result: got.Result})
	})
}

func registerListAnalysesTool(s *server.MCPServer, deps *MarketingToolDeps) {
	tool := mcp.NewTool(
		"list_analyses",
		mcp.WithDescription("List the stored analyses of one tool in this workspace, newest first."),
		mcp.WithString("tool", mcp.Required(),
			mcp.Enum("trend-agent", "seo-strategist", "adcreative"),
			mcp.Description("Which tool's analyses to list")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := req.RequireString("tool")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		toolKind, ok := models.ParseToolSlug(trimString(slug))
		if !ok {
			return NewErrorResult("invalid_parameters", "unknown tool "+slug), nil
		}

		analyses, err := deps.AnalysisService.List(ctx, toolKind)
		if err != nil {
			return toolFailure(deps, toolKind, "", err)
		}

		result := struct {
			Analyses []*models.StoredAnalysis `json:"analyses"`
			Count    int                      `json:"count"`
		}{
			Analyses: analyses,
			Count:    len(analyses),
		}
		if result.Analyses == nil {
			result.Analyses = []*models.StoredAnalysis{}
		}
		return jsonResult(result)
	})
}

// toolFailure returns actionable errors as tool results. Anything else is
// logged and surfaced as a generic protocol error.
func toolFailure(deps *MarketingToolDeps, tool models.ToolKind, lang string, err error) (*mcp.CallToolResult, error) {
	lang = models.NormalizeLanguage(lang)
	if result := serviceErrorResult(tool, lang, err); result != nil {
		return result, nil
	}

	deps.Logger.Error("MCP tool failed",
		zap.String("tool", string(tool)),
		zap.String("error", logging.SanitizeError(err)))
	return nil, errors.New(localization.Message(failedMessageKey(tool), lang))
}

func failedMessageKey(tool models.ToolKind) string {
	switch tool {
	case models.ToolTrendAgent:
		return "trend_analysis_error"
	case models.ToolSEOStrategist:
		return "seo_analysis_error"
	default:
		return "adcreative_generation_error"
	}
}
