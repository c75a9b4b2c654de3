package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/services"
)

// maxRequestBody bounds tool request bodies.
const maxRequestBody = 1 << 20

// AnalysisIDHeader carries the id of the analysis a tool request stored.
const AnalysisIDHeader = "X-Analysis-ID"

// TenantMiddleware wraps a handler with a tenant-scoped database connection.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// Middleware is any per-route handler wrapper.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// ToolRoutes bundles the middleware every workspace route passes through.
type ToolRoutes struct {
	Auth      *auth.Middleware
	Workspace Middleware
	Tenant    TenantMiddleware
	// RateLimit wraps generating routes only. Nil disables it.
	RateLimit Middleware
}

// chain runs auth, then workspace resolution, then the tenant scope.
func (rt ToolRoutes) chain(h http.HandlerFunc) http.HandlerFunc {
	return rt.Auth.RequireAuth(rt.Workspace(rt.Tenant(h)))
}

// generating is chain plus the rate limiter, applied after authentication
// so callers are counted by user.
func (rt ToolRoutes) generating(h http.HandlerFunc) http.HandlerFunc {
	if rt.RateLimit != nil {
		h = rt.RateLimit(h)
	}
	return rt.chain(h)
}

// ToolsHandler serves the three marketing tools.
type ToolsHandler struct {
	analysisService services.AnalysisService
	logger          *zap.Logger
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(analysisService services.AnalysisService, logger *zap.Logger) *ToolsHandler {
	return &ToolsHandler{
		analysisService: analysisService,
		logger:          logger,
	}
}

// RegisterRoutes registers the tool endpoints on the given mux.
func (h *ToolsHandler) RegisterRoutes(mux *http.ServeMux, routes ToolRoutes) {
	base := "/api/workspaces/{slug}/tools"

	mux.HandleFunc("POST "+base+"/trend-agent/suggest", routes.generating(h.SuggestTrends))
	mux.HandleFunc("POST "+base+"/seo-strategist/manual", routes.generating(h.AnalyzeSEOManual))
	mux.HandleFunc("POST "+base+"/seo-strategist/url", routes.generating(h.AnalyzeSEOURL))
	mux.HandleFunc("POST "+base+"/adcreative", routes.generating(h.GenerateAdCreative))
}

// SuggestTrends handles POST /api/workspaces/{slug}/tools/trend-agent/suggest
func (h *ToolsHandler) SuggestTrends(w http.ResponseWriter, r *http.Request) {
	var req models.TrendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = localization.Negotiate(r)
	}

	got, err := h.analysisService.SuggestTrends(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, models.ToolTrendAgent, err, h.logger)
		return
	}
	h.respond(w, got.Analysis, got.Result)
}

// AnalyzeSEOManual handles POST /api/workspaces/{slug}/tools/seo-strategist/manual
func (h *ToolsHandler) AnalyzeSEOManual(w http.ResponseWriter, r *http.Request) {
	var req models.ManualSEORequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = localization.Negotiate(r)
	}

	got, err := h.analysisService.AnalyzeSEOManual(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, models.ToolSEOStrategist, err, h.logger)
		return
	}
	h.respond(w, got.Analysis, got.Result)
}

// AnalyzeSEOURL handles POST /api/workspaces/{slug}/tools/seo-strategist/url
func (h *ToolsHandler) AnalyzeSEOURL(w http.ResponseWriter, r *http.Request) {
	var req models.URLSEORequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = localization.Negotiate(r)
	}

	got, err := h.analysisService.AnalyzeSEOURL(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, models.ToolSEOStrategist, err, h.logger)
		return
	}
	h.respond(w, got.Analysis, got.Result)
}

// GenerateAdCreative handles POST /api/workspaces/{slug}/tools/adcreative
func (h *ToolsHandler) GenerateAdCreative(w http.ResponseWriter, r *http.Request) {
	var req models.AdCreativeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = localization.Negotiate(r)
	}

	got, err := h.analysisService.GenerateAdCreative(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, models.ToolAdCreative, err, h.logger)
		return
	}
	h.respond(w, got.Analysis, got.Result)
}

// decode reads a JSON request body into v, writing a 400 on failure.
func (h *ToolsHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeLocalizedError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "invalid_request_body", h.logger)
			return false
		}
		writeLocalizedError(w, r, http.StatusBadRequest, "invalid_request", "invalid_request_body", h.logger)
		return false
	}
	return true
}

// respond writes the tool result. The stored analysis id travels in a header
// so the body keeps the tool's result shape.
func (h *ToolsHandler) respond(w http.ResponseWriter, analysis *models.StoredAnalysis, result any) {
	w.Header().Set(AnalysisIDHeader, analysis.ID.String())
	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
