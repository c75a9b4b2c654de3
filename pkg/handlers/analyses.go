package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/services"
)

// AnalysesHandler lists, shows and deletes stored analyses of a tool.
type AnalysesHandler struct {
	analysisService services.AnalysisService
	logger          *zap.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(analysisService services.AnalysisService, logger *zap.Logger) *AnalysesHandler {
	return &AnalysesHandler{
		analysisService: analysisService,
		logger:          logger,
	}
}

// RegisterRoutes registers the analyses endpoints on the given mux.
func (h *AnalysesHandler) RegisterRoutes(mux *http.ServeMux, routes ToolRoutes) {
	base := "/api/workspaces/{slug}/tools/{tool}/analyses"

	mux.HandleFunc("GET "+base, routes.chain(h.List))
	mux.HandleFunc("GET "+base+"/{id}", routes.chain(h.Get))
	mux.HandleFunc("DELETE "+base+"/{id}", routes.chain(h.Delete))
}

// List handles GET /api/workspaces/{slug}/tools/{tool}/analyses
// Analyses are returned newest first.
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	tool, ok := ParseTool(w, r, h.logger)
	if !ok {
		return
	}

	analyses, err := h.analysisService.List(r.Context(), tool)
	if err != nil {
		writeServiceError(w, r, tool, err, h.logger)
		return
	}
	if analyses == nil {
		analyses = []*models.StoredAnalysis{}
	}

	if err := WriteJSON(w, http.StatusOK, analyses); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/workspaces/{slug}/tools/{tool}/analyses/{id}
func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	tool, ok := ParseTool(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseAnalysisID(w, r, tool, h.logger)
	if !ok {
		return
	}

	analysis, err := h.analysisService.Get(r.Context(), tool, id)
	if err != nil {
		writeServiceError(w, r, tool, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/workspaces/{slug}/tools/{tool}/analyses/{id}
func (h *AnalysesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tool, ok := ParseTool(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseAnalysisID(w, r, tool, h.logger)
	if !ok {
		return
	}

	if err := h.analysisService.Delete(r.Context(), tool, id); err != nil {
		writeServiceError(w, r, tool, err, h.logger)
		return
	}

	response := DetailResponse{Detail: localization.FromRequest(r, toolMessages(tool).deleted)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
