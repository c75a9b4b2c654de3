package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

func analysesRequest(method, tool, id string) *http.Request {
	path := "/api/workspaces/acme/tools/" + tool + "/analyses"
	if id != "" {
		path += "/" + id
	}
	req := httptest.NewRequest(method, path, nil)
	req.SetPathValue("slug", "acme")
	req.SetPathValue("tool", tool)
	if id != "" {
		req.SetPathValue("id", id)
	}
	return req
}

func TestAnalysesHandler_List(t *testing.T) {
	first := &models.StoredAnalysis{ID: uuid.New(), Tool: models.ToolSEOStrategist, AnalysisType: models.AnalysisTypeURL}
	svc := &mockAnalysisService{analyses: []*models.StoredAnalysis{first}}
	handler := NewAnalysesHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.List(rec, analysesRequest(http.MethodGet, "seo-strategist", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ToolSEOStrategist, svc.listedTool)

	var got []models.StoredAnalysis
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)
}

func TestAnalysesHandler_ListEmptyIsArray(t *testing.T) {
	handler := NewAnalysesHandler(&mockAnalysisService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.List(rec, analysesRequest(http.MethodGet, "trend-agent", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalysesHandler_UnknownTool(t *testing.T) {
	svc := &mockAnalysisService{}
	handler := NewAnalysesHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.List(rec, analysesRequest(http.MethodGet, "keyword-planner", ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, svc.listedTool)
}

func TestAnalysesHandler_Get(t *testing.T) {
	stored := &models.StoredAnalysis{
		ID:           uuid.New(),
		Tool:         models.ToolAdCreative,
		ResponseData: json.RawMessage(`{"image_url":"generation_failed"}`),
	}
	handler := NewAnalysesHandler(&mockAnalysisService{analysis: stored}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Get(rec, analysesRequest(http.MethodGet, "adcreative", stored.ID.String()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"response_data":{"image_url":"generation_failed"}`)
}

func TestAnalysesHandler_GetNotFound(t *testing.T) {
	handler := NewAnalysesHandler(&mockAnalysisService{err: apperrors.ErrNotFound}, zap.NewNop())

	req := analysesRequest(http.MethodGet, "trend-agent", uuid.NewString())
	req.Header.Set("Accept-Language", "tr")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "Trend önerisi bulunamadı.", body.Detail)
}

func TestAnalysesHandler_Delete(t *testing.T) {
	svc := &mockAnalysisService{}
	handler := NewAnalysesHandler(svc, zap.NewNop())
	id := uuid.New()

	rec := httptest.NewRecorder()
	handler.Delete(rec, analysesRequest(http.MethodDelete, "trend-agent", id.String()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.deletedID)

	var body DetailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Trend suggestion deleted successfully.", body.Detail)
}

func TestAnalysesHandler_DeleteMalformedID(t *testing.T) {
	svc := &mockAnalysisService{}
	handler := NewAnalysesHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Delete(rec, analysesRequest(http.MethodDelete, "seo-strategist", "not-a-uuid"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uuid.Nil, svc.deletedID)
}
