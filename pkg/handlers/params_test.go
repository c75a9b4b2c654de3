package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

func TestParseAnalysisID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantStatus int
	}{
		{name: "valid UUID", pathValue: "550e8400-e29b-41d4-a716-446655440000", wantOK: true},
		{name: "invalid UUID", pathValue: "42", wantOK: false, wantStatus: http.StatusNotFound},
		{name: "empty", pathValue: "", wantOK: false, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("id", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseAnalysisID(rec, req, models.ToolTrendAgent, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseAnalysisID() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK {
				if id != uuid.MustParse(tt.pathValue) {
					t.Errorf("ParseAnalysisID() id = %v, want %v", id, tt.pathValue)
				}
				return
			}

			if id != uuid.Nil {
				t.Errorf("ParseAnalysisID() id = %v, want uuid.Nil", id)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("ParseAnalysisID() status = %v, want %v", rec.Code, tt.wantStatus)
			}

			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["detail"] != "Trend suggestion not found." {
				t.Errorf("ParseAnalysisID() detail = %q", resp["detail"])
			}
		})
	}
}

func TestParseTool(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		slug   string
		want   models.ToolKind
		wantOK bool
	}{
		{slug: "trend-agent", want: models.ToolTrendAgent, wantOK: true},
		{slug: "seo-strategist", want: models.ToolSEOStrategist, wantOK: true},
		{slug: "adcreative", want: models.ToolAdCreative, wantOK: true},
		{slug: "trend_agent", wantOK: false},
		{slug: "unknown", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("tool", tt.slug)
			rec := httptest.NewRecorder()

			tool, ok := ParseTool(rec, req, logger)
			if ok != tt.wantOK || tool != tt.want {
				t.Errorf("ParseTool(%q) = %q, %v; want %q, %v", tt.slug, tool, ok, tt.want, tt.wantOK)
			}
			if !ok && rec.Code != http.StatusNotFound {
				t.Errorf("ParseTool(%q) status = %d, want 404", tt.slug, rec.Code)
			}
		})
	}
}
