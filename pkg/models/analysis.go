package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoredAnalysis is one persisted request/response pair for a tool.
// RequestData and ResponseData hold the JSON documents exactly as produced.
type StoredAnalysis struct {
	ID           uuid.UUID       `json:"id"`
	WorkspaceID  uuid.UUID       `json:"workspace_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Tool         ToolKind        `json:"tool"`
	AnalysisType string          `json:"analysis_type"`
	RequestData  json.RawMessage `json:"request_data"`
	ResponseData json.RawMessage `json:"response_data"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MarshalDocument encodes v for storage without HTML escaping, so that
// user text containing <, > or & is stored as written.
func MarshalDocument(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// NewStoredAnalysis builds a record from a request and its result.
func NewStoredAnalysis(workspaceID, userID uuid.UUID, tool ToolKind, analysisType string, request, response any) (*StoredAnalysis, error) {
	req, err := MarshalDocument(request)
	if err != nil {
		return nil, err
	}
	resp, err := MarshalDocument(response)
	if err != nil {
		return nil, err
	}
	return &StoredAnalysis{
		ID:           uuid.New(),
		WorkspaceID:  workspaceID,
		UserID:       userID,
		Tool:         tool,
		AnalysisType: analysisType,
		RequestData:  req,
		ResponseData: resp,
	}, nil
}
