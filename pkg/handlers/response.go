package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/localization"
	"github.com/gipoly/gipoly-engine/pkg/validation"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Detail string                  `json:"detail"`
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// DetailResponse is returned by endpoints that only confirm an action.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, detail string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ErrorBody{Detail: detail, Error: errorCode})
}

// WriteJSON writes a JSON response and returns any encoding error.
// HTML escaping is off so user text is returned as written.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// writeLocalizedError writes an error whose detail is the catalog message for
// messageKey in the request's language.
func writeLocalizedError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, messageKey string, logger *zap.Logger) {
	if err := ErrorResponse(w, statusCode, errorCode, localization.FromRequest(r, messageKey)); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
