package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Veraticus/docmatch/internal/common"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes.
const (
	CodeValidationError      ErrorCode = "VALIDATION_ERROR"
	CodeInvalidJSON          ErrorCode = "INVALID_JSON"
	CodeInvalidDocumentKind  ErrorCode = "INVALID_DOCUMENT_KIND"
	CodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeMatchingServiceError ErrorCode = "MATCHING_SERVICE_ERROR"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string, err error) {
	resp := ErrorResponse{ErrorCode: code, Message: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDocumentError maps a document validation failure onto its reply.
func writeDocumentError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrUnsupportedKind) {
		writeError(w, http.StatusBadRequest, CodeInvalidDocumentKind, "Unsupported document kind", err)
		return
	}
	writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed", err)
}
