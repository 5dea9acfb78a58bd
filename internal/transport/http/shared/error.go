// Package shared centralizes domain error translation to HTTP responses.
package shared

import (
	"errors"
	"net/http"
	"time"

	dErrors "mngkeeper/pkg/domain-errors"

	"mngkeeper/internal/transport/http/json"
)

// ErrorResponse is the body emitted for every error leaving the service.
// Internal error details are deliberately hidden behind a fixed per-category
// message; the trace id links the response back to the logs.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"traceId,omitempty"`
	Path      string `json:"path"`
	Method    string `json:"method"`
}

// WriteError translates a domain error into an HTTP response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, traceID string) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteErrorBody(w, r, StatusFor(domainErr.Code), MessageFor(domainErr.Code), traceID)
		return
	}
	WriteErrorBody(w, r, http.StatusInternalServerError, MessageFor(dErrors.CodeInternal), traceID)
}

// WriteErrorBody emits the standard error body with the given status and message.
func WriteErrorBody(w http.ResponseWriter, r *http.Request, status int, message, traceID string) {
	json.WriteJSON(w, status, ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
		Path:      r.URL.Path,
		Method:    r.Method,
	})
}

// StatusFor translates domain error codes to HTTP status codes.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the fixed user-visible message per error category.
func MessageFor(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "Resource not found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return "Invalid argument provided"
	case dErrors.CodeValidation:
		return "Request validation failed"
	case dErrors.CodeConflict:
		return "Resource already exists"
	case dErrors.CodeUnauthorized:
		return "Access denied"
	case dErrors.CodeForbidden:
		return "Operation not permitted"
	case dErrors.CodeUnavailable:
		return "Upstream dependency unavailable"
	case dErrors.CodeTimeout:
		return "Operation timed out"
	default:
		return "An unexpected error occurred"
	}
}
