package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventmanager/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeValidation    = "validation_error"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeInternalError = "internal_error"
	ErrCodeUnavailable   = "unavailable"
)

// APIError is the error object in the standardized API response envelope.
// Fields maps request field names to what is wrong with them; Reason is a machine-readable
// refinement of Code, set on authentication failures.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// Meta is only present on paginated lists.
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
	Meta  any       `json:"meta,omitempty"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONSuccessWithMeta is WriteJSONSuccess with a meta object (pagination).
func WriteJSONSuccessWithMeta(w http.ResponseWriter, statusCode int, data, meta any) {
	writeJSON(w, statusCode, APIResponse{Data: data, Meta: meta})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}

// WriteUnauthorized writes a 401 unauthorized error carrying reason.
func WriteUnauthorized(w http.ResponseWriter, reason, message string) {
	writeJSON(w, http.StatusUnauthorized, APIResponse{Error: &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Reason:  reason,
	}})
}

// WriteValidationError writes a 400 validation_error naming the offending fields.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, APIResponse{Error: &APIError{
		Code:    ErrCodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}})
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteServiceError maps an error returned by a service to its HTTP response.
// Unexpected errors are logged and answered with 500 without leaking details.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		WriteValidationError(w, map[string]string{vErr.Field: vErr.Message})
	case errors.Is(err, domain.ErrDuplicateRegistration):
		WriteValidationError(w, map[string]string{"event": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
