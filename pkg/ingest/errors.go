package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/ratelimit"
)

// ErrorResponse is the JSON body returned for every error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Param names the offending field, if any.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest    = "invalid_request_error"
	ErrorTypeMethodNotAllowed  = "method_not_allowed"
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"
	ErrorTypeServerError       = "server_error"
)

// Error codes.
const (
	CodeMissingField    = "missing_field"
	CodeInvalidValue    = "invalid_value"
	CodeInvalidJSON     = "invalid_json"
	CodeRequestTooLarge = "request_too_large"
	CodeRateLimited     = "rate_limited"
	CodeInternalError   = "internal_error"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a rejected request body.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Code: CodeMissingField, Message: field + " is required"}
}

func invalidValue(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Code: CodeInvalidValue, Message: fmt.Sprintf(format, args...)}
}

// WriteError writes an error body with status.
func WriteError(w http.ResponseWriter, status int, errType, code, param, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
		Param:   param,
		Code:    code,
	}})
}

// WriteValidationError writes a 400 for err.
func WriteValidationError(w http.ResponseWriter, err *ValidationError) {
	WriteError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Code, err.Field, err.Error())
}

// WriteRateLimited writes a 429 with Retry-After in whole seconds.
func WriteRateLimited(w http.ResponseWriter, result ratelimit.Result) {
	retry := int(result.RetryAfter.Seconds())
	if retry <= 0 {
		retry = int(ratelimit.DefaultWindow.Seconds())
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	WriteError(w, http.StatusTooManyRequests, ErrorTypeRateLimitExceeded, CodeRateLimited, "",
		"Too many requests, please try again later")
}

// WriteInternalError writes a generic 500. Details stay in the local log.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, ErrorTypeServerError, CodeInternalError, "", "Internal server error")
}

func setRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
