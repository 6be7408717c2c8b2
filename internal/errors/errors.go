// Package errors defines the structured API error responses the HTTP layer
// returns, and the mapping from engine failures to user-visible messages.
package errors

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"parulreports/internal/report"
)

// APIError is a structured API error response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrFileTooLarge     = New(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file exceeds the size limit")
	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// engineMessages are the user-facing texts for each engine failure kind.
var engineMessages = map[report.Kind]string{
	report.KindDecode:          "The uploaded file could not be read as CSV or Excel. Please ensure the file is valid.",
	report.KindColumnNotFound:  "A required column is missing from the uploaded file.",
	report.KindAmbiguousColumn: "A required column matched more than one header in the uploaded file.",
	report.KindColumnOrder:     "The uploaded file's columns are in an unexpected order.",
	report.KindEmptyDataset:    "The uploaded file contains no data rows.",
}

// FromEngine converts an engine error to an API error. Business-rule
// failures map to 422 with the engine's diagnostic attached; anything
// unexpected maps to a plain 500.
func FromEngine(err error) *APIError {
	var ee *report.EngineError
	if !errors.As(err, &ee) || ee.Kind == report.KindInternal {
		return ErrInternalServer
	}
	return NewWithDetails(
		http.StatusUnprocessableEntity,
		string(ee.Kind),
		engineMessages[ee.Kind],
		ee.Error(),
	)
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse wraps an APIError in the standard envelope.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: err}
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
