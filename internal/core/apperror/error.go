// Package apperror provides structured errors mapped to HTTP responses.
// Handlers never write error bodies themselves; the error middleware renders AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the "code" field of error responses.
const (
	// Server side (500, 504)
	CodeInternal       = "INTERNAL_ERROR"
	CodeTimeout        = "TIMEOUT_ERROR"
	CodeCounterMissing = "COUNTER_NOT_PROVISIONED"
	CodeRenderFailed   = "PDF_RENDER_FAILED"
	CodeUploadFailed   = "UPLOAD_FAILED"

	// Validation (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rules (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// Authorization (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the invoicing API.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error.
// available is negative when the on-hand quantity is unknown (conditional update missed).
func NewInsufficientStock(itemID string, requested, available int64) *AppError {
	details := map[string]any{
		"item_id":   itemID,
		"requested": requested,
	}
	if available >= 0 {
		details["available"] = available
	}
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// NewCounterMissing is returned when an owner has no counter for a document kind.
// Counters are provisioned at registration, so this is a server-side fault.
func NewCounterMissing(kind string) *AppError {
	return &AppError{
		Code:       CodeCounterMissing,
		Message:    "Document counter is not provisioned",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"kind": kind},
	}
}

// NewRenderFailed wraps a PDF rendering failure.
func NewRenderFailed(template string, err error) *AppError {
	return &AppError{
		Code:       CodeRenderFailed,
		Message:    "Unable to generate PDF",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"template": template},
		Err:        err,
	}
}

// NewUploadFailed wraps an object store failure.
func NewUploadFailed(err error) *AppError {
	return &AppError{
		Code:       CodeUploadFailed,
		Message:    "Unable to upload file",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewTimeout is returned when a request outlives its deadline.
func NewTimeout(err error) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    "Request timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeConcurrentModification
	}
	return false
}

// IsUnauthorized checks if error is CodeUnauthorized
func IsUnauthorized(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeUnauthorized
	}
	return false
}
