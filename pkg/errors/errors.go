package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error codes
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeTimeout             = "TIMEOUT"
	CodeUnsupportedGateway  = "UNSUPPORTED_GATEWAY"
	CodeIntegrationInactive = "INTEGRATION_INACTIVE"
	CodeSignatureInvalid    = "SIGNATURE_INVALID"
	CodeMalformedPayload    = "MALFORMED_PAYLOAD"
	CodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
)

// AppError represents an application error with HTTP status and error code
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Retryable  bool              `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an existing error
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates a new AppError
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Configuration errors: surfaced immediately, never retried.

// ErrUnsupportedGateway creates an unsupported gateway type error
func ErrUnsupportedGateway(posType string) *AppError {
	return NewAppError(CodeUnsupportedGateway, fmt.Sprintf("unsupported POS gateway type: %s", posType), http.StatusBadRequest)
}

// ErrIntegrationInactive creates an error for a missing or disabled integration
func ErrIntegrationInactive(restaurantID, posType string) *AppError {
	return NewAppError(CodeIntegrationInactive, "POS integration is missing or inactive", http.StatusConflict).
		WithDetail("restaurantId", restaurantID).
		WithDetail("posType", posType)
}

// Authenticity errors: rejected, never retried.

// ErrSignatureInvalid creates a webhook signature verification error
func ErrSignatureInvalid(provider string) *AppError {
	return NewAppError(CodeSignatureInvalid, "webhook signature verification failed", http.StatusUnauthorized).
		WithDetail("provider", provider)
}

// Not-found errors: logged as warnings, treated as no-ops by callers.

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrNotFoundWithID creates a not found error with ID
func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

// Malformed payload: logged, surfaced, never retried.

// ErrMalformedPayload creates an error for a payload missing required fields
func ErrMalformedPayload(field string) *AppError {
	return NewAppError(CodeMalformedPayload, fmt.Sprintf("payload is missing required field: %s", field), http.StatusBadRequest)
}

// Transient errors: retried per the task schedule up to the attempt budget.

// ErrGatewayUnavailable creates a retryable transport-level gateway error
func ErrGatewayUnavailable(posType string, err error) *AppError {
	ae := NewAppError(CodeGatewayUnavailable, fmt.Sprintf("gateway %s is unreachable", posType), http.StatusBadGateway)
	ae.Retryable = true
	return ae.Wrap(err)
}

// ErrGatewayStatus creates a retryable error for an unexpected gateway HTTP status
func ErrGatewayStatus(posType string, status int) *AppError {
	ae := NewAppError(CodeGatewayUnavailable, fmt.Sprintf("gateway %s returned status %d", posType, status), http.StatusBadGateway)
	ae.Retryable = status >= 500 || status == http.StatusTooManyRequests
	return ae
}

// ErrTimeout creates a retryable timeout error
func ErrTimeout(operation string) *AppError {
	ae := NewAppError(CodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout)
	ae.Retryable = true
	return ae
}

// ErrServiceUnavailable creates a retryable service unavailable error
func ErrServiceUnavailable(service string) *AppError {
	ae := NewAppError(CodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
	ae.Retryable = true
	return ae
}

// General-purpose errors

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrConflict creates a conflict error
func ErrConflict(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

// ErrBadRequest creates a bad request error
func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts a standard error to an AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	return ErrInternal("").Wrap(err)
}

// IsRetryable reports whether the task runner should schedule another
// attempt for this error. Unknown (non-AppError) errors are treated as
// transient: network and driver failures usually arrive untyped.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}
