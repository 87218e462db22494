package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Code returns the machine readable error code
func (e *ValidationError) Code() string { return "invalid_request" }

// InternalError represents a failure of a backing store or other dependency.
// The wrapped cause is logged but never shown to clients.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for this error
func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }

// Code returns the machine readable error code
func (e *InternalError) Code() string { return "internal_error" }

// HTTPStatuser is implemented by errors that know their HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
	Code() string
}

// HTTPStatus resolves the status and code of err, looking through wrapped errors.
// Unknown errors map to 500.
func HTTPStatus(err error) (int, string) {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus(), s.Code()
	}
	return http.StatusInternalServerError, "internal_error"
}
