package user

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDuplicateEmail is reported by stores when the unique index on email rejects a write.
var ErrDuplicateEmail = errors.New("email already exists")

// DuplicateEmailError is returned when a user with the same email is already stored.
type DuplicateEmailError struct {
	Email string
}

// NewDuplicateEmailError creates a new DuplicateEmailError for the given email.
func NewDuplicateEmailError(email string) *DuplicateEmailError {
	return &DuplicateEmailError{Email: email}
}

// Error implements the error interface
func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("User with email %s already exists", e.Email)
}

// Is reports ErrDuplicateEmail as a match so callers can test with errors.Is.
func (e *DuplicateEmailError) Is(target error) bool {
	return target == ErrDuplicateEmail
}

// HTTPStatus maps the conflict to a client error.
func (e *DuplicateEmailError) HTTPStatus() int {
	return http.StatusBadRequest
}

// Code returns the machine readable error code.
func (e *DuplicateEmailError) Code() string {
	return "duplicate_email"
}
