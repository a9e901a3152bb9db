package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected input. ValidationError unwraps to it.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness collision that should not happen under normal flow.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the caller lacks a permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates no authenticated principal.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a validation error for a specific input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// FieldErrors extracts field errors from err, if any.
func FieldErrors(err error) []FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	return nil
}
