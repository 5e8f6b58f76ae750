package model

import (
	"errors"
	"fmt"
)

// Base error kinds, matchable with errors.Is(). Every rejected operation
// maps to exactly one of these; handlers translate them to HTTP status
// codes and a machine-readable kind string.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// DomainError carries an error kind plus a human-readable message and an
// optional underlying cause.
type DomainError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against both the kind and the underlying cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewValidationError returns a DomainError of kind ErrValidation.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: ErrValidation, Message: message}
}

// NewConflictError returns a DomainError of kind ErrConflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Kind: ErrConflict, Message: message}
}

// NewNotFoundError returns a DomainError of kind ErrNotFound.
func NewNotFoundError(message string) *DomainError {
	return &DomainError{Kind: ErrNotFound, Message: message}
}

// NewForbiddenError returns a DomainError of kind ErrForbidden.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: ErrForbidden, Message: message}
}

// WrapError attaches a kind and message to an underlying error.
func WrapError(kind error, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// Machine-readable kind strings, used in error response bodies.
const (
	KindValidation = "validation_error"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
	KindInternal   = "internal"
)

// ErrorKind returns the machine-readable kind string for err, or
// KindInternal when the error carries no domain kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}
