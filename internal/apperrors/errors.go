// Package apperrors defines the error taxonomy shared by services and
// handlers. Services return these wrapped with fmt.Errorf("...: %w", ...);
// handlers map them to HTTP status codes in one place.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindValidation        Kind = iota // malformed input
	KindAuth                          // missing/invalid/expired token
	KindForbidden                     // wrong role or not resource owner
	KindNotFound                      // resource does not exist
	KindInsufficientStock             // checkout stock conflict
	KindEmptyCart                     // checkout against an empty cart
	KindConflict                      // duplicate / unique constraint
	KindDependency                    // downstream side effect failed
	KindInternal                      // everything else
)

// Error carries a kind, a user-facing message and, for validation failures,
// the offending field.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a field-level validation error.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// NotFound creates a not-found error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// FieldOf returns the validation field of err, if any.
func FieldOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// StatusCode maps an error to its HTTP status code.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindEmptyCart:
		return fiber.StatusBadRequest
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInsufficientStock, KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
