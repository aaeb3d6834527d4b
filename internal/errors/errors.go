// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Type identifies the category of error
type Type string

const (
	// TypeMissingIdentity indicates a component group carries no name field
	TypeMissingIdentity Type = "MISSING_IDENTITY"

	// TypeIdentityConflict indicates sources disagree on a component's name
	TypeIdentityConflict Type = "IDENTITY_CONFLICT"

	// TypeMissingIdentifier indicates a source record has no component identifier
	TypeMissingIdentifier Type = "MISSING_IDENTIFIER"

	// TypeCurveFit indicates the cost curve could not be fitted
	TypeCurveFit Type = "CURVE_FIT"

	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error, or any error it wraps, is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// MissingIdentity reports a component group in which no source supplies a name.
func MissingIdentity(identifier string, sources []string) *Error {
	return Newf(TypeMissingIdentity, "component %q has no name field in sources [%s]",
		identifier, strings.Join(sources, ", ")).
		WithContext("identifier", identifier).
		WithContext("sources", sources)
}

// IdentityConflict reports sources that disagree on a component's name.
func IdentityConflict(identifier string, names []string) *Error {
	return Newf(TypeIdentityConflict, "component %q has conflicting names %q",
		identifier, names).
		WithContext("identifier", identifier).
		WithContext("names", names)
}

// MissingIdentifier reports a source record that cannot be grouped.
func MissingIdentifier(source, field string, index int) *Error {
	return Newf(TypeMissingIdentifier, "record %d from source %q has no %q value",
		index, source, field).
		WithContext("source", source).
		WithContext("field", field)
}

// CurveFit reports a set whose cost curve could not be fitted.
func CurveFit(setName, reason string, cause error) *Error {
	e := Wrapf(TypeCurveFit, cause, "cost curve for set %q: %s", setName, reason)
	return e.WithContext("set", setName)
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
