package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for reporting.
type ErrorClass string

const (
	// ErrorClassConflict indicates contradictory intent between two modules.
	// Example: two modules assigning different values to one symbol.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassPermanent indicates a non-recoverable error.
	// Examples: unknown symbol, failed assertion, dependency cycle, IO failure.
	ErrorClassPermanent ErrorClass = "permanent"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Symbol is the symbol name that caused the error, if applicable.
	Symbol string `json:"symbol,omitempty"`

	// Module is the module being processed when the error occurred.
	Module string `json:"module,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.Symbol != "" && e.Module != "":
		return fmt.Sprintf("[%s] %s (symbol=%s, module=%s)%s",
			e.Class, e.Message, e.Symbol, e.Module, e.unwrapSuffix())
	case e.Symbol != "":
		return fmt.Sprintf("[%s] %s (symbol=%s)%s", e.Class, e.Message, e.Symbol, e.unwrapSuffix())
	case e.Module != "":
		return fmt.Sprintf("[%s] %s (module=%s)%s", e.Class, e.Message, e.Module, e.unwrapSuffix())
	default:
		return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassConflict,
		Message: message,
		Err:     err,
	}
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// WithSymbol adds symbol context to an error.
func (e *EngineError) WithSymbol(symbol string) *EngineError {
	e.Symbol = symbol
	return e
}

// WithModule adds module context to an error.
func (e *EngineError) WithModule(module string) *EngineError {
	e.Module = module
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConflict
	}
	return false
}

// CodeOf returns the error code carried by err, or an empty string.
func CodeOf(err error) string {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode returns true if the error carries the given error code.
func HasCode(err error, code string) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Common error codes.
const (
	ErrCodeUnknownSymbol         = "UNKNOWN_SYMBOL"
	ErrCodeConflictingAssignment = "CONFLICTING_ASSIGNMENT"
	ErrCodeAssertionFailed       = "ASSERTION_FAILED"
	ErrCodeDependencyCycle       = "DEPENDENCY_CYCLE"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeIO                    = "IO_ERROR"
	ErrCodeInternal              = "INTERNAL_ERROR"
)
