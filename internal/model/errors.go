package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by stores and services
var (
	// ErrNotFound is returned by stores when no record matches a lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateSupplier is returned when the registry already holds the tax ID
	ErrDuplicateSupplier = errors.New("supplier with this tax ID already exists")

	// ErrClosureAlreadyPosted is returned when posting a closure that was not reversed
	ErrClosureAlreadyPosted = errors.New("closure already posted to the ledger")

	// ErrEnvelopeNotSupported is returned for signed envelopes that were not unwrapped
	ErrEnvelopeNotSupported = errors.New("signed envelope must be unwrapped before import")
)

// ParseError represents a hard parsing failure with an issue code
type ParseError struct {
	Code     string
	Path     string
	FileName string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	prefix := e.Code
	if e.FileName != "" {
		prefix = fmt.Sprintf("%s %s", e.Code, e.FileName)
	}
	if e.Path != "" {
		prefix = fmt.Sprintf("%s %s", prefix, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Issue converts the error into a safe-parse issue
func (e *ParseError) Issue() Issue {
	return Issue{Code: e.Code, Message: e.Message, Path: e.Path}
}

// NewParseError creates a new parse error
func NewParseError(code, path, message string, cause error) *ParseError {
	return &ParseError{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError represents validation failures of caller-supplied input
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}
