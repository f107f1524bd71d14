package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrBadPattern marks a regular expression that failed to compile.
	ErrBadPattern = errors.New("invalid regular expression")
	// ErrListNotFound marks a value list with no backing file.
	ErrListNotFound = errors.New("value list not found")
)

// ValidationError reports a malformed filter definition. Field names the
// offending part, e.g. "elements[1].operator".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EvalError reports a filter that could not be prepared for evaluation.
// The failure is confined to that filter; callers may retry once the
// pattern or list file is fixed.
type EvalError struct {
	Filter string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("filter %q: %v", e.Filter, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Retryable is always true: evaluation failures depend on external state.
func (e *EvalError) Retryable() bool { return true }
