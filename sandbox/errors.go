package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrSyntax indicates the snippet could not be parsed.
	ErrSyntax = errors.New("syntax error")

	// ErrSandboxViolation indicates the snippet referenced a capability it
	// is not granted, such as a disallowed import or an unbound name.
	ErrSandboxViolation = errors.New("sandbox violation")

	// ErrLimitExceeded indicates that an execution limit was reached,
	// such as timeout or maximum tool calls.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrRuntime indicates an error raised while evaluating the snippet,
	// such as division by zero or a failed tool call.
	ErrRuntime = errors.New("runtime error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// CodeError represents an error that occurred while compiling or running a
// code snippet. It includes optional source location information for
// debugging.
type CodeError struct {
	// Message describes the error.
	Message string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int

	// Err is the underlying sentinel, if any.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CodeError) Unwrap() error {
	return e.Err
}
