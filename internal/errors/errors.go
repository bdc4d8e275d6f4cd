package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig            = "CONFIG"
	ErrSourceUnavailable = "SOURCE_UNAVAILABLE"
	ErrSource            = "SOURCE"
	ErrAmbiguous         = "AMBIGUOUS"
	ErrUnreachable       = "UNREACHABLE"
	ErrExec              = "EXEC"
	ErrToolMissing       = "TOOL_MISSING"
	ErrUsage             = "USAGE"
)

// Process exit statuses used when the helper itself fails, as opposed to
// mirroring the exit status of the tool it forwarded to.
const (
	ExitFailure      = 1
	ExitUsage        = 2
	ExitToolNotFound = 127
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var tsErr *Error
	if errors.As(err, &tsErr) {
		return tsErr.Code == code
	}
	return false
}

// ExitError carries the exit status of a forwarded tool. It is not a failure
// of the helper: the CLI exits with Code and prints nothing.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError for the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError anywhere in the chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// ExitCode maps any error returned by a command to the process exit status.
// Forwarded exit codes win; structured errors map by code; anything else is a
// generic failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := GetExitCode(err); ok {
		return code
	}
	var tsErr *Error
	if errors.As(err, &tsErr) {
		switch tsErr.Code {
		case ErrUsage:
			return ExitUsage
		case ErrToolMissing:
			return ExitToolNotFound
		}
	}
	return ExitFailure
}
