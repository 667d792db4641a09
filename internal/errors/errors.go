package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. Each maps to one machine-readable code in --json output.
const (
	ErrConfig  = "CONFIG"  // config file, flags or credentials
	ErrExec    = "EXEC"    // the control interface ran and failed
	ErrSSH     = "SSH"     // the node's host couldn't be reached
	ErrParse   = "PARSE"   // node output wasn't understood
	ErrInput   = "INPUT"   // operator input rejected before running
	ErrAddress = "ADDRESS" // address validation, QR encoding, address book
)

// Error is what btcdash prints when a command fails:
//
//	✗ <what failed>
//
//	  <cause, when there is one>
//
//	  <what to do about it>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates an error with no underlying cause.
func New(code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// Wrap attaches a message to err under ErrExec.
func Wrap(err error, message string) *Error {
	return WrapWithCode(err, ErrExec, message, "")
}

// WrapWithCode attaches a code, message and suggestion to err.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)
	for _, extra := range []string{e.causeText(), e.Suggestion} {
		if extra != "" {
			fmt.Fprintf(&b, "\n  %s\n", extra)
		}
	}
	return b.String()
}

func (e *Error) causeText() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) string {
	var dashErr *Error
	if errors.As(err, &dashErr) {
		return dashErr.Code
	}
	return ""
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// ExitError makes the process exit with Code and print nothing more. One-shot
// commands return it once they have already reported the failure themselves.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError for the given code.
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
