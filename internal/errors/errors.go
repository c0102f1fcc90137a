// Package errors defines the coded error taxonomy used across stackup.
// Every failure that reaches the CLI carries one of these codes.
package errors

import (
	"errors"
	"fmt"
	"io"
)

// Code is a stable error code string.
type Code string

const (
	CodeUsage               Code = "USAGE"
	CodeConfigInvalid       Code = "CONFIG_INVALID"
	CodePrerequisiteMissing Code = "PREREQUISITE_MISSING"
	CodeProvisioningDenied  Code = "PROVISIONING_DENIED"
	CodeArtifactConflict    Code = "ARTIFACT_CONFLICT"
	CodeArtifactIO          Code = "ARTIFACT_IO"
	CodePhaseOrder          Code = "PHASE_ORDER"
	CodePostcondition       Code = "POSTCONDITION"
	CodeAborted             Code = "ABORTED"
	CodeInternal            Code = "INTERNAL"
)

// Error carries a code, a message, an optional cause and metadata.
type Error struct {
	Code    Code
	Message string
	Err     error
	Meta    map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// WithMeta attaches metadata to the error.
func (e *Error) WithMeta(k string, v any) *Error {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

// New creates a new Error with code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with code and message.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the outermost code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error has the provided code (through unwrapping).
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ExitCode returns the process exit code for err.
// 0 for nil, 2 for usage and config errors, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeUsage, CodeConfigInvalid:
		return 2
	}
	return 1
}

// Print writes err to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "error_code: %s\n", CodeInternal)
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", e.Code)
	if e.Err != nil {
		fmt.Fprintf(w, "%s: %v\n", e.Message, e.Err)
	} else {
		fmt.Fprintln(w, e.Message)
	}
}
