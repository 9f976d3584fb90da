// Package errors provides coded errors for the save uploader.
//
// Every recoverable failure in the watch loop is wrapped with the operation
// and path that failed, so the rendered message reads as a causal chain:
//
//	unable to upload zip: /saves/autosave.eu4: quota exceeded
//
// Callers branch on the code rather than on the text:
//
//	if errors.Is(err, errors.ErrSignature) {
//	    // file was not a save we know how to upload
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeIO          Code = "IO"
	CodeSignature   Code = "SIGNATURE"
	CodeUpload      Code = "UPLOAD"
	CodeWatch       Code = "WATCH"
	CodeConfig      Code = "CONFIG"
	CodeNotFound    Code = "NOT_FOUND"
	CodeValidation  Code = "VALIDATION"
	CodeUnsupported Code = "UNSUPPORTED"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrIO          = &Error{Code: CodeIO, Message: "i/o error"}
	ErrSignature   = &Error{Code: CodeSignature, Message: "unexpected file signature"}
	ErrUpload      = &Error{Code: CodeUpload, Message: "upload failed"}
	ErrWatch       = &Error{Code: CodeWatch, Message: "watch error"}
	ErrConfig      = &Error{Code: CodeConfig, Message: "configuration error"}
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnsupported = &Error{Code: CodeUnsupported, Message: "unsupported"}
)

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unsupportedf creates an unsupported-operation error with formatted message.
func Unsupportedf(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupported, Message: fmt.Sprintf(format, args...)}
}
