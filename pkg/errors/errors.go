// Package errors provides the coded error type shared by the editor core,
// the HTTP API and the desktop front-end.
//
// Every failure the editor can report to a user carries a Code so callers
// can branch on it without string matching:
//
//	err := errors.New(errors.ErrCodeNoSelection, "no feature selected")
//	if errors.Is(err, errors.ErrCodeNoSelection) {
//	    // ask the user to pick a feature
//	}
//
// Wrap keeps the underlying cause available to errors.Unwrap, and Is walks
// the whole chain, so a PERSISTENCE error wrapping a PERMISSION_DENIED error
// answers to both codes.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes.
const (
	// Placement state errors
	ErrCodeNoCanvas           Code = "NO_CANVAS"
	ErrCodeNoSelection        Code = "NO_SELECTION"
	ErrCodeNothingToUndo      Code = "NOTHING_TO_UNDO"
	ErrCodeNoPreview          Code = "NO_PREVIEW"
	ErrCodeUnconfirmedPreview Code = "UNCONFIRMED_PREVIEW"

	// Catalog errors
	ErrCodeAssetNotFound Code = "ASSET_NOT_FOUND"

	// Persistence errors
	ErrCodePersistence       Code = "PERSISTENCE"
	ErrCodePermissionDenied  Code = "PERMISSION_DENIED"
	ErrCodeEncoding          Code = "ENCODING"
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"

	// Request errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error.
// Returns empty string if err carries no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error, without the code
// prefix, suitable for a status line. Errors without a code fall back to
// err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Code == ErrCodePersistence {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
