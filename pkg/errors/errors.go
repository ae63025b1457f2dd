// Package errors provides structured error types for houndview.
//
// Errors carry a machine-readable [Code] so the CLI and the HTTP service
// can react to a failure class without matching on message text.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND, PATH_NOT_FOUND, NO_RESULTS: Empty answers from the API
//   - NETWORK_*, TIMEOUT, RATE_LIMITED: Transport failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidItemID, "not an edge: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidItemID) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "shortest path %s -> %s", a, b)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidSearchType Code = "INVALID_SEARCH_TYPE"
	ErrCodeInvalidItemID     Code = "INVALID_ITEM_ID"
	ErrCodeInvalidCypher     Code = "INVALID_CYPHER"
	ErrCodeInvalidEdgeKind   Code = "INVALID_EDGE_KIND"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Empty answers
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodePathNotFound Code = "PATH_NOT_FOUND"
	ErrCodeNoResults    Code = "NO_RESULTS"
	ErrCodeEmptyResult  Code = "EMPTY_RESULT"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

// CodeForStatus maps an API response status to an error code.
func CodeForStatus(status int) Code {
	switch {
	case status == 401:
		return ErrCodeUnauthorized
	case status == 403:
		return ErrCodeForbidden
	case status == 404:
		return ErrCodeNotFound
	case status == 408 || status == 504:
		return ErrCodeTimeout
	case status == 429:
		return ErrCodeRateLimited
	case status >= 400 && status < 500:
		return ErrCodeInvalidInput
	default:
		return ErrCodeNetwork
	}
}

// HTTPStatus returns the status the HTTP service answers with for code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidSearchType, ErrCodeInvalidItemID,
		ErrCodeInvalidCypher, ErrCodeInvalidEdgeKind, ErrCodeInvalidFormat:
		return 400
	case ErrCodeUnauthorized:
		return 401
	case ErrCodeForbidden:
		return 403
	case ErrCodeNotFound, ErrCodePathNotFound, ErrCodeNoResults, ErrCodeEmptyResult:
		return 404
	case ErrCodeRateLimited:
		return 429
	case ErrCodeNetwork, ErrCodeTimeout:
		return 502
	default:
		return 500
	}
}
