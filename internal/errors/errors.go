// Package errors provides the service error taxonomy. Every error crossing a
// package boundary carries a machine-readable code so callers can branch on
// kind without string matching.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of failure.
type ErrorCode string

const (
	// ErrCodeInvalidInput marks caller input errors. Never retried.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound marks a missing resource or stale reference.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict marks a business precondition violation (e.g. acting
	// on a draft that is not in the expected status).
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeAlreadySubmitted marks a re-submission of an in-flight draft.
	ErrCodeAlreadySubmitted ErrorCode = "ALREADY_SUBMITTED"
	// ErrCodeInvalidRule marks a rule description the compiler cannot turn
	// into a decision table. Never retried; the author must fix the rule.
	ErrCodeInvalidRule ErrorCode = "INVALID_RULE_DEFINITION"
	// ErrCodeEngineUnavailable marks a workflow engine call that failed
	// after exhausting retries.
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	// ErrCodeStoreUnavailable marks a draft or golden-record store call
	// that failed after exhausting retries.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeValidationFailed marks a decision document that failed
	// structural validation.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeInternal marks unexpected internal failures.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error is the service error type.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// New creates an error with a code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NotFound creates a NOT_FOUND error for a resource and id.
func NotFound(resource, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// InvalidInput creates an INVALID_INPUT error for a named field.
func InvalidInput(field, message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("%s: %s", field, message)}
}

// Code extracts the ErrorCode from any error in the chain.
// Returns ErrCodeInternal for errors that do not carry a code.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err (or any error it wraps) carries the code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && Code(err) == code
}

// IsRetryable reports whether the error is a transient infrastructure
// failure that already exhausted its client-side retries. Callers should
// surface these as "try again shortly", never as data loss.
func IsRetryable(err error) bool {
	code := Code(err)
	return code == ErrCodeEngineUnavailable || code == ErrCodeStoreUnavailable
}
