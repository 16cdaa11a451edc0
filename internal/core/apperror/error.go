// Package apperror provides structured error handling for the analytics engine.
// All validation and constraint failures must use AppError so callers can
// distinguish "no data yet" (empty result, nil error) from "computation failed".
package apperror

import (
	"errors"
	"fmt"
)

// Error codes for the engine's failure taxonomy
const (
	// CodeInvalidInput covers malformed inputs that make a computation
	// impossible: non-positive lead time, negative stock, unsupported
	// service level, empty required series.
	CodeInvalidInput = "INVALID_INPUT"

	// CodeInsufficientHistory is advisory: statistics over a short window
	// degrade gracefully, they never abort a computation.
	CodeInsufficientHistory = "INSUFFICIENT_HISTORY"

	// CodeConstraintViolation covers parameters that make planning
	// impossible, e.g. non-positive batch limits for the wave planner.
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"

	// CodeInternal covers unexpected failures.
	CodeInternal = "INTERNAL_ERROR"
)

// AppError is the standard error type for the engine.
// It implements the error interface and carries structured details.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, offending values)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInvalidInput creates an input validation error
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// NewConstraintViolation creates an error for parameters that make the
// requested computation impossible.
func NewConstraintViolation(message string) *AppError {
	return &AppError{
		Code:    CodeConstraintViolation,
		Message: message,
	}
}

// NewInsufficientHistory creates the advisory short-history error.
// Callers surface it as a warning, never as a hard failure.
func NewInsufficientHistory(have, want int) *AppError {
	return &AppError{
		Code:    CodeInsufficientHistory,
		Message: fmt.Sprintf("sales history has %d days, %d recommended", have, want),
		Details: map[string]any{"have_days": have, "want_days": want},
	}
}

// NewInternal creates an internal error wrapping an unexpected failure
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// --- Per-record bulk failures ---

// RecordError reports one malformed record inside an otherwise valid bulk
// request. The record is skipped; the rest of the batch still computes.
type RecordError struct {
	// Index is the record's position in the input slice
	Index int `json:"index"`

	// ID identifies the offending record (product or order id)
	ID string `json:"id"`

	// Err is the validation failure for this record
	Err error `json:"error"`
}

// Error implements error interface
func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
}

// Unwrap returns the per-record cause
func (e RecordError) Unwrap() error {
	return e.Err
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode checks if error carries the given engine code
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsInvalidInput checks if error is CodeInvalidInput
func IsInvalidInput(err error) bool {
	return HasCode(err, CodeInvalidInput)
}

// IsConstraintViolation checks if error is CodeConstraintViolation
func IsConstraintViolation(err error) bool {
	return HasCode(err, CodeConstraintViolation)
}
