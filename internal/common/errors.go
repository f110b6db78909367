package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy for the extraction pipeline. Per-file failures (ErrModel,
// ErrParse) never abort a batch; ErrSnapshot at load time degrades to an
// empty store.
var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrModel        = errors.New("model extraction failed")
	ErrParse        = errors.New("model response is not valid JSON")
	ErrSnapshot     = errors.New("snapshot unreadable")
	ErrNotFound     = errors.New("record not found")
	ErrBusy         = errors.New("a batch is already running")
	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError constructs an AppError with an underlying cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
