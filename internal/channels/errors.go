// Package channels holds the pieces shared by chat platform adapters:
// structured adapter errors and outbound message splitting.
package channels

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an adapter failure for logs and metrics.
type ErrorCode string

const (
	// ErrCodeConfig indicates a configuration error
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeConnection indicates the gateway connection could not be established or was lost
	ErrCodeConnection ErrorCode = "CONNECTION_ERROR"

	// ErrCodeAuthentication indicates the platform rejected the bot credentials
	ErrCodeAuthentication ErrorCode = "AUTH_ERROR"

	// ErrCodeRateLimit indicates the platform throttled the request
	ErrCodeRateLimit ErrorCode = "RATE_LIMIT_ERROR"

	// ErrCodeInvalidInput indicates a malformed outbound payload or inbound event
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeNotFound indicates the channel, message or interaction no longer exists
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInternal indicates an unexpected failure
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured adapter error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error

	// Context holds extra key-value pairs for logging
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithContext attaches a key-value pair and returns e.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool {
	return e.Code == ErrCodeConnection || e.Code == ErrCodeRateLimit
}

// ErrConfig creates a configuration error.
func ErrConfig(message string, err error) *Error {
	return NewError(ErrCodeConfig, message, err)
}

// ErrConnection creates a connection error.
func ErrConnection(message string, err error) *Error {
	return NewError(ErrCodeConnection, message, err)
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string, err error) *Error {
	return NewError(ErrCodeInvalidInput, message, err)
}

// ErrInternal creates an internal error.
func ErrInternal(message string, err error) *Error {
	return NewError(ErrCodeInternal, message, err)
}

// GetErrorCode returns the code of the first *Error in err's chain, or
// ErrCodeInternal.
func GetErrorCode(err error) ErrorCode {
	var chErr *Error
	if errors.As(err, &chErr) {
		return chErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err carries a transient *Error.
func IsRetryable(err error) bool {
	var chErr *Error
	return errors.As(err, &chErr) && chErr.Retryable()
}
