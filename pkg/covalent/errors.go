package covalent

import (
	"fmt"
)

// ErrorType represents the category of a failed upstream call.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeClient     ErrorType = "client"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// APIError is returned by every Client method on failure.
type APIError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func NewNetworkError(cause error) *APIError {
	return &APIError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

func NewTimeoutError(cause error) *APIError {
	return &APIError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewValidationError reports a response that arrived but could not be used.
func NewValidationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// ClassifyHTTPError maps a non-success status code to an APIError. The
// upstream error message is kept when the body carried one.
func ClassifyHTTPError(statusCode int, message string) *APIError {
	e := &APIError{StatusCode: statusCode, Message: message}
	switch {
	case statusCode == 429:
		e.Type, e.Retryable = ErrorTypeRateLimit, true
		if e.Message == "" {
			e.Message = "rate limit exceeded"
		}
	case statusCode >= 500:
		e.Type, e.Retryable = ErrorTypeServer, true
		if e.Message == "" {
			e.Message = "server returned an error"
		}
	case statusCode >= 400:
		e.Type = ErrorTypeClient
		if e.Message == "" {
			e.Message = fmt.Sprintf("client error: HTTP %d", statusCode)
		}
	default:
		e.Type = ErrorTypeUnknown
		if e.Message == "" {
			e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
		}
	}
	return e
}
