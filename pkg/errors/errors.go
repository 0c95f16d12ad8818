package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies errors that can occur during a collection run
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeNoWorkUnits ErrorType = "no_work_units"
	ErrorTypeRunFailed   ErrorType = "run_failed"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a collection error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	// Hint is shown to the operator alongside fatal errors (e.g.
	// "refresh your cookies"). Optional.
	Hint string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates an error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewWithCode creates an error carrying an HTTP status code
func NewWithCode(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// NoWorkUnits reports that a work-unit source produced nothing. The caller
// must be told explicitly rather than silently proceeding with an empty set.
func NoWorkUnits(message string) *Error {
	return &Error{
		Type:    ErrorTypeNoWorkUnits,
		Message: message,
		Hint:    "run 'igcollect followers' or 'igcollect parse' first, or pass an input file",
	}
}

// SessionExpired reports an authentication-invalid signal. Never retried.
func SessionExpired(code int) *Error {
	return &Error{
		Type:    ErrorTypeAuth,
		Message: "session expired or invalid",
		Code:    code,
		Hint:    "refresh your cookies and run 'igcollect auth login' again",
	}
}

// RateLimitExhausted reports that bounded backoff retries were used up.
// The run is resumable on the next invocation.
func RateLimitExhausted(attempts int) *Error {
	return &Error{
		Type:    ErrorTypeRateLimit,
		Message: fmt.Sprintf("rate limited after %d backoff attempts", attempts),
		Code:    429,
		Hint:    "wait a while and re-run; collection resumes from the last checkpoint",
	}
}

// RunFailed reports a remote run that terminated in a non-success state.
func RunFailed(runID, status string) *Error {
	return &Error{
		Type:    ErrorTypeRunFailed,
		Message: fmt.Sprintf("remote run %s terminated as %s", runID, status),
		Hint:    "check the backend console for run details, then re-run to resume",
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeNoWorkUnits, ErrorTypeRunFailed:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

// TypeOf returns the ErrorType of err, unwrapping wrapped errors, or
// ErrorTypeUnknown for plain errors
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}
