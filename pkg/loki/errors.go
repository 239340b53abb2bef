package loki

import (
	"errors"
	"fmt"
	"time"
)

// Error type labels reported by ErrorType. They are stable and used as metric
// label values, span attributes and tool-server error codes.
const (
	ErrorTypeInvalidArgument = "invalid_argument"
	ErrorTypeConfig          = "config"
	ErrorTypeUnreachable     = "unreachable"
	ErrorTypeTimeout         = "timeout"
	ErrorTypeQuery           = "query"
	ErrorTypeParse           = "parse"
	ErrorTypeUnknown         = "unknown"
)

// InvalidArgumentError represents bad caller input, such as a negative
// lookback window or an unknown query direction.
type InvalidArgumentError struct {
	// Field is the name of the offending argument
	Field string

	// Message describes what is wrong with the argument
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// ConfigError represents a client setup problem, such as an empty base URL
// or conflicting credentials.
type ConfigError struct {
	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("loki client configuration error for field %q: %s", e.Field, e.Message)
}

// UnreachableError represents a transport-level failure: DNS resolution,
// refused connections, timeouts and cancelled requests.
type UnreachableError struct {
	// Endpoint is the URL the client tried to reach (without query string)
	Endpoint string

	// Timeout is true when the request exceeded the configured timeout
	Timeout bool

	// After is the configured timeout, set when Timeout is true
	After time.Duration

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("failed to reach loki at %s: timeout after %s", e.Endpoint, e.After)
	}
	return fmt.Sprintf("failed to reach loki at %s: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *UnreachableError) Unwrap() error {
	return e.Cause
}

// QueryError represents a non-2xx response from the backend. It carries the
// status code and the raw response body.
type QueryError struct {
	// StatusCode is the HTTP status code returned by the backend
	StatusCode int

	// Body is the response body, usually the backend's error message
	Body string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("loki query failed with HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError represents a successful response whose body is not valid JSON.
type ParseError struct {
	// RawResponse is the body that failed to parse
	RawResponse string

	// Cause is the underlying decode error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("loki response parse error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrorType classifies err into one of the ErrorType* labels.
func ErrorType(err error) string {
	var (
		invalidArg  *InvalidArgumentError
		configErr   *ConfigError
		unreachable *UnreachableError
		queryErr    *QueryError
		parseErr    *ParseError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalidArg):
		return ErrorTypeInvalidArgument
	case errors.As(err, &configErr):
		return ErrorTypeConfig
	case errors.As(err, &unreachable):
		if unreachable.Timeout {
			return ErrorTypeTimeout
		}
		return ErrorTypeUnreachable
	case errors.As(err, &queryErr):
		return ErrorTypeQuery
	case errors.As(err, &parseErr):
		return ErrorTypeParse
	default:
		return ErrorTypeUnknown
	}
}
