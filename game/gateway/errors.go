package gateway

import (
	"errors"
	"fmt"
	"time"
)

// LoopMarker is embedded in every loop-detection message.
const LoopMarker = "LOOP DETECTED"

// Outcome labels used in events and metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeBlocked      = "blocked"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// LoopDetectedError is synthesized locally when a signature repeats too often.
type LoopDetectedError struct {
	Signature string
	Count     int
	Window    time.Duration
	Elapsed   time.Duration
}

func (e *LoopDetectedError) Error() string {
	return fmt.Sprintf("%s: %s called %d times within %s (first call %s ago). "+
		"The data from previous calls is still valid; analyze it instead of requesting it again.",
		LoopMarker, e.Signature, e.Count, e.Window, e.Elapsed.Round(time.Millisecond))
}

// HTTPError reports a non-2xx response from the remote API.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request to %s failed: %s", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("API request to %s failed: %s: %s", e.Endpoint, e.Status, e.Body)
}

// NetworkError wraps a transport failure (DNS, refused connection, timeout).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports malformed input parameters.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid parameters: " + e.Reason
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// DecodeError reports a 2xx response whose body is not JSON.
type DecodeError struct {
	Endpoint string
	Body     string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("response from %s is not valid JSON: %s", e.Endpoint, truncate(e.Body, 200))
}

// IsLoopDetected reports whether err is, or wraps, a LoopDetectedError.
func IsLoopDetected(err error) bool {
	var loop *LoopDetectedError
	return errors.As(err, &loop)
}

// Outcome classifies err into one of the Outcome* labels.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	var (
		loop    *LoopDetectedError
		httpErr *HTTPError
		netErr  *NetworkError
		valErr  *ValidationError
	)
	switch {
	case errors.As(err, &loop):
		return OutcomeBlocked
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.As(err, &netErr):
		return OutcomeNetworkError
	case errors.As(err, &valErr):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
