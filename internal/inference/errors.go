package inference

import (
	"errors"
	"net/http"
)

// Client errors for remote inference calls.
var (
	// ErrMissingKey indicates no API key is configured. Raised at first
	// use, never at startup.
	ErrMissingKey = errors.New("inference api key not configured")
	// ErrTimeout indicates the per-call deadline elapsed before a response.
	ErrTimeout = errors.New("inference call timed out")
	// ErrUnavailable indicates retries were exhausted against transient
	// upstream failures.
	ErrUnavailable = errors.New("inference service unavailable")
	// ErrUpstream indicates a non-retryable upstream failure status.
	ErrUpstream = errors.New("inference request rejected")
	// ErrEmptyResponse indicates the upstream returned no generated text.
	ErrEmptyResponse = errors.New("inference response contained no text")
)

// MapHTTPStatus maps inference errors to HTTP status codes. Timeouts map
// to 504 so callers can distinguish them from exhausted-retry failures.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
