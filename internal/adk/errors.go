package adk

import (
	"errors"
	"net/http"
)

// Client errors for agent-runtime calls.
var (
	// ErrRuntimeUnreachable indicates the agent runtime could not be
	// reached or rejected the call. Fatal for the current pipeline run.
	ErrRuntimeUnreachable = errors.New("agent runtime unreachable")
	// ErrNoOutput indicates the run produced no text events.
	ErrNoOutput = errors.New("agent run produced no output")
)

// MapHTTPStatus maps runtime errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRuntimeUnreachable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrNoOutput) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
