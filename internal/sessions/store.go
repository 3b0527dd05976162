// Package sessions provides the case-session store: cumulative summary
// text keyed by session id, with memory and Redis backends.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
)

// Store defines the contract for session state access. An unknown session
// id reads as empty text, meaning no prior stage has run. The pipeline
// orchestrator is the sole writer; sessions are independent and keyed
// solely by id.
type Store interface {
	// Get returns the cumulative summary for the session, or "" when unset.
	Get(ctx context.Context, id string) (string, error)
	// Set replaces the cumulative summary for the session.
	Set(ctx context.Context, id, text string) error
	// Clear resets the session to the unset default.
	Clear(ctx context.Context, id string) error
}

// New creates a Store for the configured backend.
func New(cfg *Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return NewRedis(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown sessions backend: %s", cfg.Backend)
	}
}
