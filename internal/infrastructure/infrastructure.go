// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, sessions, inference,
// agent runtime) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ledgerline/docket/internal/adk"
	"github.com/ledgerline/docket/internal/config"
	"github.com/ledgerline/docket/internal/inference"
	"github.com/ledgerline/docket/internal/sessions"
	"github.com/ledgerline/docket/pkg/database"
	"github.com/ledgerline/docket/pkg/lifecycle"
	"github.com/ledgerline/docket/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, session state, the inference
// client, and the agent runtime client.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Sessions  sessions.Store
	Inference *inference.Client
	Runtime   *adk.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	sessionStore, err := sessions.New(&cfg.Sessions, logger)
	if err != nil {
		return nil, fmt.Errorf("sessions init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Sessions:  sessionStore,
		Inference: inference.New(&cfg.Inference, logger),
		Runtime:   adk.New(&cfg.ADK, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
