package api

import (
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/ledgerline/docket/internal/config"
	"github.com/ledgerline/docket/internal/infrastructure"
	"github.com/ledgerline/docket/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Agent      gaconfig.AgentConfig
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Sessions:  infra.Sessions,
			Inference: infra.Inference,
			Runtime:   infra.Runtime,
		},
		Agent:      cfg.Comms.Agent,
		Pagination: cfg.API.Pagination,
	}
}
