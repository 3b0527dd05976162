package api

import (
	"net/http"

	"github.com/ledgerline/docket/internal/config"
	"github.com/ledgerline/docket/pkg/openapi"
	"github.com/ledgerline/docket/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Intake.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
	routes.Register(mux, domain.Cases.Handler().Routes())
	routes.Register(mux, domain.Comms.Handler().Routes())

	storage := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)
	routes.Register(mux, storage.routes())

	spec := buildSpec(cfg)
	if specBytes, err := openapi.MarshalJSON(spec); err == nil {
		mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))
	} else {
		runtime.Logger.Warn("openapi spec serialization failed", "error", err)
	}
}
