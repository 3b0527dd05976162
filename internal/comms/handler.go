package comms

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ledgerline/docket/internal/cases"
	"github.com/ledgerline/docket/pkg/handlers"
	"github.com/ledgerline/docket/pkg/routes"
)

// Handler provides HTTP endpoints for correspondence drafting.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "comms"),
	}
}

// Routes returns the route group definition for correspondence endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/cases",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/draft", Handler: h.Draft},
		},
	}
}

// Draft composes a client letter for an archived run.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, cases.ErrInvalidRun)
		return
	}

	draft, err := h.sys.Draft(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, draft)
}
