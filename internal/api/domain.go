package api

import (
	"github.com/ledgerline/docket/internal/cases"
	"github.com/ledgerline/docket/internal/comms"
	"github.com/ledgerline/docket/internal/intake"
	"github.com/ledgerline/docket/internal/normalize"
	"github.com/ledgerline/docket/internal/pipeline"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Intake intake.System
	Cases  cases.System
	Comms  comms.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	casesSystem := cases.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	normalizer := normalize.New(
		runtime.Inference,
		normalize.Options{},
		runtime.Logger,
	)

	orchestrator := pipeline.New(
		runtime.Runtime,
		runtime.Sessions,
		runtime.Logger,
	)

	intakeSystem := intake.New(
		normalizer,
		orchestrator,
		runtime.Sessions,
		runtime.Runtime,
		runtime.Storage,
		casesSystem,
		runtime.Logger,
	)

	commsSystem := comms.New(
		runtime.Agent,
		casesSystem,
		runtime.Logger,
	)

	return &Domain{
		Intake: intakeSystem,
		Cases:  casesSystem,
		Comms:  commsSystem,
	}
}
