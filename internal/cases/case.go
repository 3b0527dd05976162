// Package cases implements the durable archive of pipeline runs.
// Each completed or halted run is recorded with its ordered step
// sequence so results survive process restarts and feed client
// correspondence drafting.
package cases

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/docket/internal/pipeline"
)

// Run is an archived pipeline execution.
type Run struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	State      string    `json:"state"`
	Outcome    string    `json:"outcome"`
	Status     string    `json:"status"`
	Likelihood int       `json:"likelihood"`
	Pros       string    `json:"pros"`
	Cons       string    `json:"cons"`
	CreatedAt  time.Time `json:"created_at"`
	Steps      []Step    `json:"steps,omitempty"`
}

// Step is one archived entry of a run's ordered step sequence.
type Step struct {
	RunID      uuid.UUID `json:"run_id"`
	Seq        int       `json:"seq"`
	StepName   string    `json:"step_name"`
	Status     string    `json:"status"`
	ResultText string    `json:"result_text"`
	Success    bool      `json:"success_flag"`
}

// CreateCommand carries a finished pipeline result into the archive.
type CreateCommand struct {
	Result *pipeline.Result
}
