// Package pipeline drives the ordered sequence of agent invocations for
// a case session: ingest, initial review, two evidence sorts, and final
// synthesis, with conditional early termination on unfavorable
// recommendations and a distinct halt path for transport failures.
package pipeline

import (
	"github.com/ledgerline/docket/internal/report"
)

// Step statuses recorded in the run sequence.
const (
	StatusComplete = "COMPLETE"
	StatusHalted   = "HALTED"
	StatusADKError = "ADK ERROR"
)

// Terminal run states.
const (
	StateDone   = "DONE"
	StateHalted = "HALTED"
)

// Terminal case outcomes.
const (
	OutcomeAccepted     = "ACCEPTED"
	OutcomeRejected     = "REJECTED"
	OutcomeInsufficient = "INSUFFICIENT"
	OutcomeError        = "ERROR"
)

// StepName for the ingest step preceding stage 1.
const StepIngest = "INGEST"

// StepResult is one ordered entry in a pipeline run. The sequence is
// append-only within a run and never mutated retroactively.
type StepResult struct {
	StepName   string `json:"step_name"`
	Status     string `json:"status"`
	ResultText string `json:"result_text"`
	Success    bool   `json:"success_flag"`
}

// Result is the outcome of one pipeline execution: the terminal state,
// the ordered step sequence (short on halt), and the parsed synthesis
// report when stage 4 completed.
type Result struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Outcome   string         `json:"outcome,omitempty"`
	Steps     []StepResult   `json:"steps"`
	Report    *report.Report `json:"report,omitempty"`
}

// Halted reports whether the run stopped before completing all stages.
func (r *Result) Halted() bool {
	return r.State == StateHalted
}
