package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/ledgerline/docket/internal/adk"
	"github.com/ledgerline/docket/internal/pipeline"
	"github.com/ledgerline/docket/internal/report"
	"github.com/ledgerline/docket/internal/sessions"
)

// fakeRunner scripts agent responses per invocation and records prompts.
type fakeRunner struct {
	prompts   []string
	responses []string
	errs      []error
	calls     int
}

func (f *fakeRunner) Run(_ context.Context, _ string, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	i := f.calls
	f.calls++

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i)
}

func newOrchestrator(runner adk.Runner, store sessions.Store) *pipeline.Orchestrator {
	return pipeline.New(runner, store, slog.Default())
}

func TestExecuteFullRun(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Initial review of the lease dispute. SUFFICIENT DATA",
		"Sorted the evidence by relevance. SUFFICIENT DATA",
		"Cross-referenced exhibits with the timeline. SUFFICIENT DATA",
		"Final determination. ACCEPT CASE\n<STATUS>approved</STATUS>\n<PERCENTAGE>70%</PERCENTAGE>\n<PROS>signed lease</PROS>\n<CONS>late filing</CONS>",
	}}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	result, err := o.Execute(t.Context(), "sess-1", "Tenant reports unreturned deposit of $2400.")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.State != pipeline.StateDone {
		t.Errorf("state: got %s, want DONE", result.State)
	}
	if result.Outcome != pipeline.OutcomeAccepted {
		t.Errorf("outcome: got %s, want ACCEPTED", result.Outcome)
	}
	if result.Halted() {
		t.Error("Halted() should be false")
	}

	wantSteps := []string{"INGEST", "STAGE_1_REVIEW", "STAGE_2_SORT", "STAGE_3_SORT", "STAGE_4_SYNTHESIS"}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("steps: got %d, want %d", len(result.Steps), len(wantSteps))
	}
	for i, step := range result.Steps {
		if step.StepName != wantSteps[i] {
			t.Errorf("step %d: got %s, want %s", i, step.StepName, wantSteps[i])
		}
		if step.Status != pipeline.StatusComplete {
			t.Errorf("step %d status: got %s, want COMPLETE", i, step.Status)
		}
		if !step.Success {
			t.Errorf("step %d success flag should be true", i)
		}
	}

	if result.Report == nil {
		t.Fatal("report missing after synthesis")
	}
	if result.Report.Status != report.StatusApproved {
		t.Errorf("report status: got %s, want approved", result.Report.Status)
	}
	if result.Report.Likelihood != 70 {
		t.Errorf("report likelihood: got %d, want 70", result.Report.Likelihood)
	}

	if got, _ := store.Get(t.Context(), "sess-1"); got != "" {
		t.Errorf("session should be cleared after completion, got %q", got)
	}
}

func TestExecuteHaltsOnReject(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Initial review complete. SUFFICIENT DATA",
		"The claim is time-barred. REJECT CASE",
	}}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	result, err := o.Execute(t.Context(), "sess-2", "Dispute over a 2015 verbal agreement.")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.State != pipeline.StateHalted {
		t.Errorf("state: got %s, want HALTED", result.State)
	}
	if result.Outcome != pipeline.OutcomeRejected {
		t.Errorf("outcome: got %s, want REJECTED", result.Outcome)
	}
	if !result.Halted() {
		t.Error("Halted() should be true")
	}

	if len(result.Steps) != 3 {
		t.Fatalf("steps: got %d, want 3 (ingest, stage 1, halting stage 2)", len(result.Steps))
	}
	last := result.Steps[2]
	if last.StepName != "STAGE_2_SORT" {
		t.Errorf("last step: got %s, want STAGE_2_SORT", last.StepName)
	}
	if last.Status != pipeline.StatusHalted {
		t.Errorf("last status: got %s, want HALTED", last.Status)
	}
	if last.Success {
		t.Error("halting step success flag should be false")
	}
	if runner.calls != 2 {
		t.Errorf("agent calls: got %d, want 2 (no stages after halt)", runner.calls)
	}

	if got, _ := store.Get(t.Context(), "sess-2"); got != "" {
		t.Errorf("session should be cleared after halt, got %q", got)
	}
}

func TestExecuteHaltsOnInsufficient(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"No supporting documents were provided. INSUFFICIENT DATA",
	}}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	result, err := o.Execute(t.Context(), "sess-3", "One-line complaint with no attachments.")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.State != pipeline.StateHalted {
		t.Errorf("state: got %s, want HALTED", result.State)
	}
	if result.Outcome != pipeline.OutcomeInsufficient {
		t.Errorf("outcome: got %s, want INSUFFICIENT", result.Outcome)
	}
	if runner.calls != 1 {
		t.Errorf("agent calls: got %d, want 1", runner.calls)
	}
}

func TestExecuteTransportFailure(t *testing.T) {
	runner := &fakeRunner{
		responses: []string{"Initial review complete. SUFFICIENT DATA"},
		errs:      []error{nil, adk.ErrRuntimeUnreachable},
	}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	result, err := o.Execute(t.Context(), "sess-4", "Case text.")
	if err != nil {
		t.Fatalf("Execute() error = %v (transport failures halt, not fail)", err)
	}

	if result.State != pipeline.StateHalted {
		t.Errorf("state: got %s, want HALTED", result.State)
	}
	if result.Outcome != pipeline.OutcomeError {
		t.Errorf("outcome: got %s, want ERROR", result.Outcome)
	}

	last := result.Steps[len(result.Steps)-1]
	if last.Status != pipeline.StatusADKError {
		t.Errorf("last status: got %s, want ADK ERROR", last.Status)
	}
	if !strings.Contains(last.ResultText, "CRITICAL") {
		t.Errorf("result text should flag the failure, got %q", last.ResultText)
	}
}

func TestExecuteNoInput(t *testing.T) {
	runner := &fakeRunner{}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	_, err := o.Execute(t.Context(), "sess-5", "   ")
	if err == nil {
		t.Fatal("expected error for empty input with no session context")
	}
	if !strings.Contains(err.Error(), "no case text") {
		t.Errorf("error should name the missing input, got %v", err)
	}
	if runner.calls != 0 {
		t.Errorf("no agent should run without input, got %d calls", runner.calls)
	}
}

func TestExecuteUsesSessionContext(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Re-reviewed with the new exhibit. SUFFICIENT DATA",
		"Sorted. SUFFICIENT DATA",
		"Cross-referenced. SUFFICIENT DATA",
		"Final. ACCEPT CASE <STATUS>approved</STATUS>",
	}}
	store := sessions.NewMemory()
	store.Set(t.Context(), "sess-6", "Prior summary from an earlier stage.")
	o := newOrchestrator(runner, store)

	if _, err := o.Execute(t.Context(), "sess-6", "Newly uploaded contract text."); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	first := runner.prompts[0]
	if !strings.Contains(first, "CUMULATIVE CASE SUMMARY") {
		t.Error("first prompt missing cumulative section header")
	}
	if !strings.Contains(first, "Prior summary from an earlier stage.") {
		t.Error("first prompt missing prior session context")
	}
	if !strings.Contains(first, "NEW EVIDENCE UPLOADED") {
		t.Error("first prompt missing new evidence header")
	}
	if !strings.Contains(first, "Newly uploaded contract text.") {
		t.Error("first prompt missing new evidence text")
	}
	if !strings.HasSuffix(first, "Action: Sort_Initial") {
		t.Errorf("first prompt should end with the routing keyword, got %q", first)
	}

	// evidence is consumed by the first stage; later prompts carry only
	// the accumulated summary
	second := runner.prompts[1]
	if strings.Contains(second, "NEW EVIDENCE UPLOADED") {
		t.Error("second prompt should not repeat consumed evidence")
	}
	if !strings.Contains(second, "Re-reviewed with the new exhibit.") {
		t.Error("second prompt missing stage 1 summary")
	}
	if !strings.HasSuffix(second, "Action: Sort") {
		t.Errorf("second prompt keyword: got %q", second)
	}

	if !strings.HasSuffix(runner.prompts[2], "Action: Wraggler2") {
		t.Errorf("third prompt keyword: got %q", runner.prompts[2])
	}
	final := runner.prompts[3]
	if !strings.HasSuffix(final, "Action: Wraggler3") {
		t.Errorf("final prompt keyword: got %q", final)
	}
	if !strings.Contains(final, "<STATUS>") {
		t.Error("final prompt missing the structured trailer instructions")
	}
}

func TestExecuteFirstPromptOmitsHeaders(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Reviewed the fresh complaint. SUFFICIENT DATA",
		"Sorted. SUFFICIENT DATA",
		"Cross-referenced. SUFFICIENT DATA",
		"Final. ACCEPT CASE <STATUS>approved</STATUS>",
	}}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	if _, err := o.Execute(t.Context(), "sess-10", "Fresh complaint text."); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	first := runner.prompts[0]
	if strings.Contains(first, "CUMULATIVE CASE SUMMARY") {
		t.Error("first prompt of a fresh session should have no cumulative header")
	}
	if strings.Contains(first, "NEW EVIDENCE UPLOADED") {
		t.Error("first prompt of a fresh session should have no evidence header")
	}
	if !strings.Contains(first, "Fresh complaint text.") {
		t.Error("first prompt missing the case text")
	}
	if !strings.HasSuffix(first, "Action: Sort_Initial") {
		t.Errorf("first prompt should end with the routing keyword, got %q", first)
	}

	// a summary now exists, so later prompts are framed
	second := runner.prompts[1]
	if !strings.Contains(second, "CUMULATIVE CASE SUMMARY") {
		t.Error("second prompt missing cumulative section header")
	}
}

func TestExecuteStage(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Stage one summary of the uploaded filings. SUFFICIENT DATA",
	}}
	store := sessions.NewMemory()
	o := newOrchestrator(runner, store)

	step, err := o.ExecuteStage(t.Context(), "sess-7", 1, "Uploaded filings text.")
	if err != nil {
		t.Fatalf("ExecuteStage() error = %v", err)
	}

	if step.StepName != "STAGE_1_REVIEW" {
		t.Errorf("step name: got %s", step.StepName)
	}
	if step.Status != pipeline.StatusComplete {
		t.Errorf("status: got %s, want COMPLETE", step.Status)
	}

	got, _ := store.Get(t.Context(), "sess-7")
	if got != "Stage one summary of the uploaded filings. SUFFICIENT DATA" {
		t.Errorf("session should hold the stage output, got %q", got)
	}
}

func TestExecuteStageFinalClearsSession(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Determination. ACCEPT CASE <STATUS>approved</STATUS>",
	}}
	store := sessions.NewMemory()
	store.Set(t.Context(), "sess-8", "Accumulated summary.")
	o := newOrchestrator(runner, store)

	step, err := o.ExecuteStage(t.Context(), "sess-8", 4, "")
	if err != nil {
		t.Fatalf("ExecuteStage() error = %v", err)
	}
	if step.StepName != "STAGE_4_SYNTHESIS" {
		t.Errorf("step name: got %s", step.StepName)
	}

	if got, _ := store.Get(t.Context(), "sess-8"); got != "" {
		t.Errorf("session should be cleared after synthesis, got %q", got)
	}
}

func TestExecuteStageNoInput(t *testing.T) {
	runner := &fakeRunner{}
	o := newOrchestrator(runner, sessions.NewMemory())

	_, err := o.ExecuteStage(t.Context(), "sess-11", 1, "   ")
	if !errors.Is(err, pipeline.ErrNoInput) {
		t.Fatalf("error = %v, want ErrNoInput", err)
	}
	if runner.calls != 0 {
		t.Errorf("no agent should run without input, got %d calls", runner.calls)
	}
}

func TestExecuteStageEmptyTextWithContext(t *testing.T) {
	runner := &fakeRunner{responses: []string{
		"Sorted using the accumulated summary. SUFFICIENT DATA",
	}}
	store := sessions.NewMemory()
	store.Set(t.Context(), "sess-12", "Accumulated summary from stage 1.")
	o := newOrchestrator(runner, store)

	step, err := o.ExecuteStage(t.Context(), "sess-12", 2, "")
	if err != nil {
		t.Fatalf("ExecuteStage() error = %v (session context is valid input)", err)
	}
	if step.Status != pipeline.StatusComplete {
		t.Errorf("status: got %s, want COMPLETE", step.Status)
	}
	if !strings.Contains(runner.prompts[0], "Accumulated summary from stage 1.") {
		t.Error("prompt missing the accumulated summary")
	}
}

func TestExecuteStageUnknown(t *testing.T) {
	o := newOrchestrator(&fakeRunner{}, sessions.NewMemory())

	for _, n := range []int{0, 5, -1} {
		if _, err := o.ExecuteStage(t.Context(), "sess", n, "text"); !errors.Is(err, pipeline.ErrUnknownStage) {
			t.Errorf("ExecuteStage(%d) error = %v, want ErrUnknownStage", n, err)
		}
	}
}

func TestExecuteStageTransportFailure(t *testing.T) {
	runner := &fakeRunner{errs: []error{adk.ErrRuntimeUnreachable}}
	o := newOrchestrator(runner, sessions.NewMemory())

	step, err := o.ExecuteStage(t.Context(), "sess-9", 2, "text")
	if !errors.Is(err, adk.ErrRuntimeUnreachable) {
		t.Fatalf("error = %v, want ErrRuntimeUnreachable", err)
	}
	if step.Status != pipeline.StatusADKError {
		t.Errorf("status: got %s, want ADK ERROR", step.Status)
	}
}

func TestStageByNumber(t *testing.T) {
	tests := []struct {
		number  int
		keyword string
		final   bool
	}{
		{1, "Sort_Initial", false},
		{2, "Sort", false},
		{3, "Wraggler2", false},
		{4, "Wraggler3", true},
	}

	for _, tt := range tests {
		spec, err := pipeline.StageByNumber(tt.number)
		if err != nil {
			t.Fatalf("StageByNumber(%d) error = %v", tt.number, err)
		}
		if spec.Keyword != tt.keyword {
			t.Errorf("stage %d keyword: got %s, want %s", tt.number, spec.Keyword, tt.keyword)
		}
		if spec.Final != tt.final {
			t.Errorf("stage %d final: got %v, want %v", tt.number, spec.Final, tt.final)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no input maps to 400", pipeline.ErrNoInput, http.StatusBadRequest},
		{"unknown stage maps to 400", pipeline.ErrUnknownStage, http.StatusBadRequest},
		{"runtime unreachable maps to 503", adk.ErrRuntimeUnreachable, http.StatusServiceUnavailable},
		{"unknown maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pipeline.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
