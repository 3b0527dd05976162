package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/ledgerline/docket/internal/adk"
	"github.com/ledgerline/docket/internal/recommend"
	"github.com/ledgerline/docket/internal/report"
	"github.com/ledgerline/docket/internal/sessions"
)

// KeyRun is the state-bag key carrying the run accumulator through the
// stage graph.
const KeyRun = "pipeline_run"

// runState accumulates a pipeline execution as it moves through the graph.
type runState struct {
	SessionID string
	NewText   string
	Steps     []StepResult
	Halted    bool
	Outcome   string
	Report    *report.Report
}

// Orchestrator drives pipeline runs. Stages are strictly sequential
// within a session; the orchestrator is the sole writer of session state.
type Orchestrator struct {
	runner adk.Runner
	store  sessions.Store
	logger *slog.Logger
}

// New creates an Orchestrator.
func New(runner adk.Runner, store sessions.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		store:  store,
		logger: logger.With("system", "pipeline"),
	}
}

// Execute runs the full pipeline for a session over newly ingested text.
// It returns the ordered step sequence: short on halt, full on
// completion. Graph execution errors are internal failures; stage-level
// agent failures are recorded as halt steps, not errors.
func (o *Orchestrator) Execute(ctx context.Context, sessionID, newText string) (*Result, error) {
	graph, err := o.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeyRun, runState{SessionID: sessionID, NewText: newText})

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(final)
}

// ExecuteStage runs a single 1-indexed stage for a session, for callers
// driving the pipeline one endpoint at a time. A stage with no new text
// and no accumulated session context fails before any agent is invoked.
func (o *Orchestrator) ExecuteStage(ctx context.Context, sessionID string, stageNumber int, newText string) (StepResult, error) {
	spec, err := StageByNumber(stageNumber)
	if err != nil {
		return StepResult{}, err
	}

	cumulative, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return StepResult{}, fmt.Errorf("%s: session read: %w", spec.Name, err)
	}
	if strings.TrimSpace(newText) == "" && cumulative == "" {
		return StepResult{}, fmt.Errorf("%s: %w", spec.Name, ErrNoInput)
	}

	rs := runState{SessionID: sessionID, NewText: newText}
	step := o.runStage(ctx, &rs, spec)

	if step.Status == StatusADKError {
		return step, fmt.Errorf("%w: %s", adk.ErrRuntimeUnreachable, step.ResultText)
	}

	return step, nil
}

// halted is the edge condition that routes a run to the terminal node.
func halted(s state.State) bool {
	rs, err := extractRun(s)
	if err != nil {
		return false
	}
	return rs.Halted
}

func (o *Orchestrator) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("docket-intake")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("ingest", o.ingestNode()); err != nil {
		return nil, err
	}
	for _, spec := range stageSpecs {
		if err := graph.AddNode(nodeName(spec), o.stageNode(spec)); err != nil {
			return nil, err
		}
	}
	if err := graph.AddNode("complete", o.completeNode()); err != nil {
		return nil, err
	}

	// ingest → stage 1, then each stage advances only while un-halted;
	// a halt at any point routes straight to the terminal node.
	prev := "ingest"
	for _, spec := range stageSpecs {
		name := nodeName(spec)
		if err := graph.AddEdge(prev, name, state.Not(halted)); err != nil {
			return nil, err
		}
		if err := graph.AddEdge(prev, "complete", halted); err != nil {
			return nil, err
		}
		prev = name
	}
	if err := graph.AddEdge(prev, "complete", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("ingest"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("complete"); err != nil {
		return nil, err
	}

	return graph, nil
}

func nodeName(spec StageSpec) string {
	return fmt.Sprintf("stage_%d", spec.Number)
}

// ingestNode records the ingest step. An empty batch with no prior
// session context halts before any agent is invoked.
func (o *Orchestrator) ingestNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		rs, err := extractRun(s)
		if err != nil {
			return s, fmt.Errorf("ingest: %w", err)
		}

		cumulative, err := o.store.Get(ctx, rs.SessionID)
		if err != nil {
			return s, fmt.Errorf("ingest: session read: %w", err)
		}

		if strings.TrimSpace(rs.NewText) == "" && cumulative == "" {
			return s, fmt.Errorf("ingest: %w", ErrNoInput)
		}

		rs.Steps = append(rs.Steps, StepResult{
			StepName:   StepIngest,
			Status:     StatusComplete,
			ResultText: fmt.Sprintf("ingested %d characters of case text", len(rs.NewText)),
			Success:    true,
		})

		o.logger.InfoContext(ctx, "ingest complete", "session", rs.SessionID, "chars", len(rs.NewText))

		return s.Set(KeyRun, *rs), nil
	})
}

// stageNode wraps one agent stage. Agent and transport failures are
// captured into the run state so the graph can route to the terminal
// node; they do not abort graph execution.
func (o *Orchestrator) stageNode(spec StageSpec) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		rs, err := extractRun(s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", spec.Name, err)
		}

		step := o.runStage(ctx, rs, spec)
		rs.Steps = append(rs.Steps, step)

		// new evidence is consumed by the first stage that sees it
		rs.NewText = ""

		return s.Set(KeyRun, *rs), nil
	})
}

// completeNode settles the terminal state of the run.
func (o *Orchestrator) completeNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		rs, err := extractRun(s)
		if err != nil {
			return s, fmt.Errorf("complete: %w", err)
		}

		o.logger.InfoContext(
			ctx, "pipeline run finished",
			"session", rs.SessionID,
			"halted", rs.Halted,
			"outcome", rs.Outcome,
			"steps", len(rs.Steps),
		)

		return s.Set(KeyRun, *rs), nil
	})
}

// runStage performs one agent invocation: compose the prompt from the
// accumulated session context and new evidence, dispatch, and classify
// the response. A transport failure halts with ADK ERROR, distinct from
// a content-based halt on a negative recommendation.
func (o *Orchestrator) runStage(ctx context.Context, rs *runState, spec StageSpec) StepResult {
	cumulative, err := o.store.Get(ctx, rs.SessionID)
	if err != nil {
		rs.Halted = true
		rs.Outcome = OutcomeError
		return StepResult{
			StepName:   spec.Name,
			Status:     StatusADKError,
			ResultText: fmt.Sprintf("session read failed: %v", err),
		}
	}

	prompt := composePrompt(cumulative, rs.NewText, spec)

	output, err := o.runner.Run(ctx, rs.SessionID, prompt)
	if err != nil {
		o.logger.ErrorContext(ctx, "stage transport failure", "stage", spec.Name, "error", err)
		rs.Halted = true
		rs.Outcome = OutcomeError
		return StepResult{
			StepName:   spec.Name,
			Status:     StatusADKError,
			ResultText: fmt.Sprintf("CRITICAL: agent runtime unreachable: %v", err),
		}
	}

	token, found := recommend.Extract(output)

	if recommend.Negative(token) {
		o.halt(ctx, rs, token)
		return StepResult{
			StepName:   spec.Name,
			Status:     StatusHalted,
			ResultText: output,
		}
	}

	if spec.Final {
		o.finalize(ctx, rs, output, token, found)
	} else if err := o.store.Set(ctx, rs.SessionID, output); err != nil {
		o.logger.WarnContext(ctx, "session write failed", "session", rs.SessionID, "error", err)
	}

	o.logger.InfoContext(
		ctx, "stage complete",
		"stage", spec.Name,
		"recommendation", string(token),
	)

	return StepResult{
		StepName:   spec.Name,
		Status:     StatusComplete,
		ResultText: output,
		Success:    true,
	}
}

// halt clears the session after an unfavorable recommendation. The
// triggering step is still recorded by the caller as the final entry.
func (o *Orchestrator) halt(ctx context.Context, rs *runState, token recommend.Token) {
	rs.Halted = true
	switch token {
	case recommend.TokenReject:
		rs.Outcome = OutcomeRejected
	default:
		rs.Outcome = OutcomeInsufficient
	}

	if err := o.store.Clear(ctx, rs.SessionID); err != nil {
		o.logger.WarnContext(ctx, "session clear failed", "session", rs.SessionID, "error", err)
	}
}

// finalize settles the outcome of a completed synthesis stage and clears
// the session. An unrecognized recommendation at this stage is treated as
// insufficient, never as acceptance.
func (o *Orchestrator) finalize(ctx context.Context, rs *runState, output string, token recommend.Token, found bool) {
	rep := report.Parse(output)
	rs.Report = &rep

	switch {
	case token == recommend.TokenAccept:
		rs.Outcome = OutcomeAccepted
	case token == recommend.TokenSufficient, found:
		rs.Outcome = OutcomeAccepted
	default:
		rs.Outcome = OutcomeInsufficient
	}

	if rep.Status == report.StatusDenied {
		rs.Outcome = OutcomeRejected
	}

	if err := o.store.Clear(ctx, rs.SessionID); err != nil {
		o.logger.WarnContext(ctx, "session clear failed", "session", rs.SessionID, "error", err)
	}
}

// composePrompt frames prior context and new evidence under their section
// headers and appends the stage routing keyword as an opaque suffix.
// A fresh session has nothing to frame against, so its first stage
// receives the evidence bare; the headers appear once a cumulative
// summary exists.
func composePrompt(cumulative, newText string, spec StageSpec) string {
	var sb strings.Builder

	switch {
	case cumulative != "":
		sb.WriteString(headerCumulative)
		sb.WriteString("\n")
		sb.WriteString(cumulative)
		sb.WriteString("\n\n")

		if newText != "" {
			sb.WriteString(headerNewEvidence)
			sb.WriteString("\n")
			sb.WriteString(newText)
			sb.WriteString("\n\n")
		}
	case newText != "":
		sb.WriteString(newText)
		sb.WriteString("\n\n")
	}

	if spec.Final {
		sb.WriteString(synthesisTrailer)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Action: ")
	sb.WriteString(spec.Keyword)

	return sb.String()
}

func extractRun(s state.State) (*runState, error) {
	val, ok := s.Get(KeyRun)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyRun)
	}

	rs, ok := val.(runState)
	if !ok {
		return nil, fmt.Errorf("%s is not runState", KeyRun)
	}

	return &rs, nil
}

func extractResult(s state.State) (*Result, error) {
	rs, err := extractRun(s)
	if err != nil {
		return nil, err
	}

	result := &Result{
		SessionID: rs.SessionID,
		State:     StateDone,
		Outcome:   rs.Outcome,
		Steps:     rs.Steps,
		Report:    rs.Report,
	}
	if rs.Halted {
		result.State = StateHalted
	}

	return result, nil
}
