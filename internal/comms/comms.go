// Package comms drafts client correspondence from archived case runs.
package comms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/google/uuid"

	"github.com/ledgerline/docket/internal/cases"
	"github.com/ledgerline/docket/pkg/formatting"
)

// Draft is a proposed client letter for an archived run.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// System defines the public contract for correspondence operations.
type System interface {
	Handler() *Handler
	Draft(ctx context.Context, runID uuid.UUID) (*Draft, error)
}

type service struct {
	agent  gaconfig.AgentConfig
	cases  cases.System
	logger *slog.Logger
}

// New creates a correspondence service implementing the System interface.
func New(agentCfg gaconfig.AgentConfig, archive cases.System, logger *slog.Logger) System {
	return &service{
		agent:  agentCfg,
		cases:  archive,
		logger: logger.With("system", "comms"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// Draft composes a client letter for the given archived run. The agent
// responds with a JSON subject and body; a response that cannot be
// parsed is a draft failure, never a silent empty letter.
func (s *service) Draft(ctx context.Context, runID uuid.UUID) (*Draft, error) {
	run, err := s.cases.Find(ctx, runID)
	if err != nil {
		return nil, err
	}

	a, err := agent.New(&s.agent)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrDraftFailed, err)
	}

	resp, err := a.Chat(ctx, composeDraftPrompt(run))
	if err != nil {
		return nil, fmt.Errorf("%w: chat call: %w", ErrDraftFailed, err)
	}

	draft, err := formatting.Parse[Draft](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrDraftFailed, err)
	}

	if draft.Subject == "" || draft.Body == "" {
		return nil, fmt.Errorf("%w: incomplete draft", ErrDraftFailed)
	}

	s.logger.InfoContext(ctx, "draft composed", "run", runID, "outcome", run.Outcome)
	return &draft, nil
}

func composeDraftPrompt(run *cases.Run) string {
	var sb strings.Builder

	sb.WriteString(draftInstruction)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Intake outcome: %s\n", run.Outcome))

	if run.Status != "" {
		sb.WriteString(fmt.Sprintf("Recommendation: %s\n", run.Status))
		sb.WriteString(fmt.Sprintf("Estimated likelihood of success: %d%%\n", run.Likelihood))
	}
	if run.Pros != "" {
		sb.WriteString(fmt.Sprintf("Arguments in favor: %s\n", run.Pros))
	}
	if run.Cons != "" {
		sb.WriteString(fmt.Sprintf("Arguments against: %s\n", run.Cons))
	}

	if final := finalStep(run.Steps); final != "" {
		sb.WriteString("\nFinal review summary:\n")
		sb.WriteString(final)
	}

	return sb.String()
}

// finalStep returns the text of the last recorded step, which carries
// the halt explanation or the synthesis output.
func finalStep(steps []cases.Step) string {
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].ResultText
}
