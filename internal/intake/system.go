package intake

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/ledgerline/docket/internal/adk"
	"github.com/ledgerline/docket/internal/cases"
	"github.com/ledgerline/docket/internal/normalize"
	"github.com/ledgerline/docket/internal/pipeline"
	"github.com/ledgerline/docket/internal/recommend"
	"github.com/ledgerline/docket/internal/report"
	"github.com/ledgerline/docket/internal/sessions"
	"github.com/ledgerline/docket/pkg/storage"
)

// System defines the public contract for intake operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Ingest(ctx context.Context, sessionID string, batch Batch) (*IngestResult, error)
	RunStage(ctx context.Context, sessionID string, stage int, batch Batch) (*StageResponse, error)
	Run(ctx context.Context, sessionID string, batch Batch) (*pipeline.Result, error)
	Results(ctx context.Context, sessionID string) (*pipeline.Result, error)
	Reset(ctx context.Context, sessionID string) error
}

// session tracks in-flight intake progress: evidence ingested but not
// yet consumed by a stage, and the step sequence recorded so far.
type session struct {
	pending string
	steps   []pipeline.StepResult
	result  *pipeline.Result
}

type service struct {
	normalizer   *normalize.Normalizer
	orchestrator *pipeline.Orchestrator
	store        sessions.Store
	runtime      *adk.Client
	storage      storage.System
	archive      cases.System
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates an intake service implementing the System interface.
// The archive is optional; when nil, finished runs are not persisted.
func New(
	normalizer *normalize.Normalizer,
	orchestrator *pipeline.Orchestrator,
	store sessions.Store,
	runtime *adk.Client,
	blobStore storage.System,
	archive cases.System,
	logger *slog.Logger,
) System {
	return &service{
		normalizer:   normalizer,
		orchestrator: orchestrator,
		store:        store,
		runtime:      runtime,
		storage:      blobStore,
		archive:      archive,
		logger:       logger.With("system", "intake"),
		sessions:     make(map[string]*session),
	}
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, maxUploadSize)
}

// Ingest persists and normalizes an evidence batch, records the ingest
// step, and holds the text for the next stage invocation.
func (s *service) Ingest(ctx context.Context, sessionID string, batch Batch) (*IngestResult, error) {
	if batch.empty() {
		return nil, fmt.Errorf("%w: no files or text provided", ErrInvalidUpload)
	}

	text, reports, err := s.prepare(ctx, sessionID, batch)
	if err != nil {
		return nil, err
	}

	step := pipeline.StepResult{
		StepName:   pipeline.StepIngest,
		Status:     pipeline.StatusComplete,
		ResultText: fmt.Sprintf("ingested %d characters of case text", len(text)),
		Success:    true,
	}

	s.mu.Lock()
	sess := s.session(sessionID)
	sess.pending = joinText(sess.pending, text)
	sess.steps = append(sess.steps, step)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "evidence ingested", "session", sessionID, "files", len(batch.Documents), "chars", len(text))

	return &IngestResult{
		SessionID: sessionID,
		Step:      step,
		Files:     reports,
	}, nil
}

// RunStage executes a single pipeline stage, consuming any pending
// ingested evidence along with the batch supplied on this call.
func (s *service) RunStage(ctx context.Context, sessionID string, stage int, batch Batch) (*StageResponse, error) {
	text, _, err := s.prepare(ctx, sessionID, batch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.session(sessionID)
	text = joinText(sess.pending, text)
	sess.pending = ""
	s.mu.Unlock()

	step, err := s.orchestrator.ExecuteStage(ctx, sessionID, stage, text)
	if err != nil && step.StepName == "" {
		return nil, err
	}

	s.record(ctx, sessionID, step, stage)

	if err != nil {
		return nil, err
	}

	return &StageResponse{
		Stage:      stage,
		Status:     step.Status,
		OutputText: step.ResultText,
	}, nil
}

// Run executes the full pipeline over one evidence batch and archives
// the finished run.
func (s *service) Run(ctx context.Context, sessionID string, batch Batch) (*pipeline.Result, error) {
	text, _, err := s.prepare(ctx, sessionID, batch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.session(sessionID)
	text = joinText(sess.pending, text)
	sess.pending = ""
	s.mu.Unlock()

	result, err := s.orchestrator.Execute(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess = s.session(sessionID)
	sess.result = result
	sess.steps = result.Steps
	s.mu.Unlock()

	s.archiveRun(ctx, result)

	return result, nil
}

// Results returns the last recorded step sequence for a session.
func (s *service) Results(_ context.Context, sessionID string) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || (sess.result == nil && len(sess.steps) == 0) {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, sessionID)
	}

	if sess.result != nil {
		return sess.result, nil
	}

	return &pipeline.Result{
		SessionID: sessionID,
		Steps:     sess.steps,
	}, nil
}

// Reset clears all state for a session: the cumulative summary, the
// tracked steps, and the runtime session, which is deleted and
// recreated so the next run starts clean.
func (s *service) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if s.runtime != nil {
		if err := s.runtime.DeleteSession(ctx, sessionID); err != nil {
			return err
		}
		if err := s.runtime.CreateSession(ctx, sessionID); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "session reset", "session", sessionID)
	return nil
}

// prepare validates, persists, and normalizes an evidence batch into a
// single text fragment, appending any inline text from the request.
func (s *service) prepare(ctx context.Context, sessionID string, batch Batch) (string, []normalize.FileReport, error) {
	if len(batch.Documents) == 0 {
		return batch.Text, nil, nil
	}

	for _, doc := range batch.Documents {
		if err := validateDocument(doc); err != nil {
			return "", nil, err
		}
	}

	s.persist(ctx, sessionID, batch.Documents)

	text, reports, err := s.normalizer.NormalizeAll(ctx, batch.Documents)
	if err != nil {
		return "", reports, err
	}

	return joinText(text, batch.Text), reports, nil
}

// persist uploads evidence blobs under session-scoped keys. Storage is
// an audit copy; an upload failure is logged, not fatal.
func (s *service) persist(ctx context.Context, sessionID string, docs []normalize.Document) {
	if s.storage == nil {
		return
	}

	for _, doc := range docs {
		key := buildEvidenceKey(sessionID, doc.Name)
		if err := s.storage.Upload(ctx, key, bytes.NewReader(doc.Data), doc.ContentType); err != nil {
			s.logger.WarnContext(ctx, "evidence upload failed", "key", key, "error", err)
		}
	}
}

// record appends a stage step to the session log and archives the run
// when the step is terminal.
func (s *service) record(ctx context.Context, sessionID string, step pipeline.StepResult, stage int) {
	s.mu.Lock()
	sess := s.session(sessionID)
	sess.steps = append(sess.steps, step)
	steps := append([]pipeline.StepResult(nil), sess.steps...)
	s.mu.Unlock()

	spec, err := pipeline.StageByNumber(stage)
	if err != nil {
		return
	}

	terminal := step.Status != pipeline.StatusComplete || spec.Final
	if !terminal {
		return
	}

	result := settleResult(sessionID, step, steps, spec)

	s.mu.Lock()
	sess = s.session(sessionID)
	sess.result = result
	s.mu.Unlock()

	s.archiveRun(ctx, result)
}

func (s *service) archiveRun(ctx context.Context, result *pipeline.Result) {
	if s.archive == nil {
		return
	}

	if _, err := s.archive.Create(ctx, cases.CreateCommand{Result: result}); err != nil {
		s.logger.WarnContext(ctx, "case archive failed", "session", result.SessionID, "error", err)
	}
}

// session returns the tracked session, creating it if needed. Callers
// must hold mu.
func (s *service) session(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// settleResult derives a terminal run result from the step that ended
// it, mirroring the outcome rules of a full pipeline execution.
func settleResult(sessionID string, step pipeline.StepResult, steps []pipeline.StepResult, spec pipeline.StageSpec) *pipeline.Result {
	result := &pipeline.Result{
		SessionID: sessionID,
		Steps:     steps,
	}

	token, found := recommend.Extract(step.ResultText)

	switch step.Status {
	case pipeline.StatusADKError:
		result.State = pipeline.StateHalted
		result.Outcome = pipeline.OutcomeError
	case pipeline.StatusHalted:
		result.State = pipeline.StateHalted
		result.Outcome = pipeline.OutcomeInsufficient
		if token == recommend.TokenReject {
			result.Outcome = pipeline.OutcomeRejected
		}
	default:
		result.State = pipeline.StateDone
		result.Outcome = pipeline.OutcomeInsufficient
		if token == recommend.TokenAccept || token == recommend.TokenSufficient || found {
			result.Outcome = pipeline.OutcomeAccepted
		}
		if spec.Final {
			rep := report.Parse(step.ResultText)
			result.Report = &rep
			if rep.Status == report.StatusDenied {
				result.Outcome = pipeline.OutcomeRejected
			}
		}
	}

	return result
}

func validateDocument(doc normalize.Document) error {
	if doc.Name == "" || len(doc.Data) == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}

	if normalize.DetectKind(doc.ContentType) == normalize.KindPDF {
		if _, err := api.PageCount(bytes.NewReader(doc.Data), nil); err != nil {
			return fmt.Errorf("%w: unreadable pdf %s: %w", ErrInvalidUpload, doc.Name, err)
		}
	}

	return nil
}

func buildEvidenceKey(sessionID, filename string) string {
	return fmt.Sprintf("%s/%s-%s", sessionID, uuid.New(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "evidence"
	}
	return url.PathEscape(name)
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n\n" + b
}
