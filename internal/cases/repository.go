package cases

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ledgerline/docket/pkg/pagination"
	"github.com/ledgerline/docket/pkg/query"
	"github.com/ledgerline/docket/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a case archive repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "cases"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "SessionID", "Outcome")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count case runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	runs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query case runs: %w", err)
	}

	result := pagination.NewPageResult(runs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	steps, err := r.findSteps(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query case steps: %w", err)
	}
	run.Steps = steps

	return &run, nil
}

func (r *repo) findSteps(ctx context.Context, runID uuid.UUID) ([]Step, error) {
	q, args := query.
		NewBuilder(stepProjection, stepSort).
		WhereEquals("RunID", runID).
		Build()

	return repository.QueryMany(ctx, r.db, q, args, scanStep)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Run, error) {
	if cmd.Result == nil || cmd.Result.SessionID == "" {
		return nil, ErrInvalidRun
	}

	res := cmd.Result
	id := uuid.New()

	status := ""
	likelihood := 0
	pros := ""
	cons := ""
	if res.Report != nil {
		status = string(res.Report.Status)
		likelihood = res.Report.Likelihood
		pros = res.Report.Pros
		cons = res.Report.Cons
	}

	q := `
		INSERT INTO case_runs(id, session_id, state, outcome, status, likelihood, pros, cons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, session_id, state, outcome, status, likelihood, pros, cons, created_at`

	insertArgs := []any{
		id,
		res.SessionID,
		res.State,
		res.Outcome,
		status,
		likelihood,
		pros,
		cons,
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		run, err := repository.QueryOne(ctx, tx, q, insertArgs, scanRun)
		if err != nil {
			return Run{}, err
		}

		for seq, step := range res.Steps {
			if err := repository.ExecExpectOne(
				ctx, tx,
				`INSERT INTO case_steps(run_id, seq, step_name, status, result_text, success)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				run.ID, seq, step.StepName, step.Status, step.ResultText, step.Success,
			); err != nil {
				return Run{}, err
			}

			run.Steps = append(run.Steps, Step{
				RunID:      run.ID,
				Seq:        seq,
				StepName:   step.StepName,
				Status:     step.Status,
				ResultText: step.ResultText,
				Success:    step.Success,
			})
		}

		return run, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("case run archived", "id", run.ID, "session", run.SessionID, "outcome", run.Outcome)
	return &run, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM case_steps WHERE run_id = $1", id); err != nil {
			return struct{}{}, err
		}
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM case_runs WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("case run deleted", "id", id)
	return nil
}
