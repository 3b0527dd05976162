package cases

import (
	"net/url"

	"github.com/ledgerline/docket/pkg/query"
	"github.com/ledgerline/docket/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "case_runs", "r").
	Project("id", "ID").
	Project("session_id", "SessionID").
	Project("state", "State").
	Project("outcome", "Outcome").
	Project("status", "Status").
	Project("likelihood", "Likelihood").
	Project("pros", "Pros").
	Project("cons", "Cons").
	Project("created_at", "CreatedAt")

var stepProjection = query.
	NewProjectionMap("public", "case_steps", "s").
	Project("run_id", "RunID").
	Project("seq", "Seq").
	Project("step_name", "StepName").
	Project("status", "Status").
	Project("result_text", "ResultText").
	Project("success", "Success")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var stepSort = query.SortField{Field: "Seq"}

// Filters contains optional filtering criteria for case run queries.
// Nil fields are ignored. SessionID uses case-insensitive contains
// matching; State and Outcome use exact matching.
type Filters struct {
	SessionID *string `json:"session_id,omitempty"`
	State     *string `json:"state,omitempty"`
	Outcome   *string `json:"outcome,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("SessionID", f.SessionID).
		WhereEquals("State", f.State).
		WhereEquals("Outcome", f.Outcome)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("session_id"); s != "" {
		f.SessionID = &s
	}

	if s := values.Get("state"); s != "" {
		f.State = &s
	}

	if o := values.Get("outcome"); o != "" {
		f.Outcome = &o
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.SessionID,
		&r.State,
		&r.Outcome,
		&r.Status,
		&r.Likelihood,
		&r.Pros,
		&r.Cons,
		&r.CreatedAt,
	)
	return r, err
}

func scanStep(s repository.Scanner) (Step, error) {
	var st Step
	err := s.Scan(
		&st.RunID,
		&st.Seq,
		&st.StepName,
		&st.Status,
		&st.ResultText,
		&st.Success,
	)
	return st, err
}
