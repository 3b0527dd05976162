// Package intake exposes the HTTP surface of the case intake pipeline:
// evidence ingestion, staged review, full runs, results retrieval, and
// session reset.
package intake

import (
	"github.com/ledgerline/docket/internal/normalize"
	"github.com/ledgerline/docket/internal/pipeline"
)

// IngestResult reports a completed ingest call: the recorded step and
// the per-file normalization outcomes, in upload order.
type IngestResult struct {
	SessionID string                 `json:"session_id"`
	Step      pipeline.StepResult    `json:"step"`
	Files     []normalize.FileReport `json:"files"`
}

// StageResponse is the body returned by a single-stage invocation.
type StageResponse struct {
	Stage      int    `json:"stage"`
	Status     string `json:"status"`
	OutputText string `json:"output_text"`
}

// Batch is one upload of case material: binary evidence files and
// optional inline text.
type Batch struct {
	Documents []normalize.Document
	Text      string
}

func (b Batch) empty() bool {
	return len(b.Documents) == 0 && b.Text == ""
}
