package intake

import (
	"errors"
	"net/http"

	"github.com/ledgerline/docket/internal/adk"
	"github.com/ledgerline/docket/internal/inference"
	"github.com/ledgerline/docket/internal/normalize"
	"github.com/ledgerline/docket/internal/pipeline"
)

// Intake errors.
var (
	ErrInvalidUpload  = errors.New("invalid upload")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrNoResults      = errors.New("no results recorded for session")
)

// MapHTTPStatus maps intake errors to HTTP status codes, delegating to
// the owning package for pipeline, normalization, runtime, and
// inference failures.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, normalize.ErrExtraction), errors.Is(err, normalize.ErrUnsupported):
		return normalize.MapHTTPStatus(err)
	case errors.Is(err, inference.ErrTimeout),
		errors.Is(err, inference.ErrUnavailable),
		errors.Is(err, inference.ErrUpstream),
		errors.Is(err, inference.ErrMissingKey):
		return inference.MapHTTPStatus(err)
	case errors.Is(err, adk.ErrRuntimeUnreachable), errors.Is(err, adk.ErrNoOutput):
		return adk.MapHTTPStatus(err)
	case errors.Is(err, pipeline.ErrNoInput), errors.Is(err, pipeline.ErrUnknownStage):
		return pipeline.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
