package pipeline

import (
	"errors"
	"net/http"

	"github.com/ledgerline/docket/internal/adk"
)

// Pipeline errors.
var (
	// ErrNoInput indicates a stage was invoked with no new text and no
	// accumulated session context.
	ErrNoInput = errors.New("no case text available for stage")
	// ErrUnknownStage indicates a stage number outside the pipeline.
	ErrUnknownStage = errors.New("unknown pipeline stage")
)

// MapHTTPStatus maps pipeline errors to HTTP status codes, delegating
// runtime transport failures to the adk mapping.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoInput) || errors.Is(err, ErrUnknownStage) {
		return http.StatusBadRequest
	}
	if errors.Is(err, adk.ErrRuntimeUnreachable) || errors.Is(err, adk.ErrNoOutput) {
		return adk.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
