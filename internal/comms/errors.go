package comms

import (
	"errors"
	"net/http"

	"github.com/ledgerline/docket/internal/cases"
)

// ErrDraftFailed indicates the agent could not produce a usable letter.
var ErrDraftFailed = errors.New("correspondence draft failed")

// MapHTTPStatus maps correspondence errors to HTTP status codes,
// delegating archive lookups to the cases mapping.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrDraftFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, cases.ErrNotFound) || errors.Is(err, cases.ErrInvalidRun) {
		return cases.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
