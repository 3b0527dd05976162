package normalize

import (
	"errors"
	"net/http"
)

// Normalization errors.
var (
	// ErrExtraction indicates a file could not be converted to text:
	// unreadable bytes, an unconfigured fallback, or an empty fallback
	// result. Recorded per file; a batch fails only when nothing succeeds.
	ErrExtraction = errors.New("document extraction failed")
	// ErrUnsupported indicates a file kind the normalizer does not handle.
	ErrUnsupported = errors.New("unsupported document kind")
)

// MapHTTPStatus maps normalization errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnsupported) {
		return http.StatusUnsupportedMediaType
	}
	if errors.Is(err, ErrExtraction) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
