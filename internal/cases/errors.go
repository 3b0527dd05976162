package cases

import (
	"errors"
	"net/http"
)

// Domain errors for case archive operations.
var (
	ErrNotFound   = errors.New("case run not found")
	ErrDuplicate  = errors.New("case run already exists")
	ErrInvalidRun = errors.New("invalid case run")
)

// MapHTTPStatus maps case archive errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRun) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
