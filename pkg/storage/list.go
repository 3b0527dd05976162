package storage

import (
	"fmt"
	"strconv"
)

// MaxListCap bounds the number of results a single list request may return.
const MaxListCap int32 = 5000

// ParseMaxResults parses a max-results query value. Empty input returns the
// fallback; values above MaxListCap are clamped.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max results %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max results must be positive, got %d", n)
	}

	return min(int32(n), MaxListCap), nil
}
