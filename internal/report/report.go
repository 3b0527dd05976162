// Package report parses the final-synthesis stage output into a
// structured case report. The synthesis agent is instructed to close
// with a structured trailer; parsing prefers a JSON trailer, then
// delimiter tags, then a best-effort pass over plain wording.
package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerline/docket/pkg/formatting"
)

// Case status values.
const (
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusUnknown  = "unknown"
)

// Report is the structured outcome of a final synthesis.
type Report struct {
	Status     string `json:"status"`
	Likelihood int    `json:"likelihood"`
	Pros       string `json:"pros"`
	Cons       string `json:"cons"`
}

var (
	statusTagRe     = regexp.MustCompile(`(?s)<STATUS>\s*(.*?)\s*</STATUS>`)
	percentageTagRe = regexp.MustCompile(`(?s)<PERCENTAGE>\s*(.*?)\s*</PERCENTAGE>`)
	prosTagRe       = regexp.MustCompile(`(?s)<PROS>\s*(.*?)\s*</PROS>`)
	consTagRe       = regexp.MustCompile(`(?s)<CONS>\s*(.*?)\s*</CONS>`)
	percentRe       = regexp.MustCompile(`(\d{1,3})\s*%`)
)

// Parse extracts a Report from synthesis output. Missing fields stay at
// their unknown defaults rather than being guessed into a success.
func Parse(text string) Report {
	if r, err := formatting.Parse[Report](text); err == nil && r.Status != "" {
		r.Status = normalizeStatus(r.Status)
		return r
	}

	r := Report{Status: StatusUnknown}

	if m := statusTagRe.FindStringSubmatch(text); m != nil {
		r.Status = normalizeStatus(m[1])
	}
	if m := percentageTagRe.FindStringSubmatch(text); m != nil {
		r.Likelihood = parsePercent(m[1])
	}
	if m := prosTagRe.FindStringSubmatch(text); m != nil {
		r.Pros = m[1]
	}
	if m := consTagRe.FindStringSubmatch(text); m != nil {
		r.Cons = m[1]
	}

	if r.Status != StatusUnknown {
		return r
	}

	return parseProse(text, r)
}

// parseProse recovers status and likelihood from untagged wording.
func parseProse(text string, r Report) Report {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, StatusApproved):
		r.Status = StatusApproved
	case strings.Contains(lower, StatusDenied):
		r.Status = StatusDenied
	}

	if r.Likelihood == 0 {
		if m := percentRe.FindStringSubmatch(text); m != nil {
			r.Likelihood = parsePercent(m[1])
		}
	}

	return r
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case StatusApproved, StatusDenied:
		return s
	}
	return StatusUnknown
}

func parsePercent(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100 {
		return 0
	}
	return n
}
