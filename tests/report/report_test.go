package report_test

import (
	"testing"

	"github.com/ledgerline/docket/internal/report"
)

func TestParseJSON(t *testing.T) {
	text := `Here is the final assessment.

` + "```json\n" + `{"status": "approved", "likelihood": 72, "pros": "clear liability", "cons": "damages are modest"}` + "\n```"

	r := report.Parse(text)

	if r.Status != report.StatusApproved {
		t.Errorf("status: got %s, want approved", r.Status)
	}
	if r.Likelihood != 72 {
		t.Errorf("likelihood: got %d, want 72", r.Likelihood)
	}
	if r.Pros != "clear liability" {
		t.Errorf("pros: got %q", r.Pros)
	}
	if r.Cons != "damages are modest" {
		t.Errorf("cons: got %q", r.Cons)
	}
}

func TestParseJSONStatusNormalized(t *testing.T) {
	r := report.Parse(`{"status": "APPROVED", "likelihood": 55}`)
	if r.Status != report.StatusApproved {
		t.Errorf("status: got %s, want approved", r.Status)
	}
}

func TestParseJSONUnknownStatus(t *testing.T) {
	r := report.Parse(`{"status": "maybe", "likelihood": 55}`)
	if r.Status != report.StatusUnknown {
		t.Errorf("status: got %s, want unknown", r.Status)
	}
}

func TestParseTags(t *testing.T) {
	text := `Synthesis complete.
<STATUS>denied</STATUS>
<PERCENTAGE>15%</PERCENTAGE>
<PROS>claimant is sympathetic</PROS>
<CONS>no written agreement, witness unavailable</CONS>`

	r := report.Parse(text)

	if r.Status != report.StatusDenied {
		t.Errorf("status: got %s, want denied", r.Status)
	}
	if r.Likelihood != 15 {
		t.Errorf("likelihood: got %d, want 15", r.Likelihood)
	}
	if r.Pros != "claimant is sympathetic" {
		t.Errorf("pros: got %q", r.Pros)
	}
	if r.Cons != "no written agreement, witness unavailable" {
		t.Errorf("cons: got %q", r.Cons)
	}
}

func TestParseTagsMultiline(t *testing.T) {
	text := "<STATUS>\napproved\n</STATUS>\n<PROS>strong documentation\nconsistent timeline</PROS>"

	r := report.Parse(text)

	if r.Status != report.StatusApproved {
		t.Errorf("status: got %s, want approved", r.Status)
	}
	if r.Pros != "strong documentation\nconsistent timeline" {
		t.Errorf("pros: got %q", r.Pros)
	}
}

func TestParseProse(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantStatus     string
		wantLikelihood int
	}{
		{
			name:           "approved with percent",
			text:           "The case should be approved with roughly 65% likelihood of success.",
			wantStatus:     report.StatusApproved,
			wantLikelihood: 65,
		},
		{
			name:           "denied without percent",
			text:           "Recommend the intake be denied.",
			wantStatus:     report.StatusDenied,
			wantLikelihood: 0,
		},
		{
			name:           "no signal stays unknown",
			text:           "The documents describe a dispute over a fence line.",
			wantStatus:     report.StatusUnknown,
			wantLikelihood: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := report.Parse(tt.text)
			if r.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", r.Status, tt.wantStatus)
			}
			if r.Likelihood != tt.wantLikelihood {
				t.Errorf("likelihood: got %d, want %d", r.Likelihood, tt.wantLikelihood)
			}
		})
	}
}

func TestParsePercentBounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"valid percent", "<STATUS>approved</STATUS><PERCENTAGE>100</PERCENTAGE>", 100},
		{"over 100 rejected", "<STATUS>approved</STATUS><PERCENTAGE>150</PERCENTAGE>", 0},
		{"non-numeric rejected", "<STATUS>approved</STATUS><PERCENTAGE>high</PERCENTAGE>", 0},
		{"trailing percent sign stripped", "<STATUS>approved</STATUS><PERCENTAGE>40%</PERCENTAGE>", 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := report.Parse(tt.text)
			if r.Likelihood != tt.want {
				t.Errorf("likelihood: got %d, want %d", r.Likelihood, tt.want)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	r := report.Parse("")
	if r.Status != report.StatusUnknown {
		t.Errorf("status: got %s, want unknown", r.Status)
	}
	if r.Likelihood != 0 || r.Pros != "" || r.Cons != "" {
		t.Errorf("expected zero report, got %+v", r)
	}
}
