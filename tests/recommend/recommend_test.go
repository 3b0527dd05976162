package recommend_test

import (
	"testing"

	"github.com/ledgerline/docket/internal/recommend"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      recommend.Token
		wantFound bool
	}{
		{
			name:      "no recommendation present",
			text:      "The claimant provided a lease agreement and two emails.",
			want:      recommend.TokenNone,
			wantFound: false,
		},
		{
			name:      "empty text",
			text:      "",
			want:      recommend.TokenNone,
			wantFound: false,
		},
		{
			name:      "sufficient data",
			text:      "Summary of findings. SUFFICIENT DATA",
			want:      recommend.TokenSufficient,
			wantFound: true,
		},
		{
			name:      "insufficient data",
			text:      "Missing the signed contract. INSUFFICIENT DATA",
			want:      recommend.TokenInsufficient,
			wantFound: true,
		},
		{
			name:      "incomplete data maps to insufficient",
			text:      "Records are partial. INCOMPLETE DATA",
			want:      recommend.TokenInsufficient,
			wantFound: true,
		},
		{
			name:      "accept case",
			text:      "Strong claim with documented damages. ACCEPT CASE",
			want:      recommend.TokenAccept,
			wantFound: true,
		},
		{
			name:      "reject case",
			text:      "Statute of limitations has run. REJECT CASE",
			want:      recommend.TokenReject,
			wantFound: true,
		},
		{
			name:      "lowercase is not matched",
			text:      "we believe there is sufficient data here",
			want:      recommend.TokenNone,
			wantFound: false,
		},
		{
			name:      "earliest occurrence wins",
			text:      "REJECT CASE was considered but ACCEPT CASE is final",
			want:      recommend.TokenReject,
			wantFound: true,
		},
		{
			name:      "insufficient not shadowed by contained sufficient",
			text:      "INSUFFICIENT DATA",
			want:      recommend.TokenInsufficient,
			wantFound: true,
		},
		{
			name:      "sufficient alone still matches",
			text:      "The record shows SUFFICIENT DATA to proceed.",
			want:      recommend.TokenSufficient,
			wantFound: true,
		},
		{
			name:      "phrase embedded mid-sentence",
			text:      "Given the above, ACCEPT CASE and schedule a consult.",
			want:      recommend.TokenAccept,
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := recommend.Extract(tt.text)
			if found != tt.wantFound {
				t.Fatalf("Extract(%q) found = %v, want %v", tt.text, found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNegative(t *testing.T) {
	tests := []struct {
		token recommend.Token
		want  bool
	}{
		{recommend.TokenReject, true},
		{recommend.TokenInsufficient, true},
		{recommend.TokenAccept, false},
		{recommend.TokenSufficient, false},
		{recommend.TokenNone, false},
	}

	for _, tt := range tests {
		if got := recommend.Negative(tt.token); got != tt.want {
			t.Errorf("Negative(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
