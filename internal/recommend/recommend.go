// Package recommend extracts recommendation tokens from agent output.
// Stage agents close their responses with a recommendation phrase drawn
// from a small fixed vocabulary; the pipeline uses the canonical token
// to decide whether to continue or halt.
package recommend

import "strings"

// Token is a canonical recommendation outcome.
type Token string

// Canonical recommendation tokens.
const (
	TokenNone         Token = ""
	TokenSufficient   Token = "SUFFICIENT DATA"
	TokenInsufficient Token = "INSUFFICIENT DATA"
	TokenAccept       Token = "ACCEPT CASE"
	TokenReject       Token = "REJECT CASE"
)

// vocabulary lists recognized phrases in tie-break order. Matching is
// case-sensitive; the earliest occurrence in the text wins, with earlier
// vocabulary entries breaking positional ties. INSUFFICIENT DATA precedes
// SUFFICIENT DATA so the contained substring never shadows it.
var vocabulary = []struct {
	phrase string
	token  Token
}{
	{"INSUFFICIENT DATA", TokenInsufficient},
	{"INCOMPLETE DATA", TokenInsufficient},
	{"SUFFICIENT DATA", TokenSufficient},
	{"REJECT CASE", TokenReject},
	{"ACCEPT CASE", TokenAccept},
}

// Extract scans text for the first occurrence of a recognized
// recommendation phrase and returns its canonical token. The second
// return value reports whether any phrase was found; absence is never
// treated as implicit success.
func Extract(text string) (Token, bool) {
	best := TokenNone
	bestIdx := -1

	for _, v := range vocabulary {
		idx := strings.Index(text, v.phrase)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			best = v.token
			bestIdx = idx
		}
	}

	return best, bestIdx >= 0
}

// Negative reports whether a token halts the pipeline.
func Negative(t Token) bool {
	return t == TokenReject || t == TokenInsufficient
}
