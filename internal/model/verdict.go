package model

// Verdict is the terminal label returned to the client for a verified claim.
type Verdict string

const (
	VerdictSupported         Verdict = "Supported"
	VerdictRefuted           Verdict = "Refuted"
	VerdictNotEnoughEvidence Verdict = "Not Enough Evidence"
	VerdictMixedDisputed     Verdict = "Mixed / Disputed"
	VerdictUnverifiable      Verdict = "Unverifiable"
)

// ValidVerdict reports whether s is one of the five wire-format verdict strings.
func ValidVerdict(s string) bool {
	switch Verdict(s) {
	case VerdictSupported, VerdictRefuted, VerdictNotEnoughEvidence,
		VerdictMixedDisputed, VerdictUnverifiable:
		return true
	}
	return false
}
