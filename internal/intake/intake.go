// Package intake normalizes and validates incoming claims before they
// enter the verification pipeline.
package intake

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyClaim is returned when a claim is empty after normalization.
var ErrEmptyClaim = errors.New("intake: claim is empty")

// Normalize applies Unicode compatibility normalization (NFKC), trims the
// string, and collapses runs of whitespace to a single space. Idempotent.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Validate normalizes the claim and checks it against the length bound.
// Returns the normalized claim on success. The length bound is measured
// in runes after normalization.
func Validate(claim string, maxLength int) (string, error) {
	normalized := Normalize(claim)
	if normalized == "" {
		return "", ErrEmptyClaim
	}
	if n := utf8.RuneCountInString(normalized); n > maxLength {
		return "", fmt.Errorf("intake: claim length %d exceeds maximum %d", n, maxLength)
	}
	return normalized, nil
}
