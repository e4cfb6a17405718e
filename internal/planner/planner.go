// Package planner turns a claim into a small set of diverse search queries.
//
// The planner extracts one key phrase from the claim and builds query
// variants around it: the claim with the phrase quoted, a fact-check
// variant, a bare quoted phrase, a truncated prefix for long claims, and a
// debunk variant. Output is deduplicated and capped at maxQueries.
package planner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxQueries   = 4
	minBareQuote = 10
	longClaimLen = 80
	truncatedLen = 77
)

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// Plan produces 1 to 4 search queries for the claim, in priority order,
// with no duplicates.
func Plan(claim string) []string {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return nil
	}

	phrase := keyPhrase(claim)

	var candidates []string
	if phrase != "" {
		candidates = append(candidates, quotePhrase(claim, phrase))
		candidates = append(candidates, `fact check "`+phrase+`"`)
		if utf8.RuneCountInString(phrase) >= minBareQuote {
			candidates = append(candidates, `"`+phrase+`"`)
		}
	} else {
		candidates = append(candidates, claim)
		candidates = append(candidates, "fact check "+claim)
	}
	if utf8.RuneCountInString(claim) > longClaimLen {
		candidates = append(candidates, truncate(claim, truncatedLen))
	}
	if phrase != "" {
		candidates = append(candidates, `"`+phrase+`" debunk`)
	} else {
		candidates = append(candidates, claim+" debunk")
	}

	seen := make(map[string]struct{}, len(candidates))
	var queries []string
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}

// keyPhrase extracts the most search-worthy phrase from the claim.
// Precedence: a double-quoted substring, then the longest run of
// consecutive Title-Case tokens, then the longest 2- or 3-word substring.
func keyPhrase(claim string) string {
	if m := quotedRe.FindStringSubmatch(claim); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			return p
		}
	}
	if p := titleCaseRun(claim); p != "" {
		return p
	}
	return longestWordWindow(claim)
}

// titleCaseRun finds the longest run of at least two consecutive tokens
// whose first rune is uppercase. Non-Latin scripts without case simply
// never match and fall through to the substring rule.
func titleCaseRun(claim string) string {
	tokens := strings.Fields(claim)
	bestStart, bestLen := 0, 0
	runStart, runLen := 0, 0
	for i, tok := range tokens {
		if isTitleCase(tok) {
			if runLen == 0 {
				runStart = i
			}
			runLen++
			if runLen > bestLen {
				bestStart, bestLen = runStart, runLen
			}
		} else {
			runLen = 0
		}
	}
	if bestLen < 2 {
		return ""
	}
	return strings.Join(tokens[bestStart:bestStart+bestLen], " ")
}

func isTitleCase(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsUpper(r)
}

// longestWordWindow returns the longest (by characters) window of 2 or 3
// consecutive words. Returns "" for single-word claims.
func longestWordWindow(claim string) string {
	tokens := strings.Fields(claim)
	if len(tokens) < 2 {
		return ""
	}
	var best string
	for _, size := range []int{3, 2} {
		for i := 0; i+size <= len(tokens); i++ {
			w := strings.Join(tokens[i:i+size], " ")
			if len(w) > len(best) {
				best = w
			}
		}
	}
	return best
}

// quotePhrase wraps the first occurrence of phrase inside claim in double
// quotes. If the phrase is not a literal substring the claim is returned
// unchanged.
func quotePhrase(claim, phrase string) string {
	if idx := strings.Index(claim, phrase); idx >= 0 {
		return claim[:idx] + `"` + phrase + `"` + claim[idx+len(phrase):]
	}
	return claim
}

// truncate cuts s to at most n runes, backing off to the last space so a
// word is never split. Input without spaces is cut at the rune bound.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
