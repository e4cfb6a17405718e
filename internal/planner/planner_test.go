package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanBounds(t *testing.T) {
	claims := []string{
		"The WHO declared the end of COVID-19 as a global emergency.",
		`The president said "inflation is transitory" last year.`,
		"water is wet",
		"x",
		strings.Repeat("a very long claim about many things ", 10),
	}
	for _, claim := range claims {
		queries := Plan(claim)
		require.NotEmpty(t, queries, "claim %q", claim)
		assert.LessOrEqual(t, len(queries), 4, "claim %q", claim)

		seen := make(map[string]struct{})
		for _, q := range queries {
			_, dup := seen[q]
			assert.False(t, dup, "duplicate query %q for claim %q", q, claim)
			seen[q] = struct{}{}
		}
	}
}

func TestPlanEmptyClaim(t *testing.T) {
	assert.Empty(t, Plan("   "))
}

func TestKeyPhraseQuotedWins(t *testing.T) {
	phrase := keyPhrase(`Officials announced "Great Wall visible from Moon" is false.`)
	assert.Equal(t, "Great Wall visible from Moon", phrase)
}

func TestKeyPhraseTitleCaseRun(t *testing.T) {
	phrase := keyPhrase("the Great Wall of China is visible from space")
	assert.Equal(t, "Great Wall", phrase)
}

func TestKeyPhraseLongestTitleCaseRun(t *testing.T) {
	phrase := keyPhrase("a claim about World Health Organization and Paris")
	assert.Equal(t, "World Health Organization", phrase)
}

func TestKeyPhraseFallbackWindow(t *testing.T) {
	phrase := keyPhrase("vitamin c prevents the common cold")
	assert.NotEmpty(t, phrase)
	words := strings.Fields(phrase)
	assert.GreaterOrEqual(t, len(words), 2)
	assert.LessOrEqual(t, len(words), 3)
	assert.Contains(t, "vitamin c prevents the common cold", phrase)
}

func TestPlanIncludesFactCheckVariant(t *testing.T) {
	queries := Plan("the Great Wall of China is visible from space")
	var found bool
	for _, q := range queries {
		if strings.HasPrefix(q, "fact check") {
			found = true
		}
	}
	assert.True(t, found, "expected a fact check variant in %v", queries)
}

func TestPlanTruncatesLongClaims(t *testing.T) {
	claim := strings.Repeat("z", 200)
	queries := Plan(claim)
	var truncated bool
	for _, q := range queries {
		if len(q) <= 77 {
			truncated = true
		}
	}
	assert.True(t, truncated, "expected a truncated prefix in %v", queries)
}

func TestTruncateBacksOffToLastSpace(t *testing.T) {
	claim := strings.TrimSpace(strings.Repeat("hydroxychloroquine ", 10))
	got := truncate(claim, 77)

	assert.LessOrEqual(t, len([]rune(got)), 77)
	assert.False(t, strings.HasSuffix(got, "hydroxychloroquin"), "word split mid-token: %q", got)
	for _, w := range strings.Fields(got) {
		assert.Equal(t, "hydroxychloroquine", w)
	}
}

func TestTruncateWithoutSpacesCutsAtRuneBound(t *testing.T) {
	got := truncate(strings.Repeat("z", 200), 77)
	assert.Equal(t, strings.Repeat("z", 77), got)
}
