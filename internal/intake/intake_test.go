package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  The WHO   declared an emergency  ",
		"plain claim",
		"ﬁrst ﬂight",          // compatibility ligatures
		"ｆｕｌｌｗｉｄｔｈ　ｔｅｘｔ", // fullwidth forms and ideographic space
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\t\tb \n c "))
}

func TestNormalizeCompatibilityForms(t *testing.T) {
	assert.Equal(t, "first", Normalize("ﬁrst"))
}

func TestValidateEmpty(t *testing.T) {
	_, err := Validate("   \t\n  ", 100)
	require.ErrorIs(t, err, ErrEmptyClaim)
}

func TestValidateLengthBoundary(t *testing.T) {
	max := 50
	atLimit := strings.Repeat("a", max)

	got, err := Validate(atLimit, max)
	require.NoError(t, err)
	assert.Equal(t, atLimit, got)

	_, err = Validate(atLimit+"a", max)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestValidateReturnsNormalized(t *testing.T) {
	got, err := Validate("  spaced   claim  ", 100)
	require.NoError(t, err)
	assert.Equal(t, "spaced claim", got)
}
