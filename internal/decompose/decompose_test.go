package decompose

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubLLM struct {
	out string
	err error
}

func (s *stubLLM) Complete(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

const compound = "The company reported record revenue in the third quarter and its chief executive announced a stock buyback while regulators opened an inquiry into its accounting practices."

func TestSplitDisabled(t *testing.T) {
	d := New(Config{Enabled: false, MinClaimLength: 10, MaxSubClaims: 4}, &stubLLM{}, discard)
	got := d.Split(context.Background(), compound)
	assert.Equal(t, []string{compound}, got)
}

func TestSplitShortClaimUntouched(t *testing.T) {
	d := New(Config{Enabled: true, MinClaimLength: 120, MaxSubClaims: 4}, &stubLLM{}, discard)
	got := d.Split(context.Background(), "water is wet")
	assert.Equal(t, []string{"water is wet"}, got)
}

func TestSplitLLM(t *testing.T) {
	d := New(Config{Enabled: true, UseLLM: true, MinClaimLength: 50, MaxSubClaims: 4},
		&stubLLM{out: `["The company reported record revenue", "The CEO announced a buyback"]`}, discard)
	got := d.Split(context.Background(), compound)
	require.Len(t, got, 2)
	assert.Equal(t, "The company reported record revenue", got[0])
}

func TestSplitLLMFailureFallsBackToRules(t *testing.T) {
	d := New(Config{Enabled: true, UseLLM: true, MinClaimLength: 50, MaxSubClaims: 4},
		&stubLLM{err: errors.New("down")}, discard)
	got := d.Split(context.Background(), compound)
	assert.GreaterOrEqual(t, len(got), 2)
}

func TestSplitRulesOnConjunctions(t *testing.T) {
	subs := splitRules(compound)
	require.GreaterOrEqual(t, len(subs), 3)
	for _, s := range subs {
		assert.GreaterOrEqual(t, len([]rune(s)), minFragmentLen)
	}
}

func TestSplitCapsSubClaims(t *testing.T) {
	d := New(Config{Enabled: true, UseLLM: true, MinClaimLength: 10, MaxSubClaims: 2},
		&stubLLM{out: `["sub claim one here", "sub claim two here", "sub claim three here"]`}, discard)
	got := d.Split(context.Background(), compound)
	assert.Len(t, got, 2)
}

func TestSplitSinglePartKeepsWhole(t *testing.T) {
	d := New(Config{Enabled: true, UseLLM: true, MinClaimLength: 10, MaxSubClaims: 4},
		&stubLLM{out: `["only one usable sub claim"]`}, discard)
	claim := "a single indivisible statement about one topic"
	got := d.Split(context.Background(), claim)
	assert.Equal(t, []string{claim}, got)
}
