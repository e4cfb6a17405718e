package verdict

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracify/veracify/internal/credibility"
	"github.com/veracify/veracify/internal/model"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubLLM struct {
	out string
	err error
}

func (s *stubLLM) Complete(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

func stanced(url string, st model.Stance) model.EvidenceItem {
	return model.EvidenceItem{Title: "t", URL: url, Snippet: "s", Stance: st}
}

func TestDecide(t *testing.T) {
	support := stanced("u1", model.StanceSupports)
	refute := stanced("u2", model.StanceRefutes)
	neutral := stanced("u3", model.StanceNeutral)

	cases := []struct {
		name       string
		items      []model.EvidenceItem
		sufficient bool
		conflict   bool
		want       model.Verdict
	}{
		{"no evidence", nil, false, false, model.VerdictNotEnoughEvidence},
		{"insufficient", []model.EvidenceItem{support}, false, false, model.VerdictNotEnoughEvidence},
		{"conflict", []model.EvidenceItem{support, refute}, true, true, model.VerdictMixedDisputed},
		{"supports only", []model.EvidenceItem{support, neutral}, true, false, model.VerdictSupported},
		{"refutes only", []model.EvidenceItem{refute, neutral}, true, false, model.VerdictRefuted},
		{"all neutral", []model.EvidenceItem{neutral, neutral}, true, false, model.VerdictNotEnoughEvidence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.items, tc.sufficient, tc.conflict))
		})
	}
}

func newTestFormer(client *stubLLM, minSources int) *Former {
	cred := credibility.NewChecker([]string{"reuters.com", "bbc.com"})
	return NewFormer(client, cred, minSources, discard)
}

func TestSoftenFiltersToCredible(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 1)
	citations := []model.Citation{
		{URL: "https://reuters.com/world/story-1"},
		{URL: "https://bbc.com/news/story-2"},
		{URL: "https://randomblog.net/post-3"},
		{URL: "https://bbc.com/news/story-4"},
	}
	got := f.soften(citations)
	require.Len(t, got, 3)
	for _, c := range got {
		assert.NotContains(t, c.URL, "randomblog")
	}
}

func TestSoftenKeepsAllWhenFilterTooAggressive(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 1)
	// One credible hit out of ten: below both the count and ratio floors.
	citations := []model.Citation{{URL: "https://reuters.com/world/story-1"}}
	for i := 0; i < 9; i++ {
		citations = append(citations, model.Citation{URL: "https://blog.example.org/post"})
	}
	got := f.soften(citations)
	assert.Len(t, got, 10)
}

func TestSoftenNoCredibleKeepsAll(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 1)
	citations := []model.Citation{
		{URL: "https://a.example.org/x"},
		{URL: "https://b.example.org/y"},
	}
	assert.Len(t, f.soften(citations), 2)
}

func TestFormFallbackReasoning(t *testing.T) {
	f := newTestFormer(&stubLLM{err: errors.New("llm down")}, 1)
	items := []model.EvidenceItem{stanced("https://reuters.com/world/story-1", model.StanceSupports)}

	v, reasoning, citations := f.Form(context.Background(), "claim", items, true, false)
	assert.Equal(t, model.VerdictSupported, v)
	assert.Equal(t, FallbackReasoning, reasoning)
	require.Len(t, citations, 1)
	assert.Equal(t, "https://reuters.com/world/story-1", citations[0].URL)
}

func TestFormUsesLLMRationale(t *testing.T) {
	f := newTestFormer(&stubLLM{out: "  Two sources confirm it.  "}, 1)
	items := []model.EvidenceItem{stanced("https://reuters.com/world/story-1", model.StanceSupports)}

	_, reasoning, _ := f.Form(context.Background(), "claim", items, true, false)
	assert.Equal(t, "Two sources confirm it.", reasoning)
}

func TestValidateDropsForeignAndDuplicateURLs(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 1)
	items := []model.EvidenceItem{stanced("https://reuters.com/world/story-1", model.StanceSupports)}
	citations := []model.Citation{
		{URL: "https://reuters.com/world/story-1"},
		{URL: "https://reuters.com/world/story-1"},
		{URL: "https://elsewhere.com/not-in-evidence"},
	}

	v, _, valid := f.validate(model.VerdictSupported, "r", citations, items)
	assert.Equal(t, model.VerdictSupported, v)
	require.Len(t, valid, 1)
	assert.Equal(t, "https://reuters.com/world/story-1", valid[0].URL)
}

func TestValidateDowngradesWhenCitationsFallShort(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 2)
	items := []model.EvidenceItem{stanced("https://reuters.com/world/story-1", model.StanceSupports)}
	citations := []model.Citation{{URL: "https://reuters.com/world/story-1"}}

	v, reasoning, valid := f.validate(model.VerdictSupported, "base", citations, items)
	assert.Equal(t, model.VerdictNotEnoughEvidence, v)
	assert.Contains(t, reasoning, "Downgraded")
	assert.Len(t, valid, 1)
}

func TestValidateLeavesInconclusiveAlone(t *testing.T) {
	f := newTestFormer(&stubLLM{}, 2)

	v, reasoning, _ := f.validate(model.VerdictNotEnoughEvidence, "base", nil, nil)
	assert.Equal(t, model.VerdictNotEnoughEvidence, v)
	assert.Equal(t, "base", reasoning)
}

func TestFormCitationsSubsetOfEvidence(t *testing.T) {
	f := newTestFormer(&stubLLM{out: "fine"}, 1)
	items := []model.EvidenceItem{
		stanced("https://reuters.com/world/story-1", model.StanceSupports),
		stanced("https://bbc.com/news/story-2", model.StanceNeutral),
		stanced("https://blog.example.org/post-3", model.StanceNeutral),
	}

	_, _, citations := f.Form(context.Background(), "claim", items, true, false)
	allowed := map[string]struct{}{}
	for _, it := range items {
		allowed[it.URL] = struct{}{}
	}
	for _, c := range citations {
		_, ok := allowed[c.URL]
		assert.True(t, ok, "citation %q not in evidence", c.URL)
	}
}

func TestAggregateRefutedDominates(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictSupported},
		{Claim: "b", Verdict: model.VerdictRefuted},
	}
	v, _, _ := Aggregate(context.Background(), &stubLLM{err: errors.New("down")}, discard, "claim", subs)
	assert.Equal(t, model.VerdictRefuted, v)
}

func TestAggregateAllSupported(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictSupported},
		{Claim: "b", Verdict: model.VerdictSupported},
	}
	v, _, _ := Aggregate(context.Background(), &stubLLM{out: "summary"}, discard, "claim", subs)
	assert.Equal(t, model.VerdictSupported, v)
}

func TestAggregateSupportedPlusInconclusiveIsMixed(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictSupported},
		{Claim: "b", Verdict: model.VerdictNotEnoughEvidence},
	}
	v, _, _ := Aggregate(context.Background(), &stubLLM{out: "summary"}, discard, "claim", subs)
	assert.Equal(t, model.VerdictMixedDisputed, v)
}

func TestAggregateAllInconclusive(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictNotEnoughEvidence},
		{Claim: "b", Verdict: model.VerdictUnverifiable},
	}
	v, _, _ := Aggregate(context.Background(), &stubLLM{out: "summary"}, discard, "claim", subs)
	assert.Equal(t, model.VerdictNotEnoughEvidence, v)
}

func TestAggregateSinglePassThrough(t *testing.T) {
	subs := []model.SubResult{{
		Claim:     "a",
		Verdict:   model.VerdictSupported,
		Reasoning: "because",
		Citations: []model.Citation{{URL: "u1"}},
	}}
	v, reasoning, citations := Aggregate(context.Background(), &stubLLM{err: errors.New("down")}, discard, "claim", subs)
	assert.Equal(t, model.VerdictSupported, v)
	assert.Equal(t, "because", reasoning)
	assert.Len(t, citations, 1)
}

func TestAggregateMergesCitations(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictSupported, Citations: []model.Citation{{URL: "u1"}, {URL: "u2"}}},
		{Claim: "b", Verdict: model.VerdictSupported, Citations: []model.Citation{{URL: "u2"}, {URL: "u3"}}},
	}
	_, _, citations := Aggregate(context.Background(), &stubLLM{out: "s"}, discard, "claim", subs)
	urls := make([]string, 0, len(citations))
	for _, c := range citations {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, urls)
}

func TestAggregateSummaryFallbackConcatenates(t *testing.T) {
	subs := []model.SubResult{
		{Claim: "a", Verdict: model.VerdictSupported, Reasoning: "ra"},
		{Claim: "b", Verdict: model.VerdictSupported, Reasoning: "rb"},
	}
	_, reasoning, _ := Aggregate(context.Background(), &stubLLM{err: errors.New("down")}, discard, "claim", subs)
	assert.True(t, strings.Contains(reasoning, "ra") && strings.Contains(reasoning, "rb"))
}
