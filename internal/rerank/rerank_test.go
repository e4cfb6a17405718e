package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracify/veracify/internal/model"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fixedEncoder returns preset scores or an error.
type fixedEncoder struct {
	scores []float64
	err    error
}

func (e *fixedEncoder) Score(_ context.Context, _ string, docs []string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.scores != nil {
		return e.scores, nil
	}
	out := make([]float64, len(docs))
	return out, nil
}

func ev(url, source string) model.EvidenceItem {
	return model.EvidenceItem{Title: "t", URL: url, Snippet: "snippet", Source: source}
}

func TestRerankEncoderFailureKeepsInput(t *testing.T) {
	items := []model.EvidenceItem{
		ev("https://a.com/x/story-1", "web"),
		ev("https://b.com/x/story-2", "rag"),
	}
	r := New(&fixedEncoder{err: errors.New("down")}, discard)

	got := r.Rerank(context.Background(), "claim", items, 10)
	assert.Equal(t, items, got)
}

func TestRerankOrdersByRelevance(t *testing.T) {
	items := []model.EvidenceItem{
		ev("https://a.com/x/story-1", "web"),
		ev("https://b.com/x/story-2", "web"),
		ev("https://c.com/x/story-3", "web"),
	}
	r := New(&fixedEncoder{scores: []float64{0.1, 0.9, 0.5}}, discard)

	got := r.Rerank(context.Background(), "claim", items, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "https://b.com/x/story-2", got[0].URL)
	assert.Equal(t, "https://c.com/x/story-3", got[1].URL)
	assert.Equal(t, "https://a.com/x/story-1", got[2].URL)
}

func TestRerankHybridScoreComponents(t *testing.T) {
	// Equal relevance everywhere, so URL quality and source preference
	// decide the order: deep web article beats shallow rag path.
	items := []model.EvidenceItem{
		ev("https://a.com/2024/ab", "rag"),
		ev("https://b.com/news/world/story-1", "web"),
	}
	r := New(&fixedEncoder{scores: []float64{0.5, 0.5}}, discard)

	got := r.Rerank(context.Background(), "claim", items, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "https://b.com/news/world/story-1", got[0].URL)

	// 0.7*0.5 + 0.2*1.0 + 0.1*1.0 for the web item.
	assert.InDelta(t, 0.65, got[0].Score, 1e-9)
	// 0.7*0.5 + 0.2*0.3 + 0.1*0.7 for the rag item.
	assert.InDelta(t, 0.48, got[1].Score, 1e-9)
}

func TestRerankPerDomainCap(t *testing.T) {
	items := []model.EvidenceItem{
		ev("https://bbc.com/news/story-1", "web"),
		ev("https://bbc.com/news/story-2", "web"),
		ev("https://bbc.com/news/story-3", "web"),
		ev("https://bbc.com/news/story-4", "web"),
		ev("https://bbc.com/news/story-5", "web"),
		ev("https://reuters.com/world/story-6", "web"),
	}
	r := New(&fixedEncoder{scores: []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.1}}, discard)

	got := r.Rerank(context.Background(), "claim", items, 10)
	require.Len(t, got, 3)

	var bbc int
	for _, it := range got {
		if it.URL == "https://reuters.com/world/story-6" {
			continue
		}
		bbc++
	}
	assert.Equal(t, 2, bbc)
}

func TestRerankTopK(t *testing.T) {
	items := []model.EvidenceItem{
		ev("https://a.com/x/story-1", "web"),
		ev("https://b.com/x/story-2", "web"),
		ev("https://c.com/x/story-3", "web"),
	}
	r := New(&fixedEncoder{scores: []float64{0.3, 0.2, 0.1}}, discard)

	got := r.Rerank(context.Background(), "claim", items, 2)
	assert.Len(t, got, 2)
}

func TestRerankDropsHomepages(t *testing.T) {
	items := []model.EvidenceItem{
		ev("https://bbc.com/", "web"),
		ev("https://bbc.com/news/story-1", "web"),
	}
	r := New(&fixedEncoder{scores: []float64{0.5}}, discard)

	got := r.Rerank(context.Background(), "claim", items, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "https://bbc.com/news/story-1", got[0].URL)
}

func TestMinMaxNormalizeDegenerate(t *testing.T) {
	out := minMaxNormalize([]float64{0.4, 0.4, 0.4})
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, out)
}

func TestHTTPCrossEncoderScore(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		// Respond out of order to exercise index mapping.
		results := make([]rerankResult, 0, len(req.Texts))
		for i := len(req.Texts) - 1; i >= 0; i-- {
			results = append(results, rerankResult{Index: i, Score: float64(i) / 10})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}))
	defer srv.Close()

	enc := NewHTTPCrossEncoder(srv.URL, "ms-marco-MiniLM-L-6-v2", 5*time.Second)
	scores, err := enc.Score(context.Background(), "q", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.1, 0.2}, scores)
	assert.Equal(t, "ms-marco-MiniLM-L-6-v2", gotModel)
}

func TestHTTPCrossEncoderWarmupFailureSticks(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	enc := NewHTTPCrossEncoder(srv.URL, "", 5*time.Second)
	_, err := enc.Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
	_, err = enc.Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "warmup probes only once")
}

func TestNoopCrossEncoder(t *testing.T) {
	var enc NoopCrossEncoder
	_, err := enc.Score(context.Background(), "q", []string{"a"})
	require.ErrorIs(t, err, ErrNoEncoder)
}

func TestTruncateDoc(t *testing.T) {
	long := ""
	for i := 0; i < 600; i++ {
		long += "x"
	}
	got := truncateDoc(long, 512)
	assert.Equal(t, 512, len([]rune(got)))
	assert.Equal(t, "…", string([]rune(got)[511]))
}
