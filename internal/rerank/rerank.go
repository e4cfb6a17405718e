// Package rerank orders merged evidence by a hybrid of cross-encoder
// relevance, URL quality, and source preference, with a per-domain
// diversity cap.
package rerank

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/urlutil"
)

const (
	// docChars truncates the scored document text.
	docChars = 512
	// domainCap limits how many results one domain may occupy.
	domainCap = 2

	weightRelevance  = 0.7
	weightURLQuality = 0.2
	weightSourcePref = 0.1
)

// CrossEncoder scores (query, document) relevance pairs.
type CrossEncoder interface {
	// Score returns one relevance score per document, in document order.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranker applies hybrid scoring on top of a cross-encoder.
type Reranker struct {
	encoder CrossEncoder
	logger  *slog.Logger
}

// New creates a reranker.
func New(encoder CrossEncoder, logger *slog.Logger) *Reranker {
	return &Reranker{encoder: encoder, logger: logger}
}

// Rerank scores the items against the claim and returns the top k, sorted
// by hybrid score descending with at most domainCap results per domain.
// Any encoder failure returns the input unchanged.
func (r *Reranker) Rerank(ctx context.Context, claim string, items []model.EvidenceItem, k int) []model.EvidenceItem {
	if len(items) == 0 {
		return items
	}

	// Homepages should already be gone after merge; drop stragglers before
	// paying for cross-encoder scores.
	candidates := make([]model.EvidenceItem, 0, len(items))
	for _, item := range items {
		if urlutil.IsHomepage(item.URL) {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return nil
	}

	docs := make([]string, len(candidates))
	for i, item := range candidates {
		docs[i] = truncateDoc(item.Title+"\n"+item.Snippet, docChars)
	}

	relevance, err := r.encoder.Score(ctx, claim, docs)
	if err != nil || len(relevance) != len(candidates) {
		r.logger.Warn("cross-encoder unavailable, keeping input order", "error", err)
		return items
	}

	normalized := minMaxNormalize(relevance)
	for i := range candidates {
		candidates[i].Score = weightRelevance*normalized[i] +
			weightURLQuality*urlutil.Quality(candidates[i].URL) +
			weightSourcePref*sourcePref(candidates[i].Source)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	perDomain := make(map[string]int)
	var out []model.EvidenceItem
	for _, item := range candidates {
		domain := urlutil.Domain(item.URL)
		if perDomain[domain] >= domainCap {
			continue
		}
		perDomain[domain]++
		out = append(out, item)
		if len(out) == k {
			break
		}
	}
	return out
}

// minMaxNormalize maps scores to [0,1]. A degenerate batch where all
// scores are equal maps to 0.5 so the other signal weights still matter.
func minMaxNormalize(scores []float64) []float64 {
	minV, maxV := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
	}
	out := make([]float64, len(scores))
	if maxV == minV {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - minV) / (maxV - minV)
	}
	return out
}

func sourcePref(source string) float64 {
	switch source {
	case "web":
		return 1.0
	case "rag":
		return 0.7
	default:
		return 0.8
	}
}

func truncateDoc(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
