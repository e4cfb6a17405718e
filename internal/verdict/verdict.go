// Package verdict maps evaluated evidence to a final verdict, selects
// citations, and generates the human-readable rationale.
package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veracify/veracify/internal/credibility"
	"github.com/veracify/veracify/internal/llm"
	"github.com/veracify/veracify/internal/model"
)

const (
	// Softening keeps the unfiltered citation list when allowlist
	// filtering leaves fewer than softenMinCount items and less than
	// softenMinRatio of the original list.
	softenMinCount = 3
	softenMinRatio = 0.30

	// rationaleMaxSources caps how many citations enter the rationale prompt.
	rationaleMaxSources = 10
)

// FallbackReasoning is used when rationale generation fails.
const FallbackReasoning = "Automated verification completed based on the cited sources; no detailed rationale is available."

// Former turns evaluated evidence into the final verdict tuple.
type Former struct {
	llm        llm.Client
	cred       *credibility.Checker
	minSources int
	logger     *slog.Logger
}

// NewFormer creates a verdict former.
func NewFormer(client llm.Client, cred *credibility.Checker, minSources int, logger *slog.Logger) *Former {
	return &Former{llm: client, cred: cred, minSources: minSources, logger: logger}
}

// Decide maps the evaluated evidence state to a verdict. Deterministic.
func Decide(items []model.EvidenceItem, sufficient, conflict bool) model.Verdict {
	if len(items) == 0 || !sufficient {
		return model.VerdictNotEnoughEvidence
	}
	if conflict {
		return model.VerdictMixedDisputed
	}
	var supports, refutes bool
	for _, item := range items {
		switch item.Stance {
		case model.StanceSupports:
			supports = true
		case model.StanceRefutes:
			refutes = true
		}
	}
	switch {
	case supports && !refutes:
		return model.VerdictSupported
	case refutes && !supports:
		return model.VerdictRefuted
	}
	return model.VerdictNotEnoughEvidence
}

// Form produces the final (verdict, reasoning, citations) for the claim.
// items must be the post-rerank evidence list; validation guarantees every
// returned citation URL comes from it.
func (f *Former) Form(ctx context.Context, claim string, items []model.EvidenceItem, sufficient, conflict bool) (model.Verdict, string, []model.Citation) {
	v := Decide(items, sufficient, conflict)

	citations := make([]model.Citation, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		citations = append(citations, model.CitationOf(item))
	}
	citations = f.soften(citations)

	reasoning := f.rationale(ctx, claim, v, citations)

	return f.validate(v, reasoning, citations, items)
}

// soften filters citations to credible domains but falls back to the full
// list when filtering would leave too little diversity.
func (f *Former) soften(citations []model.Citation) []model.Citation {
	if len(citations) == 0 {
		return citations
	}
	filtered := make([]model.Citation, 0, len(citations))
	for _, c := range citations {
		if f.cred.IsCredible(c.URL) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return citations
	}
	ratio := float64(len(filtered)) / float64(len(citations))
	if len(filtered) < softenMinCount && ratio < softenMinRatio {
		return citations
	}
	return filtered
}

// rationale asks the LLM for a short explanation, falling back to a fixed
// sentence on any failure.
func (f *Former) rationale(ctx context.Context, claim string, v model.Verdict, citations []model.Citation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\nVerdict: %s\n\nSources:\n", claim, v)
	for i, c := range citations {
		if i == rationaleMaxSources {
			break
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", c.Title, c.URL, c.Snippet)
	}
	b.WriteString("\nIn 2 to 4 sentences, explain why the evidence above leads to this verdict. Plain text only.")

	out, err := f.llm.Complete(ctx, b.String())
	if err != nil || strings.TrimSpace(out) == "" {
		f.logger.Warn("rationale generation failed, using fallback", "error", err)
		return FallbackReasoning
	}
	return strings.TrimSpace(out)
}
