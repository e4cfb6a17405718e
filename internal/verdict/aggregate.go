package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veracify/veracify/internal/llm"
	"github.com/veracify/veracify/internal/model"
)

// aggregateMaxCitations caps the merged citation list across sub-claims.
const aggregateMaxCitations = 25

// Aggregate combines the verdicts of decomposed sub-claims into one
// overall result. Any refuted sub-claim dominates, then any mixed one; all
// supported means supported; all inconclusive stays inconclusive; anything
// else is mixed.
func Aggregate(ctx context.Context, client llm.Client, logger *slog.Logger, claim string, subs []model.SubResult) (model.Verdict, string, []model.Citation) {
	if len(subs) == 0 {
		return model.VerdictNotEnoughEvidence, FallbackReasoning, nil
	}
	if len(subs) == 1 {
		return subs[0].Verdict, subs[0].Reasoning, subs[0].Citations
	}

	var refuted, mixed, allSupported, allInconclusive bool
	allSupported = true
	allInconclusive = true
	for _, sub := range subs {
		switch sub.Verdict {
		case model.VerdictRefuted:
			refuted = true
			allSupported = false
			allInconclusive = false
		case model.VerdictMixedDisputed:
			mixed = true
			allSupported = false
			allInconclusive = false
		case model.VerdictSupported:
			allInconclusive = false
		case model.VerdictNotEnoughEvidence, model.VerdictUnverifiable:
			allSupported = false
		default:
			allSupported = false
			allInconclusive = false
		}
	}

	var v model.Verdict
	switch {
	case refuted:
		v = model.VerdictRefuted
	case mixed:
		v = model.VerdictMixedDisputed
	case allSupported:
		v = model.VerdictSupported
	case allInconclusive:
		v = model.VerdictNotEnoughEvidence
	default:
		v = model.VerdictMixedDisputed
	}

	citations := mergeCitations(subs)
	reasoning := summarize(ctx, client, logger, claim, v, subs)
	return v, reasoning, citations
}

// mergeCitations concatenates sub-claim citations in order, URL-deduped
// and capped.
func mergeCitations(subs []model.SubResult) []model.Citation {
	seen := make(map[string]struct{})
	var out []model.Citation
	for _, sub := range subs {
		for _, c := range sub.Citations {
			if _, dup := seen[c.URL]; dup {
				continue
			}
			seen[c.URL] = struct{}{}
			out = append(out, c)
			if len(out) == aggregateMaxCitations {
				return out
			}
		}
	}
	return out
}

// summarize asks the LLM for a combined rationale, falling back to a
// concatenation of the per-sub-claim findings.
func summarize(ctx context.Context, client llm.Client, logger *slog.Logger, claim string, v model.Verdict, subs []model.SubResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\nOverall verdict: %s\n\nPer-part findings:\n", claim, v)
	for _, sub := range subs {
		fmt.Fprintf(&b, "- %q: %s. %s\n", sub.Claim, sub.Verdict, sub.Reasoning)
	}
	b.WriteString("\nIn 2 to 4 sentences, summarize why the claim as a whole received this verdict. Plain text only.")

	out, err := client.Complete(ctx, b.String())
	if err == nil && strings.TrimSpace(out) != "" {
		return strings.TrimSpace(out)
	}
	logger.Warn("aggregate summary failed, concatenating sub-claim reasoning", "error", err)

	parts := make([]string, 0, len(subs))
	for _, sub := range subs {
		parts = append(parts, fmt.Sprintf("%q: %s. %s", sub.Claim, sub.Verdict, sub.Reasoning))
	}
	return strings.Join(parts, " ")
}
