package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veracify/veracify/internal/llm"
	"github.com/veracify/veracify/internal/model"
)

const (
	// maxStanceSnippets caps how many snippets go into one labeling call.
	maxStanceSnippets = 30
	// stanceSnippetChars truncates each snippet inside the prompt.
	stanceSnippetChars = 400
	// stanceClaimChars truncates the claim inside the prompt.
	stanceClaimChars = 500
)

// Classifier labels each evidence item's stance toward the claim with one
// batched LLM call.
type Classifier struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewClassifier creates a stance classifier.
func NewClassifier(client llm.Client, logger *slog.Logger) *Classifier {
	return &Classifier{llm: client, logger: logger}
}

// Classify writes a stance onto every item in place. Items beyond the
// batch cap and any position the model fails to label default to neutral.
// Never returns an error: labeling failure degrades to all-neutral.
func (c *Classifier) Classify(ctx context.Context, claim string, items []model.EvidenceItem) {
	for i := range items {
		items[i].Stance = model.StanceNeutral
	}
	if len(items) == 0 {
		return
	}

	n := len(items)
	if n > maxStanceSnippets {
		n = maxStanceSnippets
	}

	prompt := buildStancePrompt(claim, items[:n])
	raw, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("stance classification failed, defaulting to neutral", "error", err)
		return
	}

	labels, err := llm.ParseStringArray(raw)
	if err != nil {
		c.logger.Warn("stance output unparseable, defaulting to neutral", "error", err)
		return
	}

	for i := 0; i < n && i < len(labels); i++ {
		items[i].Stance = model.ParseStance(strings.ToLower(strings.TrimSpace(labels[i])))
	}
}

func buildStancePrompt(claim string, items []model.EvidenceItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\n", truncateRunes(claim, stanceClaimChars))
	b.WriteString("For each numbered snippet below, decide whether it supports, refutes, or is neutral toward the claim.\n\n")
	for i, item := range items {
		text := item.Snippet
		if text == "" {
			text = item.Title
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, truncateRunes(text, stanceSnippetChars))
	}
	fmt.Fprintf(&b, "\nRespond with only a JSON array of %d strings, each exactly one of \"supports\", \"refutes\", or \"neutral\", in snippet order.", len(items))
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
