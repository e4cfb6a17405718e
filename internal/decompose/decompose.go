// Package decompose splits long compound claims into independently
// verifiable sub-claims.
package decompose

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/veracify/veracify/internal/llm"
)

// minFragmentLen drops rule-split fragments too short to verify alone.
const minFragmentLen = 10

// Config controls when and how decomposition runs.
type Config struct {
	Enabled        bool
	UseLLM         bool
	MaxSubClaims   int
	MinClaimLength int
}

// Decomposer splits claims, preferring an LLM split with a rule-based
// fallback.
type Decomposer struct {
	cfg    Config
	llm    llm.Client
	logger *slog.Logger
}

// New creates a decomposer.
func New(cfg Config, client llm.Client, logger *slog.Logger) *Decomposer {
	return &Decomposer{cfg: cfg, llm: client, logger: logger}
}

// Split returns the sub-claims of the claim, or just the claim itself when
// decomposition is disabled, the claim is short, or splitting yields fewer
// than two usable parts.
func (d *Decomposer) Split(ctx context.Context, claim string) []string {
	whole := []string{claim}
	if !d.cfg.Enabled || utf8.RuneCountInString(claim) < d.cfg.MinClaimLength {
		return whole
	}

	var subs []string
	if d.cfg.UseLLM {
		subs = d.splitLLM(ctx, claim)
	}
	if len(subs) < 2 {
		subs = splitRules(claim)
	}
	if len(subs) < 2 {
		return whole
	}
	if len(subs) > d.cfg.MaxSubClaims {
		subs = subs[:d.cfg.MaxSubClaims]
	}
	return subs
}

func (d *Decomposer) splitLLM(ctx context.Context, claim string) []string {
	prompt := "Split the following claim into independently verifiable factual sub-claims. " +
		"Each sub-claim must stand alone and assert exactly one fact. " +
		"Respond with only a JSON array of strings.\n\nClaim: " + claim
	raw, err := d.llm.Complete(ctx, prompt)
	if err != nil {
		d.logger.Warn("llm decomposition failed, falling back to rules", "error", err)
		return nil
	}
	parts, err := llm.ParseStringArray(raw)
	if err != nil {
		d.logger.Warn("llm decomposition output unparseable, falling back to rules", "error", err)
		return nil
	}
	var subs []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); utf8.RuneCountInString(p) >= minFragmentLen {
			subs = append(subs, p)
		}
	}
	return subs
}

var splitRe = regexp.MustCompile(`(?:[.;]\s+|\s+(?:and|but|while|whereas)\s+)`)

// splitRules breaks the claim on sentence boundaries and coordinating
// conjunctions, keeping fragments long enough to verify.
func splitRules(claim string) []string {
	var subs []string
	for _, frag := range splitRe.Split(claim, -1) {
		frag = strings.TrimSpace(strings.TrimRight(frag, "."))
		if utf8.RuneCountInString(frag) >= minFragmentLen {
			subs = append(subs, frag)
		}
	}
	return subs
}
