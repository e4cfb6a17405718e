// Package model defines the shared domain types for the verification pipeline:
// evidence items, citations, stances, verdicts, and API request/response shapes.
package model

import "time"

// Stance is the per-snippet relation of a source to the claim.
// The zero value (StanceUnset) means the snippet has not been classified yet.
type Stance string

const (
	StanceUnset    Stance = ""
	StanceSupports Stance = "supports"
	StanceRefutes  Stance = "refutes"
	StanceNeutral  Stance = "neutral"
)

// ParseStance maps an arbitrary label to a known stance, defaulting to neutral.
// Used when reading LLM output, which may contain anything.
func ParseStance(s string) Stance {
	switch Stance(s) {
	case StanceSupports, StanceRefutes, StanceNeutral:
		return Stance(s)
	}
	return StanceNeutral
}

// EvidenceItem is a single piece of evidence gathered from web search or the
// vector store. Identity is the URL: two items with the same URL are duplicates.
// Score carries whatever the most recent scoring stage assigned (retrieval
// similarity, cross-encoder relevance, or hybrid score).
type EvidenceItem struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source"` // "web", "rag", or a domain label from metadata
	Score   float64 `json:"score"`
	Stance  Stance  `json:"stance,omitempty"`
}

// Citation is the response-shape projection of an EvidenceItem.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// CitationOf projects an evidence item into a citation. An empty snippet
// falls back to the title so the client always has something to render.
func CitationOf(e EvidenceItem) Citation {
	snippet := e.Snippet
	if snippet == "" {
		snippet = e.Title
	}
	return Citation{Title: e.Title, URL: e.URL, Snippet: snippet}
}

// VerificationResult is the outcome of one full pipeline run for a single claim.
type VerificationResult struct {
	Verdict   Verdict    `json:"verdict"`
	Reasoning string     `json:"reasoning"`
	Citations []Citation `json:"citations"`

	// RequiresReview is set when the final state was insufficient or conflicted
	// and the result should be queued for human review.
	RequiresReview bool   `json:"requires_review,omitempty"`
	ClaimID        string `json:"claim_id,omitempty"`

	// SubResults is populated when the claim was decomposed into sub-claims.
	SubResults []SubResult `json:"sub_results,omitempty"`
}

// SubResult is the verification outcome of one decomposed sub-claim.
type SubResult struct {
	Claim     string     `json:"claim"`
	Verdict   Verdict    `json:"verdict"`
	Reasoning string     `json:"reasoning"`
	Citations []Citation `json:"citations"`
}

// PendingReview is a verification result awaiting human review.
// Records live in the in-memory review queue for the process lifetime.
type PendingReview struct {
	Claim     string     `json:"claim"`
	Verdict   Verdict    `json:"verdict"`
	Reasoning string     `json:"reasoning"`
	Citations []Citation `json:"citations"`
	CreatedAt time.Time  `json:"created_at"`
}
