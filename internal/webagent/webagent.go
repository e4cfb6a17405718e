// Package webagent fans planner queries out through a web search client
// and collects the hits as evidence.
package webagent

import (
	"context"
	"log/slog"

	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/planner"
	"github.com/veracify/veracify/internal/websearch"
)

// Agent gathers web evidence for a claim.
type Agent struct {
	searcher websearch.Searcher
	logger   *slog.Logger
}

// New creates a web agent.
func New(searcher websearch.Searcher, logger *slog.Logger) *Agent {
	return &Agent{searcher: searcher, logger: logger}
}

// Gather plans queries for the claim and runs each through the search
// client, deduplicating by URL across queries. Per-query failures are
// logged and skipped; the agent never fails the request.
func (a *Agent) Gather(ctx context.Context, claim string, numPerQuery int) []model.EvidenceItem {
	queries := planner.Plan(claim)

	seen := make(map[string]struct{})
	var items []model.EvidenceItem
	for _, q := range queries {
		results, err := a.searcher.Search(ctx, websearch.Query{Text: q, MaxResults: numPerQuery})
		if err != nil {
			a.logger.Warn("web search failed", "query", q, "error", err)
			continue
		}
		for _, res := range results {
			if res.URL == "" {
				continue
			}
			if _, dup := seen[res.URL]; dup {
				continue
			}
			seen[res.URL] = struct{}{}
			items = append(items, model.EvidenceItem{
				Title:   res.Title,
				URL:     res.URL,
				Snippet: res.Snippet,
				Source:  "web",
			})
		}
	}
	return items
}
