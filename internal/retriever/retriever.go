// Package retriever pulls evidence for a claim out of the local vector
// index.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veracify/veracify/internal/embedding"
	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/vectorstore"
)

// Retriever embeds a claim once and queries the current-affairs and static
// knowledge collections with the same vector.
type Retriever struct {
	embedder embedding.Provider
	store    *vectorstore.Store
	logger   *slog.Logger
}

// New creates a retriever.
func New(embedder embedding.Provider, store *vectorstore.Store, logger *slog.Logger) *Retriever {
	return &Retriever{embedder: embedder, store: store, logger: logger}
}

// Retrieve returns up to topK evidence items per collection, deduplicated
// by URL with first occurrence preserved. With currentAffairsOnly set the
// static collection is skipped. An embedding failure is the only returned
// error; per-collection query failures are logged and skipped.
func (r *Retriever) Retrieve(ctx context.Context, claim string, topK int, currentAffairsOnly bool) ([]model.EvidenceItem, error) {
	vecs, err := r.embedder.Embed(ctx, []string{claim})
	if err != nil {
		return nil, fmt.Errorf("retriever: embed claim: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("retriever: embedder returned no vector")
	}
	vec := vecs[0]

	collections := []string{vectorstore.CurrentAffairs}
	if !currentAffairsOnly {
		collections = append(collections, vectorstore.StaticGK)
	}

	seen := make(map[string]struct{})
	var items []model.EvidenceItem
	for _, name := range collections {
		results, err := r.store.Query(ctx, name, vec, topK, nil)
		if err != nil {
			r.logger.Warn("collection query failed", "collection", name, "error", err)
			continue
		}
		for _, res := range results {
			item := toEvidence(res)
			if item.URL != "" {
				if _, dup := seen[item.URL]; dup {
					continue
				}
				seen[item.URL] = struct{}{}
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// toEvidence projects a store hit into an evidence item. The snippet
// prefers the indexed metadata snippet over the full chunk content.
func toEvidence(res vectorstore.Result) model.EvidenceItem {
	source := res.Metadata["source"]
	if source == "" {
		source = "rag"
	}
	snippet := res.Metadata["snippet"]
	if snippet == "" {
		snippet = res.Content
	}
	return model.EvidenceItem{
		Title:   res.Metadata["title"],
		URL:     res.Metadata["url"],
		Snippet: snippet,
		Source:  source,
		Score:   res.Score,
	}
}
