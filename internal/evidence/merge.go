// Package evidence combines, labels, and evaluates evidence gathered from
// web search and local retrieval.
package evidence

import (
	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/urlutil"
)

// Merge combines web and RAG evidence into one list. Web items come first
// so that on a URL tie the live source wins. Items with empty or duplicate
// URLs and homepage URLs are dropped; survivors keep their input order.
func Merge(web, rag []model.EvidenceItem) []model.EvidenceItem {
	seen := make(map[string]struct{}, len(web)+len(rag))
	var merged []model.EvidenceItem
	for _, item := range append(append([]model.EvidenceItem{}, web...), rag...) {
		if item.URL == "" {
			continue
		}
		if _, dup := seen[item.URL]; dup {
			continue
		}
		if urlutil.IsHomepage(item.URL) {
			continue
		}
		seen[item.URL] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}
