package verdict

import (
	"fmt"

	"github.com/veracify/veracify/internal/model"
)

// validate enforces the citation rules: every citation URL must come from
// the post-rerank evidence, no URL may repeat, and Supported/Refuted need
// at least minSources surviving citations or the verdict is downgraded.
func (f *Former) validate(v model.Verdict, reasoning string, citations []model.Citation, items []model.EvidenceItem) (model.Verdict, string, []model.Citation) {
	allowed := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.URL != "" {
			allowed[item.URL] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(citations))
	valid := make([]model.Citation, 0, len(citations))
	for _, c := range citations {
		if _, ok := allowed[c.URL]; !ok {
			f.logger.Warn("citation outside evidence set dropped", "url", c.URL)
			continue
		}
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		valid = append(valid, c)
	}

	if (v == model.VerdictSupported || v == model.VerdictRefuted) && len(valid) < f.minSources {
		reasoning += fmt.Sprintf(" (Downgraded: only %d valid citations remained, fewer than the required %d.)",
			len(valid), f.minSources)
		return model.VerdictNotEnoughEvidence, reasoning, valid
	}
	return v, reasoning, valid
}
