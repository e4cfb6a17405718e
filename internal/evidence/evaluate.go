package evidence

import "github.com/veracify/veracify/internal/model"

// IsSufficient reports whether enough distinct evidence survived to form a
// verdict.
func IsSufficient(items []model.EvidenceItem, minSources int) bool {
	return len(items) >= minSources
}

// HasConflict reports whether the evidence contains at least one
// supporting and at least one refuting item.
func HasConflict(items []model.EvidenceItem) bool {
	var supports, refutes bool
	for _, item := range items {
		switch item.Stance {
		case model.StanceSupports:
			supports = true
		case model.StanceRefutes:
			refutes = true
		}
		if supports && refutes {
			return true
		}
	}
	return false
}
