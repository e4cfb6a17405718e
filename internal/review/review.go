// Package review holds verification results flagged for human review.
// The queue is process-local and not durable.
package review

import (
	"sort"
	"sync"

	"github.com/veracify/veracify/internal/model"
)

// Queue is a mutex-guarded map of pending reviews keyed by claim id.
type Queue struct {
	mu    sync.Mutex
	items map[string]model.PendingReview
}

// NewQueue creates an empty review queue.
func NewQueue() *Queue {
	return &Queue{items: make(map[string]model.PendingReview)}
}

// Put stores a pending review under the claim id, replacing any previous
// entry.
func (q *Queue) Put(claimID string, rec model.PendingReview) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[claimID] = rec
}

// IDs returns the pending claim ids in sorted order.
func (q *Queue) IDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.items))
	for id := range q.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the pending review for the claim id.
func (q *Queue) Get(claimID string) (model.PendingReview, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rec, ok := q.items[claimID]
	return rec, ok
}

// Resolve removes the entry, applying the reviewer's overrides first, and
// returns the final record. Returns false when the id is unknown.
func (q *Queue) Resolve(claimID string, verdict *string, reasoning *string) (model.PendingReview, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rec, ok := q.items[claimID]
	if !ok {
		return model.PendingReview{}, false
	}
	if verdict != nil && model.ValidVerdict(*verdict) {
		rec.Verdict = model.Verdict(*verdict)
	}
	if reasoning != nil && *reasoning != "" {
		rec.Reasoning = *reasoning
	}
	delete(q.items, claimID)
	return rec, true
}

// Len returns the number of pending reviews.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
