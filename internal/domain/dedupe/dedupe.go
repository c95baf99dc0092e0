// Package dedupe tracks identifiers that occur more than once.
package dedupe

import (
	"sort"
	"sync"
)

// Tracker records seen IDs and remembers which ones repeat.
type Tracker struct {
	mu    sync.Mutex
	seen  map[string]int
	order []string // duplicates in first-repeat order
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]int)}
}

// SeenAndRecord records id and reports whether it had been seen before.
func (t *Tracker) SeenAndRecord(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.seen[id]
	t.seen[id] = n + 1
	if n == 1 {
		t.order = append(t.order, id)
	}
	return n > 0
}

// Count returns how many times id was recorded.
func (t *Tracker) Count(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[id]
}

// Size returns the number of distinct IDs recorded.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// Duplicates returns the IDs recorded more than once, in the order they
// first repeated.
func (t *Tracker) Duplicates() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Duplicates returns the sorted IDs that occur more than once in ids.
func Duplicates(ids []string) []string {
	t := NewTracker()
	for _, id := range ids {
		t.SeenAndRecord(id)
	}
	d := t.Duplicates()
	sort.Strings(d)
	return d
}
