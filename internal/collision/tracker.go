package collision

import (
	"github.com/arloliu/tsascii/internal/hash"
)

// Tracker records the output names handed to a run's sinks and reports
// names that were already used.
//
// Two traces can map to the same deterministic file name when the decoder
// emits overlapping segments that start at the same microsecond. In per-trace
// mode the second file silently replaces the first, and in archive mode the
// ZIP ends up with two entries of the same name. The tracker lets the
// multiplexer warn about both.
type Tracker struct {
	names     map[uint64]string // hash -> first name seen
	order     []string
	dupCount  int
	collision bool // different names, same hash
}

// NewTracker creates a new name tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[uint64]string),
		order: make([]string, 0),
	}
}

// Track records name and reports whether it was seen before.
func (t *Tracker) Track(name string) (duplicate bool) {
	id := hash.ID(name)

	if existing, ok := t.names[id]; ok {
		if existing == name {
			t.dupCount++
			return true
		}
		// distinct names sharing a hash are not duplicates
		t.collision = true
	} else {
		t.names[id] = name
	}
	t.order = append(t.order, name)

	return false
}

// HasCollision reports whether two distinct names shared a hash.
func (t *Tracker) HasCollision() bool {
	return t.collision
}

// Duplicates returns how many Track calls reported a duplicate.
func (t *Tracker) Duplicates() int {
	return t.dupCount
}

// Names returns the distinct names in the order they were first tracked.
func (t *Tracker) Names() []string {
	return t.order
}

// Count returns the number of distinct names tracked.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Reset clears all tracked names.
func (t *Tracker) Reset() {
	clear(t.names)
	t.order = t.order[:0]
	t.dupCount = 0
	t.collision = false
}
