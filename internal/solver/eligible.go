package solver

import "github.com/robalobadob/mastermind/internal/codes"

// EligibleSet accumulates codes found consistent with the history during one
// round. It is deduplicated, keeps insertion order, and stops growing at its
// cap.
type EligibleSet struct {
	limit int
	order []codes.Code
	seen  map[string]struct{}
}

// NewEligibleSet returns an empty set holding at most limit codes.
func NewEligibleSet(limit int) *EligibleSet {
	return &EligibleSet{limit: limit, seen: make(map[string]struct{})}
}

// Add inserts c unless it is already present or the set is full.
// It reports whether c was added.
func (e *EligibleSet) Add(c codes.Code) bool {
	if e.Full() {
		return false
	}
	k := c.Key()
	if _, ok := e.seen[k]; ok {
		return false
	}
	e.seen[k] = struct{}{}
	e.order = append(e.order, c.Clone())
	return true
}

// Contains reports whether c is in the set.
func (e *EligibleSet) Contains(c codes.Code) bool {
	_, ok := e.seen[c.Key()]
	return ok
}

// Len returns the number of codes collected.
func (e *EligibleSet) Len() int { return len(e.order) }

// Full reports whether the cap has been reached.
func (e *EligibleSet) Full() bool { return len(e.order) >= e.limit }

// Codes returns the collected codes in insertion order.
func (e *EligibleSet) Codes() []codes.Code {
	out := make([]codes.Code, len(e.order))
	copy(out, e.order)
	return out
}
