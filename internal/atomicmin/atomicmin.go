// Package atomicmin provides a lock-free running minimum, used to track
// the evaluator's best (smallest) candidate size seen so far across
// concurrent trials. Grounded on golang.org/x/sync's compare-and-swap
// idioms (the same package the evaluator's worker pool draws its
// errgroup/semaphore from).
package atomicmin

import (
	"math"
	"sync/atomic"
)

// unset marks "no value recorded yet". Candidate sizes are byte counts of
// encoded images, which never approach MaxInt64, so it is safe to reserve
// that value as the sentinel rather than pay for a second atomic flag.
const unset = math.MaxInt64

// Int is a concurrently-updatable minimum over int64 values. The zero value
// holds 0 as its minimum; NewInt returns an Int that holds no minimum (Get's
// ok is false until the first Set).
type Int struct {
	state atomic.Int64
}

// NewInt returns an Int with no value set.
func NewInt() *Int {
	a := &Int{}
	a.state.Store(unset)
	return a
}

// Set updates the tracked minimum to v if v is smaller than the current
// value (or if no value has been set yet), via a retry loop rather than a
// mutex, so concurrent evaluator workers never block each other on this
// check. Returns true if v became the new minimum.
func (a *Int) Set(v int64) bool {
	for {
		cur := a.state.Load()
		if cur != unset && cur <= v {
			return false
		}
		if a.state.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// Get returns the current minimum and whether one has been set.
func (a *Int) Get() (int64, bool) {
	cur := a.state.Load()
	if cur == unset {
		return 0, false
	}
	return cur, true
}
