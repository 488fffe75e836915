package status

import (
	"sync"
	"time"
)

// runningCooldown is how long a non-Running detection must persist before
// it is allowed to override a confirmed Running status.
const runningCooldown = 2 * time.Second

type pending struct {
	target Status
	since  time.Time
}

// Tracker debounces a stream of Detector classifications for a single
// session into stable status transitions.
//
// Entering Running is immediate: a single Running detection confirms it.
// Leaving Running requires the same non-Running target to keep arriving
// for runningCooldown; a detection that doesn't match the pending target
// starts the cooldown over, but repeated arrivals of the same target do
// not reset it. Every other transition (neither side Running) is
// immediate.
type Tracker struct {
	mu        sync.Mutex
	confirmed Status
	pending   *pending
}

// NewTracker returns a Tracker already confirmed at the given status.
func NewTracker(initial Status) *Tracker {
	return &Tracker{confirmed: initial}
}

// Confirmed returns the tracker's current confirmed status.
func (t *Tracker) Confirmed() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.confirmed
}

// Step feeds one detection into the tracker and returns the resulting
// confirmed status and whether it just changed.
func (t *Tracker) Step(detected Status, now time.Time) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if detected == t.confirmed {
		t.pending = nil
		return t.confirmed, false
	}

	if detected == Running {
		t.confirmed = Running
		t.pending = nil
		return t.confirmed, true
	}

	if t.confirmed != Running {
		t.confirmed = detected
		t.pending = nil
		return t.confirmed, true
	}

	if t.pending == nil || t.pending.target != detected {
		t.pending = &pending{target: detected, since: now}
		return t.confirmed, false
	}

	if now.Sub(t.pending.since) >= runningCooldown {
		t.confirmed = detected
		t.pending = nil
		return t.confirmed, true
	}

	return t.confirmed, false
}

// Force overrides the confirmed status unconditionally, for the hook
// pipeline's authoritative reports which bypass detection entirely.
func (t *Tracker) Force(status Status) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := status != t.confirmed
	t.confirmed = status
	t.pending = nil
	return t.confirmed, changed
}
