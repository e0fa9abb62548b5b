package logging

import (
	"sync"
	"time"
)

// Throttle lets an action through at most once per interval. It is used to
// keep repeated warnings (missing credentials, failing deliveries) from
// flooding the local log.
type Throttle struct {
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	last       time.Time
	suppressed int
}

// NewThrottle creates a Throttle with the given interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// Allow reports whether the action may run now. When it returns true it
// also returns how many calls were suppressed since the last allowed one.
func (t *Throttle) Allow() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.last.IsZero() || now.Sub(t.last) >= t.interval {
		suppressed := t.suppressed
		t.last = now
		t.suppressed = 0
		return true, suppressed
	}
	t.suppressed++
	return false, 0
}
