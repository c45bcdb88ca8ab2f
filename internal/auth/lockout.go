package auth

import (
	"sync"
	"time"
)

// lockoutTracker counts consecutive failed logins per username and computes
// lockout windows.  The counter is never decayed by time alone; only a
// successful login resets it.  The small internal mutex guards map
// structure; logical check-then-act sequences are serialized per username
// by the service's striped locks.
type lockoutTracker struct {
	mu        sync.Mutex
	threshold int
	duration  time.Duration

	failures    map[string]int
	lockedUntil map[string]time.Time
}

func newLockoutTracker(threshold int, duration time.Duration) *lockoutTracker {
	return &lockoutTracker{
		threshold:   threshold,
		duration:    duration,
		failures:    make(map[string]int),
		lockedUntil: make(map[string]time.Time),
	}
}

// lockedUntilAt returns the active lockout deadline for the username, if any.
func (t *lockoutTracker) lockedUntilAt(username string, now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.lockedUntil[username]
	if !ok || !until.After(now) {
		return time.Time{}, false
	}
	return until, true
}

// recordFailure bumps the failure counter and arms the lockout once the
// threshold is crossed.  It returns the lockout deadline when one is set.
func (t *lockoutTracker) recordFailure(username string, now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[username]++
	if t.failures[username] >= t.threshold {
		until := now.Add(t.duration)
		t.lockedUntil[username] = until
		return until, true
	}
	return time.Time{}, false
}

// reset clears the failure counter and any lockout for the username.
func (t *lockoutTracker) reset(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, username)
	delete(t.lockedUntil, username)
}

// failureCount is used by tests and diagnostics.
func (t *lockoutTracker) failureCount(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures[username]
}
