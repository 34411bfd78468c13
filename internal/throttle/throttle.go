// Package throttle holds the in-memory abuse-control state: a sliding-window
// rate limiter and a lockout table keyed by (action, client address,
// identity). The state is process-scoped and intentionally unpersisted; the
// threat model is short-window brute force, so counters resetting on restart
// is accepted.
package throttle

import (
	"fmt"
	"sync"
	"time"
)

// Key builds the attempt key for an action, client address, and identity.
func Key(action, ip, email string) string {
	return fmt.Sprintf("%s:%s:%s", action, ip, email)
}

// RateLimiter counts attempts per key within a trailing window. The
// check-and-append is atomic under the mutex so two concurrent requests
// sharing a key cannot both slip under the limit.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter allowing max attempts per key within
// the given sliding window.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the limiter's clock. Test hook.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow prunes timestamps older than the window and reports whether another
// attempt is permitted. A denied attempt is not recorded, so the attempt
// that trips the limit does not count toward a later window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	ts := l.entries[key]
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}

	l.entries[key] = append(kept, now)
	return true
}

// LockoutTable tracks keys under a temporary hard block. A lock runs its
// full duration regardless of later successful logins; expiry is the only
// way out.
type LockoutTable struct {
	mu       sync.Mutex
	duration time.Duration
	locked   map[string]time.Time
	now      func() time.Time
}

// NewLockoutTable creates a lockout table with the given lock duration.
func NewLockoutTable(duration time.Duration) *LockoutTable {
	return &LockoutTable{
		duration: duration,
		locked:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithClock replaces the table's clock. Test hook.
func (t *LockoutTable) WithClock(now func() time.Time) *LockoutTable {
	t.now = now
	return t
}

// Lock blocks the key until now + duration, overwriting any existing lock.
func (t *LockoutTable) Lock(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked[key] = t.now().Add(t.duration)
}

// IsLocked reports whether the key is currently blocked. Expired locks are
// removed lazily on the first check past their expiry; there is no
// background sweep.
func (t *LockoutTable) IsLocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.locked[key]
	if !ok {
		return false
	}
	if t.now().After(expiry) {
		delete(t.locked, key)
		return false
	}
	return true
}
