package fakeapi

import (
	"sync"
	"time"
)

type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

// lockout counts failed logins per account and refuses further attempts
// for a while once the threshold is reached. State is in memory only.
type lockout struct {
	mu        sync.Mutex
	entries   map[string]*lockoutEntry
	threshold int
	duration  time.Duration
	now       func() time.Time
}

func newLockout(threshold int, duration time.Duration, now func() time.Time) *lockout {
	return &lockout{
		entries:   make(map[string]*lockoutEntry),
		threshold: threshold,
		duration:  duration,
		now:       now,
	}
}

// fail records a failed attempt and reports whether the account is now locked.
func (l *lockout) fail(key string) bool {
	if l.threshold <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &lockoutEntry{}
		l.entries[key] = e
	}
	now := l.now()
	if !e.lockedUntil.IsZero() {
		if now.Before(e.lockedUntil) {
			return true
		}
		*e = lockoutEntry{}
	}
	e.failures++
	if e.failures >= l.threshold {
		e.lockedUntil = now.Add(l.duration)
		return true
	}
	return false
}

// locked reports how long key stays locked, or zero.
func (l *lockout) locked(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok || e.lockedUntil.IsZero() {
		return 0
	}
	remaining := e.lockedUntil.Sub(l.now())
	if remaining <= 0 {
		delete(l.entries, key)
		return 0
	}
	return remaining
}

// clear forgets key after a successful login.
func (l *lockout) clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
