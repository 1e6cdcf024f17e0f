package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by opaque strings (an IP,
// a reservation id, an event id). State is process-local and in-memory; a
// restart clears every counter. Bursts straddling a window boundary can
// momentarily pass up to twice the nominal limit, which is acceptable for
// abuse prevention.
type Limiter struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int // 0 means unbounded
	now        func() time.Time
}

// New returns an unbounded fixed-window limiter.
func New() *Limiter {
	return NewBounded(0)
}

// NewBounded returns a limiter that keeps at most maxEntries keys, evicting
// expired (or failing that, soonest-to-expire) entries when full.
func NewBounded(maxEntries int) *Limiter {
	return &Limiter{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Allow records one request against key and reports whether it fits within
// limit requests per window. A denied request leaves the counter unchanged,
// so continued hammering stays denied until the window resets.
func (l *Limiter) Allow(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		if !ok && l.maxEntries > 0 && len(l.entries) >= l.maxEntries {
			l.evictLocked(now)
		}
		l.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return true
	}
	if e.count >= limit {
		return false
	}
	e.count++
	return true
}

// Prune drops entries whose window has already passed. Call it periodically
// to bound memory; it is not needed for correctness.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

// evictLocked frees room for one new key: expired entries go first, and if
// none have expired the entry closest to expiry is sacrificed.
func (l *Limiter) evictLocked(now time.Time) {
	evicted := false
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			evicted = true
		}
	}
	if evicted {
		return
	}
	var oldestKey string
	var oldest time.Time
	for key, e := range l.entries {
		if oldestKey == "" || e.resetAt.Before(oldest) {
			oldestKey = key
			oldest = e.resetAt
		}
	}
	if oldestKey != "" {
		delete(l.entries, oldestKey)
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
