package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local sliding window used when no redis
// address is configured, and by tests. Counts are per process, so with
// multiple replicas the effective quota is limit*replicas; the redis
// limiter is the one that shares state.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	arrived map[string][]time.Time
	now     func() time.Time
}

func NewMemoryLimiter(window time.Duration, limit int) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryLimiter{
		window:  window,
		limit:   limit,
		arrived: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Test use only.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, scope, identity string) (Decision, error) {
	key := Key(scope, identity)
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.arrived[key][:0]
	for _, t := range l.arrived[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.arrived[key] = kept
		return Decision{Allowed: false, Remaining: 0}, nil
	}

	kept = append(kept, now)
	l.arrived[key] = kept
	return Decision{Allowed: true, Remaining: l.limit - len(kept)}, nil
}
