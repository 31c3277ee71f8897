package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many checks pass between sweeps of idle clients.
const sweepEvery = 100

// MemoryLimiter keeps per-client timestamp windows behind a single lock.
// Timestamp slices are strictly monotonic per client.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	checks  int
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory sliding-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check implements Limiter.
func (l *MemoryLimiter) Check(_ context.Context, clientID string, limit int, window time.Duration) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.checks++
	if l.checks%sweepEvery == 0 {
		l.sweepLocked(now, window)
	}

	fresh := dropStale(l.clients[clientID], now, window)
	if len(fresh) < limit {
		l.clients[clientID] = append(fresh, now)
		return Decision{Allowed: true}, nil
	}
	l.clients[clientID] = fresh
	retry := fresh[0].Add(window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// Status implements Limiter.
func (l *MemoryLimiter) Status(_ context.Context, clientID string, limit int, window time.Duration) map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := dropStale(l.clients[clientID], now, window)
	l.clients[clientID] = fresh

	remaining := limit - len(fresh)
	if remaining < 0 {
		remaining = 0
	}
	return map[string]interface{}{
		"client_id":      clientID,
		"backend":        "memory",
		"used":           len(fresh),
		"limit":          limit,
		"remaining":      remaining,
		"window_seconds": window.Seconds(),
	}
}

// Reset implements Limiter.
func (l *MemoryLimiter) Reset(_ context.Context, clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, clientID)
	return nil
}

// sweepLocked drops clients whose newest timestamp fell out of the window.
func (l *MemoryLimiter) sweepLocked(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	for id, stamps := range l.clients {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(l.clients, id)
		}
	}
}

func dropStale(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
