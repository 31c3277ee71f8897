package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	data         interface{}
	createdAt    time.Time
	lastAccessed time.Time
}

// MemoryCache is the in-process fallback backend. TTL is measured from entry
// creation; LRU eviction by last access runs on every Set that overflows the
// bound. All mutations happen under one lock.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory session cache.
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements SessionCache.
func (c *MemoryCache) Get(_ context.Context, sessionID string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sessionID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	now := c.now()
	if now.Sub(e.createdAt) > c.ttl {
		delete(c.entries, sessionID)
		return nil, ErrKeyNotFound
	}
	e.lastAccessed = now
	return e.data, nil
}

// Set implements SessionCache.
func (c *MemoryCache) Set(_ context.Context, sessionID string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[sessionID] = &memoryEntry{data: data, createdAt: now, lastAccessed: now}
	c.evictLocked()
	return nil
}

// evictLocked drops the least-recently-accessed entries until the size bound
// holds again.
func (c *MemoryCache) evictLocked() {
	if len(c.entries) <= c.maxSize {
		return
	}
	type keyed struct {
		key      string
		accessed time.Time
	}
	ordered := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		ordered = append(ordered, keyed{key: k, accessed: e.lastAccessed})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].accessed.Before(ordered[j].accessed) })
	for _, item := range ordered {
		if len(c.entries) <= c.maxSize {
			break
		}
		delete(c.entries, item.key)
	}
}

// Clear implements SessionCache.
func (c *MemoryCache) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]*memoryEntry)
	return n, nil
}

// Stats implements SessionCache.
func (c *MemoryCache) Stats(_ context.Context) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	active, expired := 0, 0
	for _, e := range c.entries {
		if now.Sub(e.createdAt) > c.ttl {
			expired++
		} else {
			active++
		}
	}
	return map[string]interface{}{
		"backend":         "memory",
		"total_entries":   len(c.entries),
		"memory_entries":  len(c.entries),
		"active_entries":  active,
		"expired_entries": expired,
		"max_size":        c.maxSize,
		"ttl_minutes":     c.ttl.Minutes(),
		"utilization_pct": utilizationPct(len(c.entries), c.maxSize),
	}
}

// Close implements SessionCache.
func (c *MemoryCache) Close() error { return nil }
