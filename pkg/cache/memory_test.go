package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests step time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(maxSize int, ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(10, time.Hour)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "s1", "hello"))
	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(10, 30*time.Minute)

	require.NoError(t, c.Set(ctx, "s1", "data"))

	clock.advance(29 * time.Minute)
	_, err := c.Get(ctx, "s1")
	assert.NoError(t, err)

	clock.advance(2 * time.Minute)
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCacheAccessDoesNotExtendTTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(10, 30*time.Minute)

	require.NoError(t, c.Set(ctx, "s1", "data"))
	clock.advance(20 * time.Minute)
	_, err := c.Get(ctx, "s1")
	require.NoError(t, err)

	// TTL counts from creation, not last access.
	clock.advance(11 * time.Minute)
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(3, time.Hour)

	require.NoError(t, c.Set(ctx, "a", 1))
	clock.advance(time.Second)
	require.NoError(t, c.Set(ctx, "b", 2))
	clock.advance(time.Second)
	require.NoError(t, c.Set(ctx, "c", 3))
	clock.advance(time.Second)

	// Touch a so b becomes least recently used.
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	clock.advance(time.Second)

	require.NoError(t, c.Set(ctx, "d", 4))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound, "b was least recently used")
	for _, key := range []string{"a", "c", "d"} {
		_, err := c.Get(ctx, key)
		assert.NoError(t, err, "key %s must survive", key)
	}
}

func TestMemoryCacheSetUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(1, time.Hour)

	require.NoError(t, c.Set(ctx, "s1", "v1"))
	require.NoError(t, c.Set(ctx, "s1", "v2"))

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestMemoryCacheClearAndStats(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(10, 30*time.Minute)

	require.NoError(t, c.Set(ctx, "a", 1))
	clock.advance(31 * time.Minute)
	require.NoError(t, c.Set(ctx, "b", 2))

	stats := c.Stats(ctx)
	assert.Equal(t, "memory", stats["backend"])
	assert.Equal(t, 2, stats["total_entries"])
	assert.Equal(t, 1, stats["active_entries"])
	assert.Equal(t, 1, stats["expired_entries"])

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, c.Stats(ctx)["total_entries"])
}
