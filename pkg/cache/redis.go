package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mirae:session:"

type redisEntry struct {
	Data         interface{} `json:"data"`
	CreatedAt    time.Time   `json:"created_at"`
	LastAccessed time.Time   `json:"last_accessed"`
}

// RedisCache is the horizontally scalable backend. TTL enforcement is
// delegated to Redis key expiry measured from creation; Get rewrites the
// entry with KEEPTTL to refresh recency without extending the lifetime.
type RedisCache struct {
	client  *redis.Client
	maxSize int
	ttl     time.Duration
}

// NewRedisCache connects to Redis and verifies reachability.
func NewRedisCache(url string, maxSize int, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client, maxSize: maxSize, ttl: ttl}, nil
}

// Get implements SessionCache.
func (c *RedisCache) Get(ctx context.Context, sessionID string) (interface{}, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", sessionID, err)
	}

	entry.LastAccessed = time.Now()
	if payload, err := json.Marshal(entry); err == nil {
		c.client.Set(ctx, redisKeyPrefix+sessionID, payload, redis.KeepTTL)
	}
	return entry.Data, nil
}

// Set implements SessionCache.
func (c *RedisCache) Set(ctx context.Context, sessionID string, data interface{}) error {
	now := time.Now()
	payload, err := json.Marshal(redisEntry{Data: data, CreatedAt: now, LastAccessed: now})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+sessionID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Clear implements SessionCache.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("redis del failed: %w", err)
	}
	return len(keys), nil
}

// Stats implements SessionCache. Redis expires entries itself, so everything
// present is active.
func (c *RedisCache) Stats(ctx context.Context) map[string]interface{} {
	keys, err := c.scanKeys(ctx)
	total := len(keys)
	stats := map[string]interface{}{
		"backend":         "redis",
		"total_entries":   total,
		"redis_entries":   total,
		"memory_entries":  0,
		"active_entries":  total,
		"expired_entries": 0,
		"max_size":        c.maxSize,
		"ttl_minutes":     c.ttl.Minutes(),
		"utilization_pct": utilizationPct(total, c.maxSize),
	}
	if err != nil {
		stats["error"] = err.Error()
	}
	return stats
}

func (c *RedisCache) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return keys, nil
}

// Close implements SessionCache.
func (c *RedisCache) Close() error { return c.client.Close() }
