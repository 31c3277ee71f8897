package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mirae:ratelimit:"

// RedisLimiter implements the sliding window with a per-client sorted set:
// scores are request timestamps, stale members are trimmed and the new
// request added in one pipeline so concurrent checks stay consistent.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter connects to Redis and verifies reachability.
func NewRedisLimiter(url string) (*RedisLimiter, error) {
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
	return &RedisLimiter{client: client}, nil
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, clientID string, limit int, window time.Duration) (Decision, error) {
	key := redisKeyPrefix + clientID
	now := time.Now()
	cutoff := now.Add(-window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", formatScore(cutoff))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis rate check failed: %w", err)
	}

	if int(countCmd.Val()) < limit {
		add := l.client.TxPipeline()
		// Member carries a nonce so same-microsecond requests stay distinct.
		add.ZAdd(ctx, key, redis.Z{
			Score:  scoreOf(now),
			Member: formatScore(now) + ":" + uuid.NewString(),
		})
		add.Expire(ctx, key, window)
		if _, err := add.Exec(ctx); err != nil {
			return Decision{}, fmt.Errorf("redis rate record failed: %w", err)
		}
		return Decision{Allowed: true}, nil
	}

	oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return Decision{Allowed: false, RetryAfter: window}, nil
	}
	oldestAt := timeOf(oldest[0].Score)
	retry := oldestAt.Add(window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// Status implements Limiter.
func (l *RedisLimiter) Status(ctx context.Context, clientID string, limit int, window time.Duration) map[string]interface{} {
	key := redisKeyPrefix + clientID
	cutoff := time.Now().Add(-window)

	l.client.ZRemRangeByScore(ctx, key, "0", formatScore(cutoff))
	used := int(l.client.ZCard(ctx, key).Val())
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return map[string]interface{}{
		"client_id":      clientID,
		"backend":        "redis",
		"used":           used,
		"limit":          limit,
		"remaining":      remaining,
		"window_seconds": window.Seconds(),
	}
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, clientID string) error {
	if err := l.client.Del(ctx, redisKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("redis reset failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error { return l.client.Close() }

func scoreOf(t time.Time) float64 {
	return float64(t.UnixMicro())
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func timeOf(score float64) time.Time {
	return time.UnixMicro(int64(score))
}
