// Package ratelimit implements sliding-window per-client rate limiting,
// Redis-backed when available with a lock-guarded in-memory fallback.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Decision is the outcome of one rate check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the client must wait when not allowed.
	RetryAfter time.Duration
}

// Limiter is the capability the HTTP middleware depends on.
type Limiter interface {
	// Check records the request when allowed and reports the decision.
	Check(ctx context.Context, clientID string, limit int, window time.Duration) (Decision, error)
	// Status reports the current window state for a client.
	Status(ctx context.Context, clientID string, limit int, window time.Duration) map[string]interface{}
	// Reset drops all recorded requests for a client.
	Reset(ctx context.Context, clientID string) error
}

// Config selects the limiter backend.
type Config struct {
	RedisURL string
}

// New returns a Redis limiter when configured and reachable, otherwise the
// in-memory fallback.
func New(cfg Config, logger *slog.Logger) Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisURL != "" {
		rl, err := NewRedisLimiter(cfg.RedisURL)
		if err == nil {
			logger.Info("rate limiter backend selected", "backend", "redis")
			return rl
		}
		logger.Warn("redis unavailable, degrading rate limiter", "error", err)
	}
	logger.Info("rate limiter backend selected", "backend", "memory")
	return NewMemoryLimiter()
}
