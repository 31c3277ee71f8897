// Package cache provides the per-session context cache: Redis-first for
// horizontal scaling, Badger for single-node persistence, in-memory as the
// always-available fallback.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrKeyNotFound is returned when a session has no cached entry.
var ErrKeyNotFound = errors.New("key not found in cache")

// SessionCache is the capability the orchestrator and handlers depend on.
type SessionCache interface {
	// Get returns the cached data for a session and refreshes its recency.
	// Expired entries are removed and reported as missing.
	Get(ctx context.Context, sessionID string) (interface{}, error)
	// Set upserts the session entry, resetting its TTL.
	Set(ctx context.Context, sessionID string, data interface{}) error
	// Clear removes all entries and returns how many were dropped.
	Clear(ctx context.Context) (int, error)
	// Stats reports backend, entry counts, limits and utilization.
	Stats(ctx context.Context) map[string]interface{}
	// Close releases backend resources.
	Close() error
}

// Config selects and sizes the cache backend.
type Config struct {
	RedisURL   string
	BadgerPath string
	MaxSize    int
	TTL        time.Duration
}

// New picks the strongest available backend: Redis when configured and
// reachable, Badger when a path is set, otherwise in-memory. Backend
// degradation is logged, never fatal.
func New(cfg Config, logger *slog.Logger) SessionCache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 200
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Minute
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(cfg.RedisURL, cfg.MaxSize, cfg.TTL)
		if err == nil {
			logger.Info("session cache backend selected", "backend", "redis")
			return rc
		}
		logger.Warn("redis unavailable, degrading session cache", "error", err)
	}
	if cfg.BadgerPath != "" {
		bc, err := NewBadgerCache(cfg.BadgerPath, cfg.MaxSize, cfg.TTL)
		if err == nil {
			logger.Info("session cache backend selected", "backend", "badger")
			return bc
		}
		logger.Warn("badger unavailable, degrading session cache", "error", err)
	}
	logger.Info("session cache backend selected", "backend", "memory")
	return NewMemoryCache(cfg.MaxSize, cfg.TTL)
}

func utilizationPct(entries, maxSize int) float64 {
	if maxSize <= 0 {
		return 0
	}
	return float64(entries) / float64(maxSize) * 100
}
