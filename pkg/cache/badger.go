package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCache is the persistent single-node backend. Badger enforces TTL at
// the storage layer; entry metadata still records creation and access times
// for stats parity with the other backends.
type BadgerCache struct {
	db      *badger.DB
	maxSize int
	ttl     time.Duration
}

// NewBadgerCache opens (or creates) a BadgerDB-backed cache at path.
func NewBadgerCache(path string, maxSize int, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is noisy at Info

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerCache{db: db, maxSize: maxSize, ttl: ttl}, nil
}

// Get implements SessionCache.
func (c *BadgerCache) Get(_ context.Context, sessionID string) (interface{}, error) {
	var entry redisEntry
	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionID))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		// Refresh recency but keep the original expiry window.
		entry.LastAccessed = time.Now()
		remaining := c.ttl - time.Since(entry.CreatedAt)
		if remaining <= 0 {
			return badger.ErrKeyNotFound
		}
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(sessionID), payload).WithTTL(remaining))
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("badger get failed: %w", err)
	}
	return entry.Data, nil
}

// Set implements SessionCache.
func (c *BadgerCache) Set(_ context.Context, sessionID string, data interface{}) error {
	now := time.Now()
	payload, err := json.Marshal(redisEntry{Data: data, CreatedAt: now, LastAccessed: now})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(sessionID), payload).WithTTL(c.ttl))
	})
}

// Clear implements SessionCache.
func (c *BadgerCache) Clear(_ context.Context) (int, error) {
	count := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger clear failed: %w", err)
	}
	return count, nil
}

// Stats implements SessionCache.
func (c *BadgerCache) Stats(_ context.Context) map[string]interface{} {
	total := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			total++
		}
		return nil
	})
	return map[string]interface{}{
		"backend":         "badger",
		"total_entries":   total,
		"memory_entries":  0,
		"active_entries":  total,
		"expired_entries": 0,
		"max_size":        c.maxSize,
		"ttl_minutes":     c.ttl.Minutes(),
		"utilization_pct": utilizationPct(total, c.maxSize),
	}
}

// Close implements SessionCache.
func (c *BadgerCache) Close() error { return c.db.Close() }
