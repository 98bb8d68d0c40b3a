package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// entry is one stored analysis, kept as JSON so readers never share
// mutable state with the writer
type entry struct {
	data       []byte
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory TTL store for finished analyses
type MemoryCache struct {
	data       map[string]entry
	mutex      sync.RWMutex
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithMaxEntries bounds the number of stored analyses. When full, the entry
// closest to expiry is evicted first.
func WithMaxEntries(n int) Option {
	return func(c *MemoryCache) {
		c.maxEntries = n
	}
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop.
// A non-positive interval uses the default of ten minutes.
func NewMemoryCache(cleanupInterval time.Duration, opts ...Option) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	c := &MemoryCache{
		data: make(map[string]entry),
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired(cleanupInterval)

	return c
}

// Get returns the stored JSON for key as a json.RawMessage
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key]
	if !exists || time.Now().After(e.expiration) {
		return nil, domain.ErrCacheMiss
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return json.RawMessage(out), nil
}

// Set stores value as JSON with the given TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictOldest()
	}

	c.data[key] = entry{
		data:       data,
		expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(e.expiration), nil
}

// Size returns the current number of stored entries, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup loop. Safe to call more than once.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// evictOldest drops the entry that expires first. Callers hold the write lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.data {
		if oldestKey == "" || e.expiration.Before(oldest) {
			oldestKey, oldest = k, e.expiration
		}
	}
	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

func (c *MemoryCache) removeExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.data {
		if now.After(e.expiration) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.removeExpired(); n > 0 {
				log.Printf("[CACHE] Removed %d expired analyses", n)
			}
		}
	}
}
