package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-memory cache implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	options
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		options: o,
	}
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if expired(entry.expiresAt, c.clock.Now()) {
		// Expired - clean up lazily
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores a value. ttl < 0 removes the entry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl < 0 {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = &cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.policy.ExpiresAt(c.clock.Now(), ttl),
	}
	return nil
}

// Delete removes a value from the cache. Returns ErrNotFound on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return ErrNotFound
	}
	delete(c.entries, key)
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	return nil
}

// GetMultiple applies Get per key, preserving key order.
func (c *MemoryCache) GetMultiple(ctx context.Context, keys []string, def []byte) []Item {
	return getMultiple(ctx, c, keys, def)
}

// SetMultiple applies Set per item and stops at the first failure.
func (c *MemoryCache) SetMultiple(ctx context.Context, items []Item, ttl time.Duration) error {
	return setMultiple(ctx, c, items, ttl)
}

// DeleteMultiple applies Delete per key and stops at the first failure.
func (c *MemoryCache) DeleteMultiple(ctx context.Context, keys []string) error {
	return deleteMultiple(ctx, c, keys)
}

// Has reports whether key is present, ignoring expiry.
func (c *MemoryCache) Has(_ context.Context, key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	return ok
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
