package marketdata

import (
	"sync"
	"time"
)

// Cache defaults matching the upstream provider quota design
const (
	DefaultCacheMaxSize = 1000
	DefaultCacheTTL     = 300 * time.Second
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is a bounded, time-expiring key/value store shared by all provider
// calls. Entries expire TTL after insertion; when the cache is full the
// oldest-inserted entry is evicted first.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

// NewTTLCache creates a cache with the given capacity and entry lifetime
func NewTTLCache(maxSize int, ttl time.Duration) *TTLCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &TTLCache{
		entries: make(map[string]cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are removed on access.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.remove(key)
		return nil, false
	}
	return entry.value, true
}

// Put stores value under key with expiry = now + TTL, evicting the
// oldest-inserted entries if the cache is full.
func (c *TTLCache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}

	for len(c.entries) >= c.maxSize {
		c.remove(c.order[0])
	}

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.order = append(c.order, key)
}

// Clear removes all entries
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.order = nil
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been removed on access
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes key from the map and the insertion-order list.
// Caller must hold the lock.
func (c *TTLCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
