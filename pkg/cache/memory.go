package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arkeny/signon/core"
)

// InMemoryCache implements an in-memory credential cache
type InMemoryCache struct {
	cache   map[string]*cachedRecord
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type cachedRecord struct {
	cred     *core.Credential
	cachedAt time.Time
}

var _ core.CacheWithStats = (*InMemoryCache)(nil)

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(c core.CacheConfig) *InMemoryCache {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &InMemoryCache{
		cache:   make(map[string]*cachedRecord),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// Get retrieves a credential from cache
func (c *InMemoryCache) Get(apiKey string) (*core.Credential, error) {
	c.mu.RLock()
	record, exists := c.cache[apiKey]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}

	if time.Since(record.cachedAt) > c.ttl {
		// expired
		atomic.AddInt64(&c.misses, 1)
		_ = c.Delete(apiKey)
		return nil, core.ErrCacheNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return record.cred, nil
}

// Set stores a credential in cache, evicting the oldest record when full
func (c *InMemoryCache) Set(apiKey string, cred *core.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[apiKey]; !exists && len(c.cache) >= c.maxSize {
		c.evictOldest()
	}

	c.cache[apiKey] = &cachedRecord{
		cred:     cred,
		cachedAt: time.Now(),
	}

	atomic.AddInt64(&c.sets, 1)
	return nil
}

// Delete removes a credential from cache
func (c *InMemoryCache) Delete(apiKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[apiKey]; exists {
		delete(c.cache, apiKey)
		atomic.AddInt64(&c.deletes, 1)
	}

	return nil
}

// Clear removes all cached credentials
func (c *InMemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cachedRecord)
	return nil
}

// Stats returns a snapshot of the cache counters
func (c *InMemoryCache) Stats() core.CacheStats {
	c.mu.RLock()
	size := len(c.cache)
	c.mu.RUnlock()

	return core.CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      size,
		TTL:       c.ttl,
	}
}

// evictOldest removes the record with the oldest cachedAt. Caller holds the
// write lock.
func (c *InMemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time

	for key, record := range c.cache {
		if oldestKey == "" || record.cachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = record.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.cache, oldestKey)
		atomic.AddInt64(&c.evictions, 1)
	}
}
