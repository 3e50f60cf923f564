package analysis

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultCacheTTL is the fixed window after which a cached analysis is
// considered stale.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	result    *TraceAnalysisResult
	createdAt time.Time
}

// Cache memoizes completed analyses keyed by (transaction identifier,
// serialized option set). Entries are superseded by the next Set, never
// proactively evicted by Get. The mutex makes concurrent read-then-write
// sequences safe; the cache is the only shared mutable state in the engine.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls back
// to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(txHash string, opts Options) string {
	serialized, _ := json.Marshal(opts)
	return txHash + "|" + string(serialized)
}

// Get returns the cached analysis when present and fresh
func (c *Cache) Get(txHash string, opts Options) (*TraceAnalysisResult, bool) {
	key := cacheKey(txHash, opts)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		// Stale entries stay in place until the next Set replaces them
		return nil, false
	}
	return entry.result, true
}

// Set stores a completed analysis, replacing any previous entry
func (c *Cache) Set(txHash string, opts Options, result *TraceAnalysisResult) {
	key := cacheKey(txHash, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{result: result, createdAt: c.now()}
}

// Len returns the number of stored entries, fresh or stale
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
