package preload

import (
	"sync"
	"time"
)

// Well-known cache keys.
const (
	KeyOrders       = "orders"
	KeyVouchers     = "vouchers"
	KeySubscription = "subscription"
)

type entry struct {
	data      any
	timestamp time.Time
	ttl       time.Duration
}

// Cache is the per-process freshness-bounded store consulted by
// screens before falling back to a direct fetch. Expired entries are
// evicted on read. Nothing here is persisted; a fresh process always
// re-preloads.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache builds an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// Get returns the cached value if present and fresh. An expired entry
// is evicted and reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.timestamp) >= e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with the given ttl.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, timestamp: c.now(), ttl: ttl}
}

// Invalidate evicts key. Called after any mutation known to stale the
// cached collection, e.g. order placement invalidates orders.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// ClearAll drops every entry. Called on logout.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
