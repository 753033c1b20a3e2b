// Package cache implements the two weather cache tiers: a short-TTL
// in-memory map per coordinate and a durable per-circuit store used as an
// offline fallback.
package cache

import (
	"sync"
	"time"

	"github.com/i474232898/circuit-weather/internal/weather"
)

// DefaultTTL is how long a Tier 1 entry suppresses network calls.
const DefaultTTL = 10 * time.Minute

// MemoryCache is the Tier 1 cache. It is not size-bounded; the key space is
// the handful of locations viewed per process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]weather.Payload
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A ttl <= 0 uses DefaultTTL and a
// nil now uses time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]weather.Payload),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the entry for key if it is younger than the TTL.
func (c *MemoryCache) Get(key weather.CacheKey) (weather.Payload, bool) {
	c.mu.RLock()
	p, ok := c.entries[key.String()]
	c.mu.RUnlock()

	if !ok || c.now().Sub(p.Timestamp) >= c.ttl {
		return weather.Payload{}, false
	}
	return p, true
}

// Put replaces the entry for key unless the stored one has a newer
// timestamp, so a slow response cannot clobber a fresher one.
func (c *MemoryCache) Put(key weather.CacheKey, p weather.Payload) bool {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[k]; ok && cur.Timestamp.After(p.Timestamp) {
		return false
	}
	c.entries[k] = p
	return true
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]weather.Payload)
	c.mu.Unlock()
}

// Len reports the number of entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ weather.MemoryCache = (*MemoryCache)(nil)
