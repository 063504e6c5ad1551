package spot

import (
	"sync"
	"time"

	"strompris/pkg/market"
)

// Cache holds the most recent day prices per zone with a freshness window.
// Concurrent refreshes for the same zone race last-write-wins; cached values
// are approximations and staleness is bounded by the TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[market.PriceZone]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	day       *DayPrices
	fetchedAt time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL defaults
// to one hour.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[market.PriceZone]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached day prices for a zone if still fresh.
func (c *Cache) Get(zone market.PriceZone) (*DayPrices, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[zone]
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.day, true
}

// Put stores day prices for a zone, resetting its freshness window.
func (c *Cache) Put(zone market.PriceZone, day *DayPrices) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[zone] = cacheEntry{day: day, fetchedAt: c.now()}
}
