// Package querycache is the TimeQL Result Cache (spec §4.M): a TTL +
// LRU-bounded store keyed by the canonical serialization of the parsed
// query plus tenant_id, grounded on the teacher's hashicorp/golang-lru
// query cache.
package querycache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/traversion/causengine/internal/timeql"
)

type entry struct {
	value     interface{}
	insertedAt time.Time
}

// Cache is a TTL+LRU-bounded query result cache. It relies purely on TTL
// for invalidation — there is no explicit invalidation schedule (§4.M).
type Cache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, entry]
	ttl   time.Duration
}

func New(capacity int, ttl time.Duration) *Cache {
	c, _ := lru.New[string, entry](capacity)
	return &Cache{cache: c, ttl: ttl}
}

// Key builds the cache key from a parsed statement and tenant id.
func Key(stmt *timeql.Statement, tenantID string) string {
	return fmt.Sprintf("%s|%+v", tenantID, stmt)
}

// Get returns the cached value for key if present and not expired (as of
// now).
func (c *Cache) Get(key string, now time.Time) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if now.Sub(e.insertedAt) > c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, stamped with the given insertion wall
// clock.
func (c *Cache) Put(key string, value interface{}, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, entry{value: value, insertedAt: now})
}

// Len reports the number of entries currently held (including any not
// yet lazily expired).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
