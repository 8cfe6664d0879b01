package api

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// GeoCache is a bounded LRU cache for coordinate-keyed lookups with lazy TTL
// eviction on read. Keys round coordinates to 4 decimal places (~11 m), so
// nearby fixes from a drifting GPS collapse onto the same entry.
type GeoCache[V any] struct {
	capacity int
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	now func() time.Time // overridable for tests
}

type geoCacheEntry[V any] struct {
	key      string
	value    V
	cachedAt time.Time
}

// NewGeoCache creates a cache holding at most capacity entries, each valid
// for ttl after insertion.
func NewGeoCache[V any](capacity int, ttl time.Duration) *GeoCache[V] {
	return &GeoCache[V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// CacheKey builds the canonical cache key for a coordinate pair. Extra
// discriminators (e.g. a search radius) are appended in order.
func CacheKey(lat, lon float64, extra ...int) string {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	for _, e := range extra {
		key = fmt.Sprintf("%s:%d", key, e)
	}
	return key
}

// Get returns the cached value for key if present and not expired. Expired
// entries are removed on read.
func (c *GeoCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*geoCacheEntry[V])
	if c.now().Sub(entry.cachedAt) > c.ttl {
		c.lru.Remove(elem)
		delete(c.entries, key)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when the
// cache is full.
func (c *GeoCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*geoCacheEntry[V])
		entry.value = value
		entry.cachedAt = c.now()
		return
	}

	elem := c.lru.PushFront(&geoCacheEntry[V]{key: key, value: value, cachedAt: c.now()})
	c.entries[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*geoCacheEntry[V]).key)
		}
	}
}

// Len returns the current number of entries, counting expired ones that have
// not been read yet.
func (c *GeoCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
