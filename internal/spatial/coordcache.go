package spatial

import (
	"sync"

	"github.com/easystreet/sweepd/internal/model"
	"github.com/easystreet/sweepd/internal/observability"
)

// coordCache is a bounded map from segment id to its parsed coordinate
// list. On overflow the whole cache is cleared before the new entry goes
// in; no LRU bookkeeping. That trades a throughput cliff under sustained
// churn at the capacity boundary for zero per-read overhead, which suits a
// working set (one viewport) far below capacity.
type coordCache struct {
	mu  sync.RWMutex
	cap int
	m   map[string][]model.LatLng
}

func newCoordCache(capacity int) *coordCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &coordCache{cap: capacity, m: make(map[string][]model.LatLng)}
}

func (c *coordCache) get(id string) ([]model.LatLng, bool) {
	c.mu.RLock()
	v, ok := c.m[id]
	c.mu.RUnlock()
	if ok {
		observability.IncCoordCacheHit()
	} else {
		observability.IncCoordCacheMiss()
	}
	return v, ok
}

func (c *coordCache) put(id string, coords []model.LatLng) {
	c.mu.Lock()
	if _, exists := c.m[id]; !exists && len(c.m) >= c.cap {
		c.m = make(map[string][]model.LatLng)
		observability.IncCoordCacheClear()
	}
	c.m[id] = coords
	observability.SetCoordCacheSize(len(c.m))
	c.mu.Unlock()
}

func (c *coordCache) clear() {
	c.mu.Lock()
	c.m = make(map[string][]model.LatLng)
	observability.SetCoordCacheSize(0)
	c.mu.Unlock()
}

func (c *coordCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
