package utils

import (
	"sync"
	"time"
)

// VectorCache is a content-addressed embedding cache. Keys are exact text,
// no normalization. There is no eviction; entries live until Clear.
type VectorCache struct {
	mu     sync.RWMutex
	items  map[string]vectorItem
	hits   int
	misses int
}

type vectorItem struct {
	vector     []float64
	hits       int
	lastAccess time.Time
}

func NewVectorCache() *VectorCache {
	return &VectorCache{
		items:  make(map[string]vectorItem),
		hits:   0,
		misses: 0,
	}
}

func (c *VectorCache) Get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.misses += 1
		return nil, false
	}

	c.hits += 1
	item.hits += 1
	item.lastAccess = time.Now()
	c.items[key] = item

	return item.vector, true
}

func (c *VectorCache) Set(key string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = vectorItem{
		vector:     vector,
		lastAccess: time.Now(),
		hits:       0,
	}
}

func (c *VectorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]vectorItem)
	c.hits = 0
	c.misses = 0
}

func (c *VectorCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

func (c *VectorCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.hits+c.misses > 0 {
		return float64(c.hits) / float64(c.hits+c.misses)
	} else {
		return 0.0
	}
}
