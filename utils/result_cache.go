package utils

import (
	"sync"

	"bundler/types"
)

// ResultCache maps bundle ids to their last-known outcome so a later
// request can look a result up after the submitting request finished.
// Entries are replaced wholesale, never mutated in place, and evicted in
// insertion order once capacity is reached.
type ResultCache struct {
	mu       sync.RWMutex
	results  map[string]*types.BundleOutcome
	order    []string
	capacity int
}

const DefaultResultCacheCapacity = 100000

func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultResultCacheCapacity
	}
	return &ResultCache{
		results:  make(map[string]*types.BundleOutcome),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Put upserts the outcome for a bundle id. Bundle ids are never reused by
// the relay, so an overwrite only happens on resubmission of the same id.
func (c *ResultCache) Put(bundleId string, outcome *types.BundleOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.results[bundleId]; exists {
		c.results[bundleId] = outcome
		return
	}
	if len(c.order) >= c.capacity {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.results, old)
	}
	c.results[bundleId] = outcome
	c.order = append(c.order, bundleId)
}

// Get returns the cached outcome. A miss is a normal, expected result for
// unknown or not-yet-stored ids.
func (c *ResultCache) Get(bundleId string) (*types.BundleOutcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	outcome, ok := c.results[bundleId]
	return outcome, ok
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.results)
}
