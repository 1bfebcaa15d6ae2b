// Package cache implements the gateway's bounded LRU over logical query
// results. Keys are query descriptors ("search:<topic>" or "info:<id>");
// values are the raw JSON bodies fetched from a backend. Entries are purely
// derived state: eviction or loss only costs a refetch.
package cache

import (
	"container/list"
	"fmt"
	"strings"
	"sync"

	"bazar/internal/metrics"
)

// SearchKey builds the cache key for a topic search.
func SearchKey(topic string) string {
	return "search:" + topic
}

// InfoKey builds the cache key for an item lookup.
func InfoKey(itemID int) string {
	return fmt.Sprintf("info:%d", itemID)
}

type entry struct {
	key   string
	value []byte
}

// LRU is a capacity-bounded least-recently-used cache. Reads promote the
// entry to most-recently-used; inserting past capacity evicts the single
// least-recently-used entry.
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

// NewLRU builds a cache holding at most capacity entries.
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached body for key, promoting it on a hit.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	c.order.MoveToFront(el)
	metrics.CacheHitsTotal.Inc()
	return el.Value.(entry).value, true
}

// Put stores a fetched body under key. Writes happen only as the side
// effect of a backend fetch; invalidation is the only other mutation.
func (c *LRU) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = entry{key: key, value: value}
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(entry{key: key, value: value})
	c.items[key] = el

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// Invalidate removes the info entry for itemID and, because topic
// membership is not tracked, every search entry.
func (c *LRU) Invalidate(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[InfoKey(itemID)]; ok {
		c.remove(el)
	}

	var stale []*list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		if strings.HasPrefix(el.Value.(entry).key, "search:") {
			stale = append(stale, el)
		}
	}
	for _, el := range stale {
		c.remove(el)
	}

	metrics.CacheInvalidationsTotal.Inc()
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU) evictOldest() {
	tail := c.order.Back()
	if tail == nil {
		return
	}
	c.remove(tail)
	metrics.CacheEvictionsTotal.Inc()
}

func (c *LRU) remove(el *list.Element) {
	delete(c.items, el.Value.(entry).key)
	c.order.Remove(el)
}
