package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 5 * time.Minute
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// LRUCache implements an LRU cache with TTL support.
type LRUCache[V any] struct {
	capacity int
	ttl      time.Duration
	now      Clock
	mu       sync.Mutex

	cache map[string]*entry[V]
	order *list.List // front is most recently used

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	element   *list.Element
}

// LRUOption configures an LRUCache.
type LRUOption func(*lruOptions)

type lruOptions struct {
	clock Clock
}

// WithClock overrides time.Now for expiry decisions.
func WithClock(clock Clock) LRUOption {
	return func(o *lruOptions) {
		o.clock = clock
	}
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache[V any](capacity int, ttl time.Duration, opts ...LRUOption) *LRUCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	o := lruOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &LRUCache[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      o.clock,
		cache:    make(map[string]*entry[V]),
		order:    list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.cache[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	if c.expired(e, c.now()) {
		c.removeEntry(e)
		c.misses.Add(1)
		return zero, false
	}

	c.order.MoveToFront(e.element)
	c.hits.Add(1)
	return e.value, true
}

// Put stores a value in the cache. Re-putting a key restarts its TTL.
func (c *LRUCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.cache[key]; ok {
		e.value = value
		e.createdAt = now
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// Delete removes key if present.
func (c *LRUCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if ok {
		c.removeEntry(e)
	}
	return ok
}

// Size returns the number of entries in the cache, expired ones included.
func (c *LRUCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*entry[V])
	c.order.Init()
}

// Stats reports hit, miss and eviction counters.
func (c *LRUCache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Size(),
	}
}

// CleanupExpired removes all expired entries.
// Returns the number of entries removed.
func (c *LRUCache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	// Walk from the back: least recently used entries are the likeliest to be stale.
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry[V])
		if c.expired(e, now) {
			c.removeEntry(e)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRUCache[V]) expired(e *entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) >= c.ttl
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *LRUCache[V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry[V]))
	c.evictions.Add(1)
}

// removeEntry removes an entry from the cache.
// Must be called with lock held.
func (c *LRUCache[V]) removeEntry(e *entry[V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}
