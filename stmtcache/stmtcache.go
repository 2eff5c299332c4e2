package stmtcache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

var (
	// ErrInvalidCapacity is returned for a capacity below one.
	ErrInvalidCapacity = errors.New("cache capacity must be at least 1")

	// ErrNilCreate is returned when GetOrCreate is called without a create function.
	ErrNilCreate = errors.New("create function cannot be nil")
)

// Counter is a monotonically increasing instrument.
type Counter interface {
	Inc()
}

// Gauge is an instrument that moves up and down.
type Gauge interface {
	Inc()
	Dec()
}

// Config controls a Cache instance.
type Config[V any] struct {
	// Capacity is the maximum number of entries. It must be at least 1.
	Capacity int

	// Release is called exactly once for every entry that leaves the cache,
	// whether by eviction, Resize or Clear.
	Release func(key string, value V)

	// Hits, Misses and Evictions are optional counters.
	Hits      Counter
	Misses    Counter
	Evictions Counter

	// Entries is an optional gauge tracking the number of cached entries.
	Entries Gauge
}

// Cache is a bounded, least-recently-used map from SQL text to a prepared
// value. It is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, V]
	capacity int
	cfg      Config[V]
}

// New creates a Cache.
func New[V any](cfg Config[V]) (*Cache[V], error) {
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, cfg.Capacity)
	}

	c := &Cache[V]{capacity: cfg.Capacity, cfg: cfg}
	lru, err := simplelru.NewLRU[string, V](cfg.Capacity, c.evicted)
	if err != nil {
		return nil, errors.Join(ErrInvalidCapacity, err)
	}
	c.lru = lru
	return c, nil
}

// evicted runs under c.mu for every entry removed by the LRU.
func (c *Cache[V]) evicted(key string, value V) {
	if c.cfg.Release != nil {
		c.cfg.Release(key, value)
	}
	if c.cfg.Evictions != nil {
		c.cfg.Evictions.Inc()
	}
	if c.cfg.Entries != nil {
		c.cfg.Entries.Dec()
	}
}

// GetOrCreate returns the entry for key, marking it most recently used. On
// a miss it calls create and stores the result, evicting the least recently
// used entry when over capacity. A failing create leaves the cache unchanged.
func (c *Cache[V]) GetOrCreate(key string, create func(key string) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		if c.cfg.Hits != nil {
			c.cfg.Hits.Inc()
		}
		return v, nil
	}
	if c.cfg.Misses != nil {
		c.cfg.Misses.Inc()
	}

	if create == nil {
		var zero V
		return zero, ErrNilCreate
	}
	v, err := create(key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.lru.Add(key, v)
	if c.cfg.Entries != nil {
		c.cfg.Entries.Inc()
	}
	return v, nil
}

// Get returns the entry for key and refreshes its recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(key)
}

// Remove releases and drops the entry for key.
func (c *Cache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Resize changes the capacity, evicting least recently used entries until
// the cache fits. It returns the number of evicted entries.
func (c *Cache[V]) Resize(capacity int) (int, error) {
	if capacity < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	return c.lru.Resize(capacity), nil
}

// Clear releases every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the configured capacity.
func (c *Cache[V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}
