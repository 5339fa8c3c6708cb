// Package cache provides the bounded in-process caches used by the vector
// search engine. Entries are immutable after insertion; eviction is LRU with
// a TTL bound, and a miss always falls through to live computation.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultSize bounds each cache when no explicit capacity is configured
	DefaultSize = 1000
	// DefaultTTL bounds entry lifetime when no explicit TTL is configured
	DefaultTTL = 15 * time.Minute
)

// Cache is a bounded TTL+LRU cache keyed by string.
// The zero value is not usable; construct with New.
type Cache[V any] struct {
	name       string
	lru        *expirable.LRU[string, V]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a bounded cache.
// cacheTotal is a counter vec with labels ("cache", "result") and may be nil.
func New[V any](name string, size int, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[V]{
		name:       name,
		lru:        expirable.NewLRU[string, V](size, nil, ttl),
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached value for key. A miss is not an error.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.inc("hit")
	} else {
		c.inc("miss")
	}
	return v, ok
}

// Set stores a value. Values must not be mutated after insertion; callers
// that hand out cached values should store and return copies.
func (c *Cache[V]) Set(key string, value V) {
	evicted := c.lru.Add(key, value)
	if evicted {
		c.logger.Debug("cache evicted oldest entry", zap.String("cache", c.name))
	}
}

// Len returns the number of live entries
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Purge drops all entries
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

func (c *Cache[V]) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(c.name, result).Inc()
	}
}
