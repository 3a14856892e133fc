// Package cache provides a small in-process request cache used by the
// domain API modules to de-duplicate and time-bound backend reads.
//
// Entries are keyed by string, stamped with the time of their last refresh
// from the backend, and considered live for a fixed TTL (30s by default).
// Domain stores layer their own, longer freshness windows on top of this
// cache; this layer only trims redundant round trips on hot paths.
//
// Concurrency: the cache is safe for concurrent use, but there is no
// in-flight de-duplication here — two callers racing on the same key before
// the first resolves both invoke their request function, last write wins.
// De-duplication of in-flight requests is the responsibility of the domain
// store's per-key loading guard, one layer up.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultTTL is how long an entry is served without re-invoking the
	// request function.
	DefaultTTL = 30 * time.Second

	// maxEntries triggers a best-effort sweep of expired entries on insert.
	// Not a strict LRU: live entries are kept even above the cap.
	maxEntries = 100
)

var (
	// cacheReqs counts cache lookups by outcome ("hit" or "miss").
	cacheReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_cache_lookups_total",
			Help: "Total number of request cache lookups.",
		},
		[]string{"result"},
	)

	// cacheEvictions counts entries removed by the insert-time sweep.
	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "request_cache_evictions_total",
			Help: "Total number of request cache entries evicted by sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheReqs, cacheEvictions)
}

// entry is one cached result. timestamp is always the time of the last
// refresh from the backend, never of an optimistic local mutation.
type entry struct {
	data      any
	timestamp time.Time
}

// Cache is a TTL-bounded key/value cache for request results.
// The zero value is not usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time // test seam
}

// New returns a Cache with the given TTL. A ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Request returns the live cached value for key when useCache is true and a
// non-expired entry exists; otherwise it invokes fn, stores the result under
// key (when useCache) and returns it. Errors from fn are returned as-is and
// never cached.
func Request[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error), useCache bool) (T, error) {
	if useCache {
		if v, ok := c.get(key); ok {
			cacheReqs.WithLabelValues("hit").Inc()
			// A stale type under a reused key is a programming error; fall
			// through to a fresh fetch rather than panicking.
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	cacheReqs.WithLabelValues("miss").Inc()

	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	if useCache {
		c.set(key, out)
	}
	return out, nil
}

// Clear removes one key. It is synchronous, idempotent, and safe to call on
// a missing key.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// ClearAll empties the cache.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.timestamp) >= c.ttl {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Sweep expired entries once the map reaches the cap.
	if len(c.entries) >= maxEntries {
		now := c.now()
		for k, e := range c.entries {
			if now.Sub(e.timestamp) >= c.ttl {
				delete(c.entries, k)
				cacheEvictions.Inc()
			}
		}
	}

	c.entries[key] = entry{data: v, timestamp: c.now()}
}
