// Package cache keeps recently read admin preferences in memory in front of
// a slower repositories.PreferenceRepository.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/taalumaworld/admin-access/repositories"
	"go.uber.org/zap"
)

var (
	preferenceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_preference_cache_hits_total",
		Help: "Total number of admin preference cache hits.",
	})
	preferenceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_preference_cache_misses_total",
		Help: "Total number of admin preference cache misses.",
	})
)

// entry is a cached lookup result; absent values are cached too
type entry struct {
	value string
	found bool
}

// PreferenceCache is a read-through, write-through LRU in front of a
// PreferenceRepository. Entries expire after the configured TTL.
type PreferenceCache struct {
	next   repositories.PreferenceRepository
	cache  *expirable.LRU[string, entry]
	logger *zap.Logger
}

// NewPreferenceCache wraps next with an LRU of maxSize entries living for ttl
func NewPreferenceCache(next repositories.PreferenceRepository, maxSize int, ttl time.Duration, logger *zap.Logger) *PreferenceCache {
	return &PreferenceCache{
		next:   next,
		cache:  expirable.NewLRU[string, entry](maxSize, nil, ttl),
		logger: logger,
	}
}

func cacheKey(subject, key string) string {
	return subject + "\x00" + key
}

// Get returns the cached value or loads it from the wrapped repository
func (c *PreferenceCache) Get(ctx context.Context, subject, key string) (string, bool, error) {
	k := cacheKey(subject, key)
	if e, ok := c.cache.Get(k); ok {
		preferenceCacheHits.Inc()
		return e.value, e.found, nil
	}
	preferenceCacheMisses.Inc()

	value, found, err := c.next.Get(ctx, subject, key)
	if err != nil {
		return "", false, err
	}

	c.cache.Add(k, entry{value: value, found: found})
	return value, found, nil
}

// Set writes through to the wrapped repository and refreshes the entry.
// On failure the entry is dropped so the next read goes to the store.
func (c *PreferenceCache) Set(ctx context.Context, subject, key, value string) error {
	k := cacheKey(subject, key)
	if err := c.next.Set(ctx, subject, key, value); err != nil {
		c.cache.Remove(k)
		return err
	}

	c.cache.Add(k, entry{value: value, found: true})
	return nil
}

// Delete removes the value from the wrapped repository and the cache
func (c *PreferenceCache) Delete(ctx context.Context, subject, key string) error {
	c.cache.Remove(cacheKey(subject, key))
	if err := c.next.Delete(ctx, subject, key); err != nil {
		return err
	}

	c.logger.Debug("preference cache entry invalidated", zap.String("sub", subject), zap.String("key", key))
	return nil
}

// Len returns the number of cached entries
func (c *PreferenceCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached entry
func (c *PreferenceCache) Purge() {
	c.cache.Purge()
}
