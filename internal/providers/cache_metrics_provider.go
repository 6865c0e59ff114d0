package providers

import (
	"ringsync/internal/structures"
	"strings"
)

// unknownTable labels keys that do not follow the table:day layout.
const unknownTable = "other"

// MetricsCacheProvider counts parent id lookups per parent table. Keys are
// "table:day", so the table label is everything before the first colon.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func cacheKeyTable(key string) string {
	table, _, found := strings.Cut(key, ":")
	if !found || table == "" {
		return unknownTable
	}
	return table
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits(cacheKeyTable(key))
	} else {
		c.metrics.IncCacheMisses(cacheKeyTable(key))
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func (c *MetricsCacheProvider) Del(key string) {
	c.inner.Del(key)
}

// NewInstrumentedCacheProvider returns the parent id cache with per-table
// hit/miss counters. A disabled cache is returned unwrapped so every lookup
// is not reported as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
