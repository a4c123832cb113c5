package pipeline

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
)

// CachedAnalyzer wraps an Analyzer with an in-memory LRU cache keyed by file content
// and options. A hit re-stamps the cached analysis for the requesting station.
type CachedAnalyzer struct {
	inner   Analyzer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAnalyzer creates a cache decorator around an analyzer.
func NewCachedAnalyzer(inner Analyzer, maxEntries int, metrics *observability.Metrics) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, in domain.StationInput, opts domain.Options) (domain.StationReport, error) {
	key := domain.ContentKey(in.Data, opts)
	if a, ok := c.cache.get(key); ok {
		c.metrics.AnalysisCache.WithLabelValues("hit").Inc()
		return domain.NewStationReport(in, a), nil
	}
	c.metrics.AnalysisCache.WithLabelValues("miss").Inc()

	r, err := c.inner.Analyze(ctx, in, opts)
	if err != nil {
		// Failures are not cached; the caller sees the same error on the next try.
		return r, err
	}
	c.cache.put(key, r.Analysis)
	return r, nil
}

// Len reports the number of cached analyses.
func (c *CachedAnalyzer) Len() int {
	return c.cache.len()
}

// lruCache is a thread-safe LRU of analyses. The front of order is the most
// recently used entry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
}

type cacheItem struct {
	key      string
	analysis domain.Analysis
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache) get(key string) (domain.Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.Analysis{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).analysis, true
}

func (c *lruCache) put(key string, a domain.Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheItem).analysis = a
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheItem{key: key, analysis: a})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
