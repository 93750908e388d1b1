package cache

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/store"
)

// Cache maps a query to its last successful lookup result
//
// There is no eviction and no TTL: entries stay until Clear. Callers only
// add results that carry location data; the cache itself does not check.
type Cache struct {
	mu      sync.Mutex
	store   *store.Adapter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New creates a result cache backed by the given adapter
func New(s *store.Adapter, m *metrics.Metrics, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Cache{
		store:   s,
		metrics: m,
		logger:  log.WithComponent("ResultCache"),
	}
}

// Get returns the cached result for query
func (c *Cache) Get(query string) (models.LookupResult, bool) {
	result, ok := c.lookup(query)
	if c.metrics != nil {
		label := "miss"
		if ok {
			label = "hit"
		}
		c.metrics.CacheResults.WithLabelValues(label).Inc()
	}
	return result, ok
}

func (c *Cache) lookup(query string) (models.LookupResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.load()[query]
	return result, ok
}

// Add upserts result under query and persists the whole map
func (c *Cache) Add(query string, result models.LookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load()
	entries[query] = result
	store.SaveJSON(c.store, store.CacheKey, entries)

	c.logger.Debug().Str("query", query).Int("size", len(entries)).Msg("Result cached")
	c.observeSize(len(entries))
}

// AddAll upserts many results with a single write
func (c *Cache) AddAll(results map[string]models.LookupResult) {
	if len(results) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load()
	for q, r := range results {
		entries[q] = r
	}
	store.SaveJSON(c.store, store.CacheKey, entries)
	c.observeSize(len(entries))
}

// Len returns the number of cached queries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.load())
}

// Clear drops every cached result
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Remove(store.CacheKey)
	c.logger.Info().Msg("Result cache cleared")
	c.observeSize(0)
}

// load must be called with mutex locked
func (c *Cache) load() map[string]models.LookupResult {
	entries := store.LoadJSON(c.store, store.CacheKey, map[string]models.LookupResult{})
	if entries == nil {
		entries = map[string]models.LookupResult{}
	}
	return entries
}

func (c *Cache) observeSize(n int) {
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(n))
	}
}
