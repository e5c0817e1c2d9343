package analyzer

import (
	"sync"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
)

// CacheKey identifies one duplicate-search configuration over one
// record-set size. Any parameter change addresses a different entry.
type CacheKey struct {
	Threshold      float64
	Mode           domain.SearchMode
	IncludeTrivial bool
	MinTokens      int
	RecordCount    int
	HammingBound   int
}

type cacheEntry struct {
	pairs     []*domain.DuplicatePair
	timestamp time.Time
}

// ResultCache memoizes duplicate-search results with last-write
// staleness checking: an entry is served only while no record newer
// than it exists. Stale entries stay in the map until overwritten or
// cleared; they are simply never returned.
//
// The cache is the one shared-mutable piece of the engine, so it is
// mutex-guarded.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]cacheEntry
}

// NewResultCache creates an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[CacheKey]cacheEntry)}
}

// Get returns the cached result for the key if it is at least as new as
// currentMaxTimestamp, the newest record timestamp in the set. The
// returned slice is a copy; callers may reorder or append freely.
func (c *ResultCache) Get(key CacheKey, currentMaxTimestamp time.Time) ([]*domain.DuplicatePair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.timestamp.Before(currentMaxTimestamp) {
		// A newer record exists; force recomputation.
		return nil, false
	}

	pairs := make([]*domain.DuplicatePair, len(entry.pairs))
	copy(pairs, entry.pairs)
	return pairs, true
}

// Put stores a result stamped with the newest record timestamp it was
// computed over.
func (c *ResultCache) Put(key CacheKey, pairs []*domain.DuplicatePair, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{pairs: pairs, timestamp: timestamp}
}

// Len returns the number of stored entries, stale ones included.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]cacheEntry)
}
