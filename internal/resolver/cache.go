package resolver

import (
	"sync"
	"sync/atomic"

	"github.com/winnowhq/winnow/domain"
)

// resolutionCache memoizes resolution results for one run. Keys combine the
// specifier with its resolution base, so the same specifier from different
// directories never collides. Entries are append-only: the file set is fixed
// for the duration of a run, so results never need invalidation.
type resolutionCache struct {
	mu      sync.RWMutex
	entries map[string]domain.ResolvedModule
	hits    int64
	misses  int64
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{
		entries: make(map[string]domain.ResolvedModule),
	}
}

func cacheKey(specifier, base string) string {
	return specifier + "\x00" + base
}

func (c *resolutionCache) get(key string) (domain.ResolvedModule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resolved, ok := c.entries[key]
	if ok {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	return resolved, ok
}

func (c *resolutionCache) put(key string, resolved domain.ResolvedModule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = resolved
}

func (c *resolutionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
