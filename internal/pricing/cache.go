package pricing

import (
	"sync"
	"time"
)

const (
	tierCacheTTL        = 12 * time.Hour
	tierCacheMaxEntries = 64
)

type tierEntry struct {
	pct       float64
	expiresAt time.Time
}

// tierCache memoizes the date -> discount-tier lookup. It is process-local
// and bounded; entries past their TTL or evicted under pressure are simply
// recomputed, so a stale or missing answer is never a correctness problem.
type tierCache struct {
	mu      sync.Mutex
	entries map[string]tierEntry
}

func newTierCache() *tierCache {
	return &tierCache{entries: make(map[string]tierEntry)}
}

func (c *tierCache) get(date string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[date]
	if !ok {
		return 0, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, date)
		return 0, false
	}
	return e.pct, true
}

func (c *tierCache) set(date string, pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= tierCacheMaxEntries {
		c.evictLocked()
	}
	c.entries[date] = tierEntry{pct: pct, expiresAt: time.Now().Add(tierCacheTTL)}
}

// evictLocked drops expired entries first; if nothing expired, drops an
// arbitrary entry to stay bounded.
func (c *tierCache) evictLocked() {
	now := time.Now()
	dropped := false
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			dropped = true
		}
	}
	if dropped {
		return
	}
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}
