package classroom

import (
	"sync"
	"time"

	"classroom-sync/feature/classroom/stats"
)

type cachedStats struct {
	stats   *stats.Stats
	expires time.Time
	gen     uint64
}

// statsCache holds per-teacher stats for a TTL. Every invalidation bumps the
// teacher's generation, and a computation started under an older generation
// is not stored.
type statsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedStats
	gens    map[string]uint64
}

func newStatsCache(ttl time.Duration, now func() time.Time) *statsCache {
	return &statsCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cachedStats),
		gens:    make(map[string]uint64),
	}
}

// lookup returns the cached stats for email, if fresh, and the current generation.
func (c *statsCache) lookup(email string) (*stats.Stats, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.gens[email]
	entry, ok := c.entries[email]
	if !ok || entry.gen != gen || !c.now().Before(entry.expires) {
		return nil, gen, false
	}
	return entry.stats, gen, true
}

// store keeps computed unless email was invalidated after gen was read.
func (c *statsCache) store(email string, gen uint64, computed *stats.Stats) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[email] != gen {
		return false
	}
	c.entries[email] = cachedStats{stats: computed, expires: c.now().Add(c.ttl), gen: gen}
	return true
}

func (c *statsCache) invalidate(email string) {
	c.mu.Lock()
	c.gens[email]++
	delete(c.entries, email)
	c.mu.Unlock()
}
