package classroom

import (
	"testing"
	"time"

	"classroom-sync/feature/classroom/stats"

	"github.com/stretchr/testify/assert"
)

func TestStatsCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("Serves until expiry", func(t *testing.T) {
		c := newStatsCache(time.Minute, clock)
		_, gen, ok := c.lookup("t@school.edu")
		assert.False(t, ok)

		computed := &stats.Stats{TotalClassrooms: 1}
		assert.True(t, c.store("t@school.edu", gen, computed))

		got, _, ok := c.lookup("t@school.edu")
		assert.True(t, ok)
		assert.Same(t, computed, got)

		expired := newStatsCache(time.Minute, func() time.Time { return now })
		expired.store("t@school.edu", 0, computed)
		expired.now = func() time.Time { return now.Add(time.Minute) }
		_, _, ok = expired.lookup("t@school.edu")
		assert.False(t, ok)
	})

	t.Run("Drops results computed before an invalidation", func(t *testing.T) {
		c := newStatsCache(time.Minute, clock)
		_, gen, _ := c.lookup("t@school.edu")

		// An import finishes while the computation is still running.
		c.invalidate("t@school.edu")

		assert.False(t, c.store("t@school.edu", gen, &stats.Stats{TotalClassrooms: 1}))
		_, fresh, ok := c.lookup("t@school.edu")
		assert.False(t, ok)
		assert.NotEqual(t, gen, fresh)

		computed := &stats.Stats{TotalClassrooms: 2}
		assert.True(t, c.store("t@school.edu", fresh, computed))
		got, _, ok := c.lookup("t@school.edu")
		assert.True(t, ok)
		assert.Same(t, computed, got)
	})

	t.Run("Invalidation is per teacher", func(t *testing.T) {
		c := newStatsCache(time.Minute, clock)
		_, genA, _ := c.lookup("a@school.edu")
		_, genB, _ := c.lookup("b@school.edu")

		c.invalidate("a@school.edu")

		assert.False(t, c.store("a@school.edu", genA, &stats.Stats{}))
		assert.True(t, c.store("b@school.edu", genB, &stats.Stats{}))
	})

	t.Run("Disabled without TTL", func(t *testing.T) {
		c := newStatsCache(0, clock)
		assert.False(t, c.store("t@school.edu", 0, &stats.Stats{}))
		_, _, ok := c.lookup("t@school.edu")
		assert.False(t, ok)
	})
}
