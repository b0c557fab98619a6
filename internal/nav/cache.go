package nav

import (
	"fmt"
	"math"
	"time"
)

// cacheEntry holds one memoized path with its admission metadata.
type cacheEntry struct {
	path []Waypoint
	ts   time.Time
	seq  uint64 // admission order, breaks timestamp ties on eviction
}

// pathCache is the bounded, time-expiring path memo. Keys are coarse
// start/end buckets so many agents requesting similar routes share one
// search. Purely an optimization: correctness never depends on hits.
type pathCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]cacheEntry
	seq        uint64
}

func newPathCache(ttl time.Duration, maxEntries int, now func() time.Time) *pathCache {
	return &pathCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
		entries:    make(map[string]cacheEntry, maxEntries),
	}
}

// get returns the cached path for key, treating expired entries as misses
// and purging them on touch.
func (c *pathCache) get(key string) ([]Waypoint, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.ts) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.path, true
}

// put inserts a path, evicting the single globally-oldest entry first when
// the cache is full. Oldest means smallest (timestamp, admission seq), so
// two instances admitting the same sequence evict the same entry even when
// timestamps collide within one tick.
func (c *pathCache) put(key string, path []Waypoint) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		var oldestKey string
		found := false
		for k, e := range c.entries {
			if !found {
				oldestKey, found = k, true
				continue
			}
			o := c.entries[oldestKey]
			if e.ts.Before(o.ts) || (e.ts.Equal(o.ts) && e.seq < o.seq) {
				oldestKey = k
			}
		}
		if found {
			delete(c.entries, oldestKey)
		}
	}

	c.seq++
	c.entries[key] = cacheEntry{path: path, ts: c.now(), seq: c.seq}
}

// len returns the number of entries currently held, expired ones included.
func (c *pathCache) len() int { return len(c.entries) }

// cacheKey quantizes both endpoints into quantize-sized buckets. Queries
// whose endpoints share buckets reuse one result, trading a little path
// fidelity for a large cut in repeated A* work.
func cacheKey(startX, startZ, endX, endZ, quantize float64) string {
	return fmt.Sprintf("%d:%d:%d:%d",
		int64(math.Floor(startX/quantize)),
		int64(math.Floor(startZ/quantize)),
		int64(math.Floor(endX/quantize)),
		int64(math.Floor(endZ/quantize)))
}
