package world

import (
	"iter"
	"log/slog"
	"time"

	"github.com/brentp/intintmap"
)

// cacheEntry is one resident chunk manifest.
type cacheEntry struct {
	pos ChunkPos
	m   *ChunkManifest
}

// chunkCache holds the chunk manifests currently resident in memory, bounded
// by a ceiling. When an insert would push the cache past the ceiling, the
// chunk farthest from the observer is torn down and dropped first: distance
// decides residency, not recency, because the observer can only walk towards
// nearby chunks. The cache is accessed only from the goroutine driving the
// world, so it holds no locks.
type chunkCache struct {
	log     *slog.Logger
	ceiling int

	// entries is the dense list of resident chunks. index maps a packed
	// chunk position to the chunk's slot in entries, so removal can
	// swap-delete without scanning.
	entries []cacheEntry
	index   *intintmap.Map

	// teardown is called for a chunk right before it is removed and returns
	// only once all live scene content of the chunk has been detached.
	teardown func(pos ChunkPos, m *ChunkManifest)

	lastOverflowWarn time.Time
	overflowCount    int
}

// newChunkCache creates a cache holding at most ceiling manifests.
func newChunkCache(ceiling int, log *slog.Logger, teardown func(pos ChunkPos, m *ChunkManifest)) *chunkCache {
	if ceiling < 1 {
		ceiling = 1
	}
	return &chunkCache{
		log:      log,
		ceiling:  ceiling,
		entries:  make([]cacheEntry, 0, ceiling),
		index:    intintmap.New(2*ceiling, 0.6),
		teardown: teardown,
	}
}

// Get returns the manifest of the chunk at the position passed, if resident.
func (c *chunkCache) Get(pos ChunkPos) (*ChunkManifest, bool) {
	slot, ok := c.index.Get(pos.Pack())
	if !ok {
		return nil, false
	}
	return c.entries[slot].m, true
}

// Len returns the number of resident manifests.
func (c *chunkCache) Len() int {
	return len(c.entries)
}

// Ceiling returns the current cache ceiling.
func (c *chunkCache) Ceiling() int {
	return c.ceiling
}

// Put inserts the manifest of the chunk at the position passed, evicting the
// chunks farthest from centre first if the cache is full. The ceiling is
// enforced before the insert completes, so the cache never holds more than
// ceiling manifests afterwards.
func (c *chunkCache) Put(pos ChunkPos, m *ChunkManifest, centre ChunkPos) {
	if slot, ok := c.index.Get(pos.Pack()); ok {
		c.entries[slot].m = m
		return
	}
	for len(c.entries) >= c.ceiling {
		if !c.evictFarthest(centre) {
			c.warnOverflow()
			break
		}
	}
	c.index.Put(pos.Pack(), int64(len(c.entries)))
	c.entries = append(c.entries, cacheEntry{pos: pos, m: m})
}

// SetCeiling changes the cache ceiling, evicting the chunks farthest from
// centre until the cache fits under the new ceiling.
func (c *chunkCache) SetCeiling(ceiling int, centre ChunkPos) {
	if ceiling < 1 {
		ceiling = 1
	}
	c.ceiling = ceiling
	for len(c.entries) > c.ceiling {
		if !c.evictFarthest(centre) {
			return
		}
	}
}

// All returns an iterator over all resident chunks. The cache must not be
// modified while iterating.
func (c *chunkCache) All() iter.Seq2[ChunkPos, *ChunkManifest] {
	return func(yield func(ChunkPos, *ChunkManifest) bool) {
		for _, e := range c.entries {
			if !yield(e.pos, e.m) {
				return
			}
		}
	}
}

// evictFarthest tears down and removes the resident chunk farthest from
// centre. It returns false if the cache is empty. Distance ties are broken by
// chunk position so that eviction order does not depend on insert history.
func (c *chunkCache) evictFarthest(centre ChunkPos) bool {
	if len(c.entries) == 0 {
		return false
	}
	victim, worst := 0, int64(-1)
	for i, e := range c.entries {
		d := chunkDistSq(e.pos, centre)
		if d > worst || (d == worst && comparePos(e.pos, c.entries[victim].pos) < 0) {
			victim, worst = i, d
		}
	}
	c.remove(victim)
	return true
}

// remove tears down the entry in the slot passed and swap-deletes it.
func (c *chunkCache) remove(slot int) {
	e := c.entries[slot]
	c.teardown(e.pos, e.m)

	last := len(c.entries) - 1
	if slot != last {
		c.entries[slot] = c.entries[last]
		c.index.Put(c.entries[slot].pos.Pack(), int64(slot))
	}
	c.entries = c.entries[:last]
	c.index.Del(e.pos.Pack())
}

// warnOverflow logs that the cache exceeded its ceiling because no chunk
// could be evicted. The warning is throttled so a persistently overflowing
// cache does not flood the log.
func (c *chunkCache) warnOverflow() {
	c.overflowCount++
	if now := time.Now(); now.Sub(c.lastOverflowWarn) > 5*time.Second {
		c.lastOverflowWarn = now
		c.log.Warn("chunk cache exceeded ceiling without evictable chunk", "ceiling", c.ceiling, "occurrences", c.overflowCount)
		c.overflowCount = 0
	}
}
