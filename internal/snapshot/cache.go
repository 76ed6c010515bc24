// Package snapshot caches projections at turn boundaries so replay can resume
// instead of restarting from the beginning of the log.
package snapshot

import (
	"slices"
	"sync"

	"scenecraft/internal/projection"
)

// DefaultMaxEntries bounds a cache created with a non-positive size.
const DefaultMaxEntries = 64

type entry struct {
	fingerprint uint64
	projection  projection.Projection
}

// Cache is a bounded, concurrency-safe projection.SnapshotStore. When full, the
// snapshot with the lowest turn is evicted.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[int]entry
	hits       uint64
	misses     uint64
}

var _ projection.SnapshotStore = (*Cache)(nil)

func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		maxEntries: maxEntries,
		entries:    make(map[int]entry),
	}
}

// Lookup returns a copy of the snapshot at turn if it was built from the same
// active prefix.
func (c *Cache) Lookup(turn int, fingerprint uint64) (projection.Projection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[turn]
	if !ok || e.fingerprint != fingerprint {
		c.misses++
		return projection.Projection{}, false
	}
	c.hits++
	return e.projection.Clone(), true
}

// Save stores a copy of p as the snapshot at turn, replacing any older one.
func (c *Cache) Save(turn int, fingerprint uint64, p projection.Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[turn]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[turn] = entry{fingerprint: fingerprint, projection: p.Clone()}
}

func (c *Cache) evictLocked() {
	turns := make([]int, 0, len(c.entries))
	for turn := range c.entries {
		turns = append(turns, turn)
	}
	delete(c.entries, slices.Min(turns))
}

// Invalidate drops every snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Turns returns the turns that currently have a snapshot, ascending.
func (c *Cache) Turns() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]int, 0, len(c.entries))
	for turn := range c.entries {
		turns = append(turns, turn)
	}
	slices.Sort(turns)
	return turns
}

// Stats reports lookup hits and misses since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
