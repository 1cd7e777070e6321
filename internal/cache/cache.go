// Package cache holds recently used tree nodes in memory, keyed by position.
package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/elastic/go-freelru"

	"github.com/alexhholmes/genedb/internal/base"
)

var ErrInvalidCapacity = errors.Mark(errors.New("cache capacity must be at least 1"), base.ErrInvalidArgument)

// Cache is a bounded LRU of nodes. It never performs I/O: a node pushed out by Put
// is handed back to the caller, which is responsible for persisting it.
//
// Cached nodes are shared, not copied. A caller mutating a node returned by Get is
// mutating the cached copy.
type Cache struct {
	lru      *freelru.LRU[base.Position, *base.Node]
	capacity int
	evicted  *base.Node // set by onEvict during Put

	// Stats
	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache holding at most capacity nodes.
func New(capacity int) (*Cache, error) {
	if capacity < 1 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", capacity)
	}

	lru, err := freelru.New[base.Position, *base.Node](uint32(capacity), hashPosition)
	if err != nil {
		return nil, errors.Wrapf(err, "create node cache of %d", capacity)
	}

	c := &Cache{
		lru:      lru,
		capacity: capacity,
	}
	lru.SetOnEvict(c.onEvict)
	return c, nil
}

func hashPosition(pos base.Position) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(pos))
	return uint32(xxhash.Sum64(buf[:]))
}

func (c *Cache) onEvict(_ base.Position, node *base.Node) {
	c.evicted = node
}

// Get returns the node at pos and marks it most recently used.
func (c *Cache) Get(pos base.Position) (*base.Node, bool) {
	node, ok := c.lru.Get(pos)
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return node, true
}

// Contains reports whether pos is resident without touching recency.
func (c *Cache) Contains(pos base.Position) bool {
	return c.lru.Contains(pos)
}

// Put inserts node as most recently used. If that pushes the cache past its
// capacity, the least recently used node is removed and returned. Putting a
// position that is already resident replaces it and evicts nothing.
func (c *Cache) Put(node *base.Node) (*base.Node, bool) {
	c.evicted = nil
	if !c.lru.Add(node.Position, node) {
		c.evicted = nil
		return nil, false
	}

	evicted := c.evicted
	c.evicted = nil
	if evicted == nil {
		return nil, false
	}
	c.evictions++
	return evicted, true
}

// Remove drops pos from the cache and returns the node that was there.
func (c *Cache) Remove(pos base.Position) (*base.Node, bool) {
	node, ok := c.lru.Peek(pos)
	if !ok {
		return nil, false
	}
	c.lru.Remove(pos)
	c.evicted = nil
	return node, true
}

// Drain empties the cache and returns its nodes, least recently used first.
func (c *Cache) Drain() []*base.Node {
	keys := c.lru.Keys()
	nodes := make([]*base.Node, 0, len(keys))
	for _, pos := range keys {
		if node, ok := c.lru.Peek(pos); ok {
			nodes = append(nodes, node)
		}
	}
	c.lru.Purge()
	c.evicted = nil
	return nodes
}

// Len returns the number of resident nodes.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of resident nodes.
func (c *Cache) Capacity() int {
	return c.capacity
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
