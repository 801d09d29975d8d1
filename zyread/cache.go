package zyread

import (
	"sync"
)

type cacheEntry struct {
	src   string
	nodes []Node
}

// ParseCache remembers successful parses by source text. Nodes are
// never mutated after a parse, so cached trees are shared between
// callers. Failed parses are not cached.
type ParseCache struct {
	mut     sync.Mutex
	g       *Grammar
	entries map[uint64]*cacheEntry
	hits    int
	misses  int
}

func NewParseCache(g *Grammar) *ParseCache {
	if g == nil {
		g = NewGrammar(nil)
	}
	return &ParseCache{
		g:       g,
		entries: make(map[uint64]*cacheEntry),
	}
}

// Parse returns the nodes for src, parsing only on a miss. The
// returned slice is a fresh copy; its nodes are shared.
func (c *ParseCache) Parse(src string) ([]Node, error) {
	key := Blake2bUint64([]byte(src))

	c.mut.Lock()
	e, ok := c.entries[key]
	if ok && e.src == src {
		c.hits++
		c.mut.Unlock()
		VPrintf("parse cache hit for key %x", key)
		return append([]Node(nil), e.nodes...), nil
	}
	c.misses++
	c.mut.Unlock()

	nodes, err := c.g.Parse(src)
	if err != nil {
		return nil, err
	}

	c.mut.Lock()
	c.entries[key] = &cacheEntry{src: src, nodes: nodes}
	c.mut.Unlock()
	return append([]Node(nil), nodes...), nil
}

// Hits counts parses served from the cache since the last Reset.
func (c *ParseCache) Hits() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.hits
}

// Misses counts parses that had to run the grammar.
func (c *ParseCache) Misses() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.misses
}

func (c *ParseCache) Len() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	return len(c.entries)
}

// Reset drops every entry. Call it after replacing rules in the grammar.
func (c *ParseCache) Reset() {
	c.mut.Lock()
	c.entries = make(map[uint64]*cacheEntry)
	c.hits = 0
	c.misses = 0
	c.mut.Unlock()
}
