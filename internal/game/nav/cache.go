package nav

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

type cacheKey struct {
	start, goal geom.Coordinate
	capability  Capability
	diagonal    bool
}

// CachedFinder memoises successful routes from an inner PathFinder for a
// bounded time. Failures are never cached so a world change that opens a
// route is noticed on the next request.
type CachedFinder struct {
	inner PathFinder
	lru   *expirable.LRU[cacheKey, []geom.Coordinate]
}

// NewCachedFinder wraps inner with an LRU of at most size entries, each living ttl.
//
// Precondition: inner must not be nil; size > 0; ttl > 0.
func NewCachedFinder(inner PathFinder, size int, ttl time.Duration) *CachedFinder {
	if inner == nil {
		panic("nav.NewCachedFinder: inner must not be nil")
	}
	return &CachedFinder{
		inner: inner,
		lru:   expirable.NewLRU[cacheKey, []geom.Coordinate](size, nil, ttl),
	}
}

// FindPath serves from cache when possible, otherwise delegates.
//
// Postcondition: the returned slice is owned by the caller.
func (c *CachedFinder) FindPath(start, goal geom.Coordinate, capability Capability, opts Options) ([]geom.Coordinate, error) {
	key := cacheKey{start: start, goal: goal, capability: capability, diagonal: opts.AllowDiagonal}
	if path, ok := c.lru.Get(key); ok {
		return append([]geom.Coordinate(nil), path...), nil
	}
	path, err := c.inner.FindPath(start, goal, capability, opts)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, append([]geom.Coordinate(nil), path...))
	return path, nil
}

// Len returns the number of cached routes.
func (c *CachedFinder) Len() int {
	return c.lru.Len()
}
