package fhirpath

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// ExpressionCache memoizes compiled Expressions behind an LRU of bounded
// size, so a server evaluating the same handful of FHIRPath expressions
// against many resources compiles each one exactly once.
type ExpressionCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	limit   int
	hits    atomic.Int64
	misses  atomic.Int64
}

type cacheEntry struct {
	key  string
	expr *Expression
}

// CacheStats reports an ExpressionCache's current occupancy and hit ratio.
type CacheStats struct {
	Size   int
	Limit  int
	Hits   int64
	Misses int64
}

// NewExpressionCache builds a cache holding at most limit compiled
// expressions; limit <= 0 means unbounded.
func NewExpressionCache(limit int) *ExpressionCache {
	return &ExpressionCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		limit:   limit,
	}
}

// Get returns expr's compiled form, compiling and caching it on a miss.
func (c *ExpressionCache) Get(expr string) (*Expression, error) {
	if compiled, hit := c.touch(expr); hit {
		c.hits.Add(1)
		return compiled, nil
	}

	compiled, err := Compile(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, hit := c.entries[expr]; hit {
		// another goroutine compiled it first between our touch() and here
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).expr, nil
	}
	c.misses.Add(1)
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.evictOldest()
	}
	el := c.order.PushFront(&cacheEntry{key: expr, expr: compiled})
	c.entries[expr] = el
	return compiled, nil
}

// touch looks up expr and, on a hit, promotes it to most-recently-used.
func (c *ExpressionCache) touch(expr string) (*Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[expr]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).expr, true
}

// evictOldest drops the least-recently-used entry. Caller must hold mu.
func (c *ExpressionCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}

// MustGet is like Get but panics on a compile error; for callers (tests,
// init-time setup) that treat an invalid expression as a programming error.
func (c *ExpressionCache) MustGet(expr string) *Expression {
	compiled, err := c.Get(expr)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Clear empties the cache and resets its hit/miss counters.
func (c *ExpressionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Size reports the number of cached expressions.
func (c *ExpressionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports the cache's current occupancy and lifetime hit/miss counts.
func (c *ExpressionCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Size:   size,
		Limit:  c.limit,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// HitRate reports the cache's lifetime hit rate as a percentage (0-100).
func (c *ExpressionCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// DefaultCache is a process-wide expression cache for callers that don't
// need a dedicated one; EvaluateCached/GetCached route through it.
var DefaultCache = NewExpressionCache(1000)

// GetCached compiles (or reuses a cached compile of) expr via DefaultCache.
func GetCached(expr string) (*Expression, error) {
	return DefaultCache.Get(expr)
}

// MustGetCached is like GetCached but panics on a compile error.
func MustGetCached(expr string) *Expression {
	return DefaultCache.MustGet(expr)
}

// EvaluateCached compiles expr (via DefaultCache) and evaluates it against
// resource in one call - the recommended entry point for repeated
// evaluation of a small set of expressions in production.
func EvaluateCached(resource []byte, expr string) (Collection, error) {
	compiled, err := DefaultCache.Get(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(resource)
}
