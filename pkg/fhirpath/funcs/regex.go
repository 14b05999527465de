package funcs

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
)

// RegexCache compiles and caches regular expressions used by matches()/
// replaceMatches(), with LRU eviction (bounded by limit), a maximum pattern
// length (maxLen) and a fixed group-nesting limit to reject pathological
// patterns up front, and a per-call timeout so a slow match can't hang an
// evaluation indefinitely.
type RegexCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedPattern
	lru     []string
	limit   int
	maxLen  int
	timeout time.Duration
}

type cachedPattern struct {
	re    *regexp.Regexp
	touch time.Time
}

// DefaultRegexCache backs matches()/replaceMatches() in strings.go.
var DefaultRegexCache = NewRegexCache(500, 1000, 100*time.Millisecond)

// NewRegexCache builds a cache holding at most limit compiled patterns,
// rejecting any pattern longer than maxLen, and bounding individual match/
// replace calls to timeout.
func NewRegexCache(limit, maxLen int, timeout time.Duration) *RegexCache {
	return &RegexCache{
		entries: make(map[string]*cachedPattern),
		lru:     make([]string, 0, limit),
		limit:   limit,
		maxLen:  maxLen,
		timeout: timeout,
	}
}

// Compile returns the compiled form of pattern, from cache when available.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > c.maxLen {
		return nil, eval.NewEvalError(eval.ErrInvalidExpression,
			"regex pattern too long (max %d characters)", c.maxLen)
	}
	if err := validateRegexComplexity(pattern); err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, hit := c.entries[pattern]
	c.mu.RUnlock()
	if hit {
		c.mu.Lock()
		entry.touch = time.Now()
		c.mu.Unlock()
		return entry.re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrInvalidExpression, "invalid regex: %s", err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, hit := c.entries[pattern]; hit {
		return entry.re, nil
	}
	if len(c.entries) >= c.limit {
		c.evictOldest()
	}
	c.entries[pattern] = &cachedPattern{re: re, touch: time.Now()}
	c.lru = append(c.lru, pattern)
	return re, nil
}

// evictOldest drops the least-recently-touched entry. Caller must hold mu.
func (c *RegexCache) evictOldest() {
	if len(c.lru) == 0 {
		return
	}
	oldestIdx, oldest := 0, c.lru[0]
	for i, pattern := range c.lru {
		if entry, ok := c.entries[pattern]; ok && entry.touch.Before(c.entries[oldest].touch) {
			oldest, oldestIdx = pattern, i
		}
	}
	delete(c.entries, oldest)
	c.lru = append(c.lru[:oldestIdx], c.lru[oldestIdx+1:]...)
}

// runBounded runs work in a goroutine and returns its result, unless ctx is
// canceled or the cache's timeout (clamped to any shorter context deadline)
// elapses first. Shared by MatchWithTimeout and ReplaceWithTimeout so the
// cancellation plumbing lives in exactly one place.
func runBounded[T any](ctx context.Context, timeout time.Duration, work func() T) (T, error) {
	var zero T
	done := make(chan T, 1)
	go func() { done <- work() }()

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-time.After(timeout):
		return zero, eval.NewEvalError(eval.ErrTimeout, "regex operation timeout exceeded")
	}
}

// smallInputThreshold is the string length below which matches/replaces
// run inline rather than paying for a goroutine and a select.
const smallInputThreshold = 1000

// MatchWithTimeout compiles pattern (via the cache) and reports whether s
// matches, bounded by the cache's timeout.
func (c *RegexCache) MatchWithTimeout(ctx context.Context, pattern, s string) (bool, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return false, err
	}
	if len(s) < smallInputThreshold {
		return re.MatchString(s), nil
	}
	return runBounded(ctx, c.timeout, func() bool { return re.MatchString(s) })
}

// ReplaceWithTimeout compiles pattern (via the cache) and substitutes every
// match in s with replacement, bounded by the cache's timeout.
func (c *RegexCache) ReplaceWithTimeout(ctx context.Context, pattern, s, replacement string) (string, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return "", err
	}
	if len(s) < smallInputThreshold {
		return re.ReplaceAllString(s, replacement), nil
	}
	return runBounded(ctx, c.timeout, func() string { return re.ReplaceAllString(s, replacement) })
}

// Clear empties the cache.
func (c *RegexCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cachedPattern)
	c.lru = make([]string, 0, c.limit)
}

// Size reports the number of cached patterns.
func (c *RegexCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// validateRegexComplexity rejects patterns with hallmarks of catastrophic
// backtracking - consecutive quantifiers (`a**`) and deeply nested groups -
// before they ever reach regexp.Compile.
func validateRegexComplexity(pattern string) error {
	var groupDepth, maxGroupDepth int
	var prevWasQuantifier bool

	for _, ch := range pattern {
		switch ch {
		case '(':
			groupDepth++
			if groupDepth > maxGroupDepth {
				maxGroupDepth = groupDepth
			}
			prevWasQuantifier = false
		case ')':
			if groupDepth > 0 {
				groupDepth--
			}
			prevWasQuantifier = false
		case '*', '+', '?', '{':
			if prevWasQuantifier {
				return eval.NewEvalError(eval.ErrInvalidExpression,
					"potentially dangerous regex: consecutive quantifiers")
			}
			prevWasQuantifier = true
		default:
			prevWasQuantifier = false
		}
	}

	if maxGroupDepth > 5 {
		return eval.NewEvalError(eval.ErrInvalidExpression, "regex has too much nesting (max depth 5)")
	}
	return nil
}
