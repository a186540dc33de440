package expr

import (
	"sync"
)

// Cache memoizes parsed expressions by source text. It is safe for
// concurrent use. Failed parses are cached too, so a bad condition is only
// parsed once.
type Cache struct {
	entries sync.Map // map[string]cacheEntry.
}

type cacheEntry struct {
	expr *Expression
	err  error
}

// NewCache creates a new, empty [Cache].
func NewCache() *Cache {
	return &Cache{}
}

// Parse returns the cached result of [Parse] for s, parsing it on first use.
func (c *Cache) Parse(s string) (*Expression, error) {
	if v, ok := c.entries.Load(s); ok {
		entry, _ := v.(cacheEntry)

		return entry.expr, entry.err
	}

	e, err := Parse(s)

	v, _ := c.entries.LoadOrStore(s, cacheEntry{expr: e, err: err})
	entry, _ := v.(cacheEntry)

	return entry.expr, entry.err
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}
