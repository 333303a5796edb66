package mistql

import (
	"container/list"
	"sync"

	"github.com/mistql/mistql-go/pkg/types"
)

// compileCacheCapacity bounds the number of distinct query strings Parse
// remembers, matching §5's "memoizes the most recent few" note — there is
// exactly one call site (defaultCache in mistql.go), so this is sized and
// shaped for that single use rather than built as general-purpose
// infrastructure.
const compileCacheCapacity = 256

// compileCache is a small LRU of compiled Expressions keyed by source
// query string. Safe for concurrent use.
type compileCache struct {
	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
}

type compileCacheEntry struct {
	query string
	expr  *types.Expression
}

func newCompileCache() *compileCache {
	return &compileCache{
		ll:    list.New(),
		items: make(map[string]*list.Element, compileCacheCapacity),
	}
}

// getOrCompile returns the cached Expression for query, promoting it to
// most-recently-used, or calls compile once to produce and cache it.
// compile's error is never cached, so a transient parse failure doesn't
// poison later retries with the same query string.
func (c *compileCache) getOrCompile(query string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	c.mu.Lock()
	if el, ok := c.items[query]; ok {
		c.ll.MoveToFront(el)
		expr := el.Value.(*compileCacheEntry).expr
		c.mu.Unlock()
		return expr, nil
	}
	c.mu.Unlock()

	expr, err := compile()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[query]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*compileCacheEntry).expr, nil
	}
	if c.ll.Len() >= compileCacheCapacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*compileCacheEntry).query)
		}
	}
	el := c.ll.PushFront(&compileCacheEntry{query: query, expr: expr})
	c.items[query] = el
	return expr, nil
}
