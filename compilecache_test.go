package mistql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/parser"
	"github.com/mistql/mistql-go/pkg/types"
)

func TestCompileCacheCompilesOnceAndReuses(t *testing.T) {
	c := newCompileCache()
	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return parser.Parse("@")
	}

	_, err := c.getOrCompile("@", compile)
	require.NoError(t, err)
	_, err = c.getOrCompile("@", compile)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCompileCacheDoesNotCacheCompileErrors(t *testing.T) {
	c := newCompileCache()
	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return parser.Parse("@ |")
	}

	_, err := c.getOrCompile("@ |", compile)
	require.Error(t, err)
	_, err = c.getOrCompile("@ |", compile)
	require.Error(t, err)

	assert.Equal(t, 2, calls)
}

func TestCompileCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newCompileCache()

	for i := 0; i < compileCacheCapacity; i++ {
		query := queryForIndex(i)
		_, err := c.getOrCompile(query, compileQuery(query))
		require.NoError(t, err)
	}

	// Touch the first entry so it's no longer the least recently used.
	_, err := c.getOrCompile(queryForIndex(0), compileQuery(queryForIndex(0)))
	require.NoError(t, err)

	// One more insert evicts the oldest untouched entry (index 1), not the
	// one just touched (index 0).
	overflowQuery := `"overflow"`
	_, err = c.getOrCompile(overflowQuery, compileQuery(overflowQuery))
	require.NoError(t, err)

	calls := 0
	_, err = c.getOrCompile(queryForIndex(1), func() (*types.Expression, error) {
		calls++
		return parser.Parse(queryForIndex(1))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "evicted entry should have recompiled")

	calls = 0
	_, err = c.getOrCompile(queryForIndex(0), func() (*types.Expression, error) {
		calls++
		return parser.Parse(queryForIndex(0))
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "recently touched entry should still be cached")
}

func queryForIndex(i int) string {
	digits := "0123456789"
	n := i
	s := ""
	for {
		s = string(digits[n%10]) + s
		n /= 10
		if n == 0 {
			break
		}
	}
	return s
}

func compileQuery(query string) func() (*types.Expression, error) {
	return func() (*types.Expression, error) { return parser.Parse(query) }
}
