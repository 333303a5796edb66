package extras_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/extras"
	"github.com/mistql/mistql-go/pkg/types"
)

func TestWrapRejectsZeroArity(t *testing.T) {
	_, err := extras.Wrap("now", func() string { return "x" })
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrType))
}

func TestWrapRejectsNonFunction(t *testing.T) {
	_, err := extras.Wrap("notAFunc", 5)
	require.Error(t, err)
}

func TestWrapComputesVariadicArity(t *testing.T) {
	fn := func(prefix string, rest ...int) string { return prefix }
	c, err := extras.Wrap("join", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, c.MinArgs())
	assert.Equal(t, -1, c.MaxArgs())
}

func TestBuildExtraCallsHostFunction(t *testing.T) {
	v, err := extras.BuildExtra("double", func(n float64) float64 { return n * 2 })
	require.NoError(t, err)
	require.True(t, v.IsFunction())

	callable := v.AsFunction()
	args := []*types.ASTNode{types.NewValueNode(types.Number(21), 0)}
	result, err := callable.Call(args, noopStack{}, noopEvaluator{})
	require.NoError(t, err)
	assert.Equal(t, types.Number(42), result)
}

func TestBuildAllWrapsEveryEntry(t *testing.T) {
	out, err := extras.BuildAll(map[string]interface{}{
		"square": func(n float64) float64 { return n * n },
	})
	require.NoError(t, err)
	require.Contains(t, out, "square")
	assert.True(t, out["square"].IsFunction())
}

// noopStack/noopEvaluator let a host callable's argument expressions (plain
// NodeValue literals in these tests) evaluate without a real stack.
type noopStack struct{}

func (noopStack) Lookup(name string, absolute bool) (types.Value, error) {
	return types.Null, types.ReferenceErrorf("undefined: %s", name)
}
func (noopStack) PushFocus(focus types.Value) types.Stack { return noopStack{} }

type noopEvaluator struct{}

func (noopEvaluator) Eval(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	return node.Val, nil
}
