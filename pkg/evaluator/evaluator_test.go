package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/parser"
	"github.com/mistql/mistql-go/pkg/types"
)

func mustParse(t *testing.T, query string) *types.ASTNode {
	t.Helper()
	expr, err := parser.Parse(query)
	require.NoError(t, err)
	return expr.AST()
}

func TestEvalRefLooksUpFocus(t *testing.T) {
	ev := New()
	stack := BuildInitialStack(types.Number(42), nil, nil)
	result, err := ev.Eval(mustParse(t, "@"), stack)
	require.NoError(t, err)
	assert.Equal(t, types.Number(42), result)
}

func TestEvalArrayAndObject(t *testing.T) {
	ev := New()
	stack := BuildInitialStack(types.Null, nil, nil)

	arr, err := ev.Eval(mustParse(t, "[1, 2, 3]"), stack)
	require.NoError(t, err)
	require.Len(t, arr.AsArray(), 3)

	obj, err := ev.Eval(mustParse(t, "{a: 1, b: 2}"), stack)
	require.NoError(t, err)
	v := obj.Access("b")
	assert.Equal(t, types.Number(2), v)
}

func TestEvalPipeDesugaring(t *testing.T) {
	// Each pipe stage's implicit last argument is the prior value, and that
	// same value becomes the new focus for the stage's own head expression.
	ev := New()
	builtins := map[string]types.Callable{
		"count": countBuiltin{},
	}
	stack := BuildInitialStack(types.NewArray([]types.Value{types.Number(1), types.Number(2), types.Number(3)}), builtins, nil)
	result, err := ev.Eval(mustParse(t, "@ | count @"), stack)
	require.NoError(t, err)
	assert.Equal(t, types.Number(3), result)
}

// countBuiltin is a minimal stand-in for the real `count` built-in (same
// 1..2 arity, reading only its first argument), kept local to this test so
// the evaluator is exercised without depending on pkg/builtins.
type countBuiltin struct{}

func (countBuiltin) Name() string  { return "count" }
func (countBuiltin) MinArgs() int  { return 1 }
func (countBuiltin) MaxArgs() int  { return 2 }
func (countBuiltin) Call(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	v, err := ev.Eval(args[0], stack)
	if err != nil {
		return types.Null, err
	}
	return types.Number(float64(len(v.AsArray()))), nil
}

func TestFrameLookupAbsoluteRestrictsToRoot(t *testing.T) {
	builtins := map[string]types.Callable{"count": countBuiltin{}}
	stack := BuildInitialStack(types.Null, builtins, nil)

	v, err := stack.Lookup("count", true)
	require.NoError(t, err)
	assert.True(t, v.IsFunction())

	// "@" is bound only in the focus frame, so an absolute lookup misses it.
	_, err = stack.Lookup("@", true)
	assert.True(t, types.IsKind(err, types.ErrReference))

	// A name that only exists in the root frame still resolves relatively,
	// since relative lookup scans every frame including the root.
	v, err = stack.Lookup("count", false)
	require.NoError(t, err)
	assert.True(t, v.IsFunction())

	_, err = stack.Lookup("nonexistent", false)
	assert.True(t, types.IsKind(err, types.ErrReference))
}
