package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/builtins"
	"github.com/mistql/mistql-go/pkg/evaluator"
	"github.com/mistql/mistql-go/pkg/parser"
	"github.com/mistql/mistql-go/pkg/types"
)

func eval(t *testing.T, query string, input types.Value) types.Value {
	t.Helper()
	expr, err := parser.Parse(query)
	require.NoError(t, err)
	stack := evaluator.BuildInitialStack(input, builtins.Registry(), nil)
	result, err := evaluator.New().Eval(expr.AST(), stack)
	require.NoError(t, err)
	return result
}

func TestArithmeticOperators(t *testing.T) {
	assert.Equal(t, types.Number(7), eval(t, "3 + 4", types.Null))
	assert.Equal(t, types.String("ab"), eval(t, `"a" + "b"`, types.Null))
	assert.Equal(t, types.Number(1), eval(t, "7 % 3", types.Null))
}

func TestComparisonAndLogic(t *testing.T) {
	assert.Equal(t, types.Bool(true), eval(t, "1 < 2", types.Null))
	assert.Equal(t, types.Number(2), eval(t, "false || 2", types.Null))
	assert.Equal(t, types.Number(0), eval(t, "0 && 2", types.Null))
}

func TestIndexAndDot(t *testing.T) {
	obj := types.NewObject()
	obj.Set("name", types.String("ren"))
	input := types.NewObjectValue(obj)
	assert.Equal(t, types.String("ren"), eval(t, "@.name", input))

	arr := types.NewArray([]types.Value{types.Number(10), types.Number(20), types.Number(30)})
	assert.Equal(t, types.Number(20), eval(t, "@[1]", arr))
}

func TestFilterMapPipe(t *testing.T) {
	people := types.NewArray([]types.Value{
		objOf(t, map[string]types.Value{"age": types.Number(10)}),
		objOf(t, map[string]types.Value{"age": types.Number(25)}),
	})
	result := eval(t, "@ | filter @.age > 18 | map @.age", people)
	require.Len(t, result.AsArray(), 1)
	assert.Equal(t, types.Number(25), result.AsArray()[0])
}

func TestPipeStagesPushFocusAgainstTheSameOuterStack(t *testing.T) {
	// Stage 2's push_focus must not nest on top of stage 1's pushed frame:
	// stage 1's value ("yes", a String) carries no "a" binding, and the
	// outer stack's own focus (input {}) has no "a" either, so looking up
	// "a" in stage 2 must fail rather than resolve to stage 1's stale
	// Object-derived binding. Each `if` names only cond and then; the piped
	// value fills the else slot, keeping `if` at its three arguments.
	expr, err := parser.Parse(`{a: 1} | (if (a==1) "yes") | (if (a==1) "match")`)
	require.NoError(t, err)

	obj := types.NewObject()
	input := types.NewObjectValue(obj) // {} — no "a" field
	stack := evaluator.BuildInitialStack(input, builtins.Registry(), nil)

	_, err = evaluator.New().Eval(expr.AST(), stack)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrReference))
}

func TestGroupByPreservesFirstOccurrenceOrder(t *testing.T) {
	items := types.NewArray([]types.Value{
		objOf(t, map[string]types.Value{"team": types.String("b")}),
		objOf(t, map[string]types.Value{"team": types.String("a")}),
		objOf(t, map[string]types.Value{"team": types.String("b")}),
	})
	result := eval(t, "groupby @.team @", items)
	keys := []string{}
	for pair := result.AsObject().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"b", "a"}, keys)
}

func TestSummarizeSingleElementRaises(t *testing.T) {
	expr, err := parser.Parse("summarize [5]")
	require.NoError(t, err)
	stack := evaluator.BuildInitialStack(types.Null, builtins.Registry(), nil)
	_, err = evaluator.New().Eval(expr.AST(), stack)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrRuntime))
}

func TestSummarizeSampleVariance(t *testing.T) {
	result := eval(t, "summarize [1, 2, 3, 4, 5]", types.Null)
	variance, ok := result.AsObject().Get("variance")
	require.True(t, ok)
	assert.InDelta(t, 2.5, variance.AsNumber(), 1e-9)
	stddev, ok := result.AsObject().Get("stddev")
	require.True(t, ok)
	assert.InDelta(t, 1.5811388300841898, stddev.AsNumber(), 1e-9)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3", builtins.FormatNumber(3))
	assert.Equal(t, "0.1", builtins.FormatNumber(0.1))
	assert.Equal(t, "1e-8", builtins.FormatNumber(1e-8))
}

func TestStringOfComposite(t *testing.T) {
	arr := types.NewArray([]types.Value{types.Number(1), types.Number(2)})
	s, err := builtins.ToStringValue(arr)
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", s)
}

func TestStringOfObjectPreservesInsertionOrder(t *testing.T) {
	obj := types.NewObject()
	obj.Set("z", types.Number(1))
	obj.Set("a", types.Number(2))
	s, err := builtins.ToStringValue(types.NewObjectValue(obj))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, s)
}

func objOf(t *testing.T, fields map[string]types.Value) types.Value {
	t.Helper()
	obj := types.NewObject()
	for k, v := range fields {
		obj.Set(k, v)
	}
	return types.NewObjectValue(obj)
}
