package builtins

import (
	"math"
	"sort"

	"github.com/mistql/mistql-go/pkg/types"
)

func aggregateBuiltins() []*builtin {
	return []*builtin{
		newBuiltin("sum", 1, 1, opSum),
		newBuiltin("summarize", 1, 1, opSummarize),
	}
}

func numbersOf(v types.Value, who string) ([]float64, error) {
	xs, err := requireArray(v, who)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(xs))
	for i, item := range xs {
		if !item.IsNumber() {
			return nil, types.TypeErrorf("%s requires an array of numbers, got %s at index %d", who, item.Kind(), i)
		}
		out[i] = item.AsNumber()
	}
	return out, nil
}

func opSum(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	v, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	nums, err := numbersOf(v, "sum")
	if err != nil {
		return types.Null, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return types.Number(total), nil
}

// opSummarize implements §4.5: an Object {max, min, mean, median, variance,
// stddev} over an Array of Numbers; variance is sample variance (divisor
// n-1), matching the worked example in §8.
func opSummarize(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	v, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	nums, err := numbersOf(v, "summarize")
	if err != nil {
		return types.Null, err
	}
	if len(nums) == 0 {
		return types.Null, types.RuntimeErrorf("summarize requires a non-empty array")
	}
	if len(nums) < 2 {
		return types.Null, types.RuntimeErrorf("summarize requires at least 2 numbers to compute variance, got %d", len(nums))
	}

	sorted := append([]float64{}, nums...)
	sort.Float64s(sorted)

	min, max := sorted[0], sorted[len(sorted)-1]

	var sum float64
	for _, n := range nums {
		sum += n
	}
	mean := sum / float64(len(nums))

	median := medianOf(sorted)

	var sq float64
	for _, n := range nums {
		d := n - mean
		sq += d * d
	}
	variance := sq / float64(len(nums)-1)
	stddev := math.Sqrt(variance)

	out := types.NewObject()
	out.Set("max", types.Number(max))
	out.Set("min", types.Number(min))
	out.Set("mean", types.Number(mean))
	out.Set("median", types.Number(median))
	out.Set("variance", types.Number(variance))
	out.Set("stddev", types.Number(stddev))
	return types.NewObjectValue(out), nil
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
