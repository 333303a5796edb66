package builtins

import (
	"sort"

	"github.com/samber/lo"

	"github.com/mistql/mistql-go/pkg/types"
)

func collectionBuiltins() []*builtin {
	return []*builtin{
		newBuiltin("map", 2, 2, opMap),
		newBuiltin("filter", 2, 2, opFilter),
		newBuiltin("find", 2, 2, opFind),
		newBuiltin("reduce", 3, 3, opReduce),

		newBuiltin("mapvalues", 2, 2, opMapValues),
		newBuiltin("mapkeys", 2, 2, opMapKeys),
		newBuiltin("filtervalues", 2, 2, opFilterValues),
		newBuiltin("filterkeys", 2, 2, opFilterKeys),

		// count reads only its first argument; a second one is accepted so
		// that a pipe stage `xs | count @` can carry the piped value.
		newBuiltin("count", 1, 2, opCount),
		newBuiltin("keys", 1, 1, opKeys),
		newBuiltin("values", 1, 1, opValues),
		newBuiltin("entries", 1, 1, opEntries),
		newBuiltin("fromentries", 1, 1, opFromEntries),

		newBuiltin("groupby", 2, 2, opGroupBy),
		newBuiltin("withindices", 1, 1, opWithIndices),

		newBuiltin("reverse", 1, 1, opReverse),
		newBuiltin("sort", 1, 1, opSort),
		newBuiltin("sortby", 2, 2, opSortBy),
		newBuiltin("flatten", 1, 1, opFlatten),
		newBuiltin("apply", 2, 2, opApply),
		newBuiltin("sequence", 2, -1, opSequence),
	}
}

func requireArray(v types.Value, who string) ([]types.Value, error) {
	if !v.IsArray() {
		return nil, types.TypeErrorf("%s requires an array, got %s", who, v.Kind())
	}
	return v.AsArray(), nil
}

func requireObject(v types.Value, who string) (*types.Object, error) {
	if !v.IsObject() {
		return nil, types.TypeErrorf("%s requires an object, got %s", who, v.Kind())
	}
	return v.AsObject(), nil
}

// evalOverItem evaluates expr with a new frame focused on item (§4.5's
// "evaluate f with push_focus(item) per element" pattern shared by
// map/filter/find/mapvalues/mapkeys/filtervalues/filterkeys/groupby/apply).
func evalOverItem(ev types.Evaluator, stack types.Stack, expr *types.ASTNode, item types.Value) (types.Value, error) {
	return ev.Eval(expr, stack.PushFocus(item))
}

func opMap(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "map")
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, len(xs))
	for i, item := range xs {
		v, err := evalOverItem(ev, stack, args[0], item)
		if err != nil {
			return types.Null, err
		}
		out[i] = v
	}
	return types.NewArray(out), nil
}

func opFilter(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "filter")
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, 0, len(xs))
	for _, item := range xs {
		v, err := evalOverItem(ev, stack, args[0], item)
		if err != nil {
			return types.Null, err
		}
		if v.Truthy() {
			out = append(out, item)
		}
	}
	return types.NewArray(out), nil
}

func opFind(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "find")
	if err != nil {
		return types.Null, err
	}
	for _, item := range xs {
		v, err := evalOverItem(ev, stack, args[0], item)
		if err != nil {
			return types.Null, err
		}
		if v.Truthy() {
			return item, nil
		}
	}
	return types.Null, nil
}

// opReduce implements §4.5: accumulator starts at init; per item, f is
// evaluated with focus pushed to a two-element [acc, item] Array.
func opReduce(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	acc, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xsVal, err := evalArg(args, 2, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "reduce")
	if err != nil {
		return types.Null, err
	}
	for _, item := range xs {
		pair := types.NewArray([]types.Value{acc, item})
		acc, err = evalOverItem(ev, stack, args[0], pair)
		if err != nil {
			return types.Null, err
		}
	}
	return acc, nil
}

func opMapValues(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	obj, err := requireObject(xVal, "mapvalues")
	if err != nil {
		return types.Null, err
	}
	out := types.NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		v, err := evalOverItem(ev, stack, args[0], pair.Value)
		if err != nil {
			return types.Null, err
		}
		out.Set(pair.Key, v)
	}
	return types.NewObjectValue(out), nil
}

// opMapKeys implements §4.5: the mutator is focused on each key (as a
// String) and must itself produce a String.
func opMapKeys(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	obj, err := requireObject(xVal, "mapkeys")
	if err != nil {
		return types.Null, err
	}
	out := types.NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		v, err := evalOverItem(ev, stack, args[0], types.String(pair.Key))
		if err != nil {
			return types.Null, err
		}
		if !v.IsString() {
			return types.Null, types.TypeErrorf("mapkeys mutator must produce a string, got %s", v.Kind())
		}
		out.Set(v.AsString(), pair.Value)
	}
	return types.NewObjectValue(out), nil
}

func opFilterValues(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	obj, err := requireObject(xVal, "filtervalues")
	if err != nil {
		return types.Null, err
	}
	out := types.NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		v, err := evalOverItem(ev, stack, args[0], pair.Value)
		if err != nil {
			return types.Null, err
		}
		if v.Truthy() {
			out.Set(pair.Key, pair.Value)
		}
	}
	return types.NewObjectValue(out), nil
}

func opFilterKeys(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	obj, err := requireObject(xVal, "filterkeys")
	if err != nil {
		return types.Null, err
	}
	out := types.NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		v, err := evalOverItem(ev, stack, args[0], types.String(pair.Key))
		if err != nil {
			return types.Null, err
		}
		if v.Truthy() {
			out.Set(pair.Key, pair.Value)
		}
	}
	return types.NewObjectValue(out), nil
}

func opCount(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(x, "count")
	if err != nil {
		return types.Null, err
	}
	return types.Number(float64(len(xs))), nil
}

func opKeys(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !x.IsObject() {
		return types.NewArray(nil), nil
	}
	obj := x.AsObject()
	out := make([]types.Value, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, types.String(pair.Key))
	}
	return types.NewArray(out), nil
}

func opValues(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !x.IsObject() {
		return types.NewArray(nil), nil
	}
	obj := x.AsObject()
	out := make([]types.Value, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return types.NewArray(out), nil
}

func opEntries(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	obj, err := requireObject(x, "entries")
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, types.NewArray([]types.Value{types.String(pair.Key), pair.Value}))
	}
	return types.NewArray(out), nil
}

// opFromEntries is entries' inverse: entry[0]/entry[1] with missing slots
// read as Null (§4.5). The key is coerced through to_string so a Number or
// Boolean key still produces a usable Object key.
func opFromEntries(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	entries, err := requireArray(x, "fromentries")
	if err != nil {
		return types.Null, err
	}
	out := types.NewObject()
	for _, entry := range entries {
		items, err := requireArray(entry, "fromentries")
		if err != nil {
			return types.Null, err
		}
		key := types.Null
		if len(items) > 0 {
			key = items[0]
		}
		val := types.Null
		if len(items) > 1 {
			val = items[1]
		}
		keyStr, err := ToStringValue(key)
		if err != nil {
			return types.Null, err
		}
		out.Set(keyStr, val)
	}
	return types.NewObjectValue(out), nil
}

// opGroupBy groups by f(item).to_string(), preserving first-occurrence key
// order (§4.5).
func opGroupBy(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "groupby")
	if err != nil {
		return types.Null, err
	}

	order := make([]string, 0)
	groups := make(map[string][]types.Value)
	for _, item := range xs {
		key, err := evalOverItem(ev, stack, args[0], item)
		if err != nil {
			return types.Null, err
		}
		keyStr, err := ToStringValue(key)
		if err != nil {
			return types.Null, err
		}
		if _, seen := groups[keyStr]; !seen {
			order = append(order, keyStr)
		}
		groups[keyStr] = append(groups[keyStr], item)
	}

	out := types.NewObject()
	for _, key := range order {
		out.Set(key, types.NewArray(groups[key]))
	}
	return types.NewObjectValue(out), nil
}

func opWithIndices(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(x, "withindices")
	if err != nil {
		return types.Null, err
	}
	pairs := lo.Map(xs, func(item types.Value, i int) types.Value {
		return types.NewArray([]types.Value{types.Number(float64(i)), item})
	})
	return types.NewArray(pairs), nil
}

func opReverse(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(x, "reverse")
	if err != nil {
		return types.Null, err
	}
	out := append([]types.Value{}, xs...)
	return types.NewArray(lo.Reverse(out)), nil
}

func opSort(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(x, "sort")
	if err != nil {
		return types.Null, err
	}
	out := append([]types.Value{}, xs...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if out[i].Kind() != out[j].Kind() || !out[i].Kind().Comparable() {
			sortErr = types.RuntimeErrorf("sort requires comparable values of the same type, got %s and %s", out[i].Kind(), out[j].Kind())
			return false
		}
		return types.Compare(out[i], out[j]) < 0
	})
	if sortErr != nil {
		return types.Null, sortErr
	}
	return types.NewArray(out), nil
}

func opSortBy(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "sortby")
	if err != nil {
		return types.Null, err
	}

	keys := make([]types.Value, len(xs))
	for i, item := range xs {
		k, err := evalOverItem(ev, stack, args[0], item)
		if err != nil {
			return types.Null, err
		}
		keys[i] = k
	}

	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.Kind() != kb.Kind() || !ka.Kind().Comparable() {
			sortErr = types.RuntimeErrorf("sortby requires comparable keys of the same type, got %s and %s", ka.Kind(), kb.Kind())
			return false
		}
		return types.Compare(ka, kb) < 0
	})
	if sortErr != nil {
		return types.Null, sortErr
	}

	out := make([]types.Value, len(xs))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return types.NewArray(out), nil
}

// opFlatten flattens one level: an Array element is spread into the result;
// any other element is kept as-is.
func opFlatten(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(x, "flatten")
	if err != nil {
		return types.Null, err
	}
	out := make([]types.Value, 0, len(xs))
	for _, item := range xs {
		if item.IsArray() {
			out = append(out, item.AsArray()...)
		} else {
			out = append(out, item)
		}
	}
	return types.NewArray(out), nil
}

// opApply evaluates f with focus pushed to x — the same as any other
// per-item evaluation, just without an enclosing collection.
func opApply(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	return evalOverItem(ev, stack, args[0], x)
}

// opSequence implements §4.5: returns all strictly increasing index tuples
// (i1<i2<…) such that predicate pk is truthy on xs[ik], materialized as
// Arrays of the corresponding items. args is [p1, p2, …, pk, xs].
func opSequence(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	predicates := args[:len(args)-1]
	xsVal, err := evalArg(args, len(args)-1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "sequence")
	if err != nil {
		return types.Null, err
	}

	matches := make([][]bool, len(predicates))
	for p, pred := range predicates {
		row := make([]bool, len(xs))
		for i, item := range xs {
			v, err := evalOverItem(ev, stack, pred, item)
			if err != nil {
				return types.Null, err
			}
			row[i] = v.Truthy()
		}
		matches[p] = row
	}

	var results [][]types.Value
	var cur []types.Value
	var walk func(start, predIdx int)
	walk = func(start, predIdx int) {
		if predIdx == len(predicates) {
			tuple := append([]types.Value{}, cur...)
			results = append(results, tuple)
			return
		}
		for i := start; i < len(xs); i++ {
			if matches[predIdx][i] {
				cur = append(cur, xs[i])
				walk(i+1, predIdx+1)
				cur = cur[:len(cur)-1]
			}
		}
	}
	walk(0, 0)

	out := make([]types.Value, len(results))
	for i, tuple := range results {
		out[i] = types.NewArray(tuple)
	}
	return types.NewArray(out), nil
}
