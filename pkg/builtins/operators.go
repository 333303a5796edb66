package builtins

import (
	"math"

	"github.com/mistql/mistql-go/pkg/types"
)

// operatorBuiltins registers every arithmetic, comparison, logical, unary,
// indexing, and dot-access operator under the canonical absolute-Ref name
// lowering produces (§4.1's operator table, §4.5, §4.2).
func operatorBuiltins() []*builtin {
	return []*builtin{
		newBuiltin("+", 2, 2, opAdd),
		newBuiltin("-", 2, 2, arithmetic("-", func(a, b float64) float64 { return a - b })),
		newBuiltin("*", 2, 2, arithmetic("*", func(a, b float64) float64 { return a * b })),
		newBuiltin("/", 2, 2, arithmetic("/", func(a, b float64) float64 { return a / b })),
		newBuiltin("%", 2, 2, arithmetic("%", opMod)),

		newBuiltin("==", 2, 2, opEqual(false)),
		newBuiltin("!=", 2, 2, opEqual(true)),

		newBuiltin("<", 2, 2, comparison("<", func(c int) bool { return c < 0 })),
		newBuiltin("<=", 2, 2, comparison("<=", func(c int) bool { return c <= 0 })),
		newBuiltin(">", 2, 2, comparison(">", func(c int) bool { return c > 0 })),
		newBuiltin(">=", 2, 2, comparison(">=", func(c int) bool { return c >= 0 })),

		newBuiltin("&&", 2, 2, opAnd),
		newBuiltin("||", 2, 2, opOr),
		newBuiltin("!/unary", 1, 1, opNot),
		newBuiltin("-/unary", 1, 1, opNegate),

		newBuiltin("index", 2, 3, opIndex),
		newBuiltin(".", 2, 2, opDot),
	}
}

func opAdd(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	a, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	b, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	switch {
	case a.IsNumber() && b.IsNumber():
		return types.Number(a.AsNumber() + b.AsNumber()), nil
	case a.IsString() && b.IsString():
		return types.String(a.AsString() + b.AsString()), nil
	case a.IsArray() && b.IsArray():
		out := make([]types.Value, 0, len(a.AsArray())+len(b.AsArray()))
		out = append(out, a.AsArray()...)
		out = append(out, b.AsArray()...)
		return types.NewArray(out), nil
	default:
		return types.Null, types.TypeErrorf("+ requires two numbers, two strings, or two arrays, got %s and %s", a.Kind(), b.Kind())
	}
}

func arithmetic(name string, op func(a, b float64) float64) callFunc {
	return func(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
		a, err := evalArg(args, 0, stack, ev)
		if err != nil {
			return types.Null, err
		}
		b, err := evalArg(args, 1, stack, ev)
		if err != nil {
			return types.Null, err
		}
		if !a.IsNumber() || !b.IsNumber() {
			return types.Null, types.TypeErrorf("%s requires two numbers, got %s and %s", name, a.Kind(), b.Kind())
		}
		return types.Number(op(a.AsNumber(), b.AsNumber())), nil
	}
}

// opMod is truncated (not floored) remainder, matching JS/JSON-host `%`
// semantics; the open question on non-finite intermediates (§9.iii) applies
// here too — division by zero is not pre-checked.
func opMod(a, b float64) float64 {
	return math.Mod(a, b)
}

func opEqual(negate bool) callFunc {
	return func(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
		a, err := evalArg(args, 0, stack, ev)
		if err != nil {
			return types.Null, err
		}
		b, err := evalArg(args, 1, stack, ev)
		if err != nil {
			return types.Null, err
		}
		eq := types.Equal(a, b)
		if negate {
			eq = !eq
		}
		return types.Bool(eq), nil
	}
}

func comparison(name string, accept func(c int) bool) callFunc {
	return func(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
		a, err := evalArg(args, 0, stack, ev)
		if err != nil {
			return types.Null, err
		}
		b, err := evalArg(args, 1, stack, ev)
		if err != nil {
			return types.Null, err
		}
		if a.Kind() != b.Kind() || !a.Kind().Comparable() {
			return types.Null, types.TypeErrorf("%s cannot compare %s and %s", name, a.Kind(), b.Kind())
		}
		return types.Bool(accept(types.Compare(a, b))), nil
	}
}

// opAnd/opOr implement §4.5's short-circuit law: the left operand is always
// evaluated; the right is evaluated only when needed, and the *operand
// value itself* — not a coerced Boolean — is what's returned.
func opAnd(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	left, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !left.Truthy() {
		return left, nil
	}
	return evalArg(args, 1, stack, ev)
}

func opOr(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	left, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if left.Truthy() {
		return left, nil
	}
	return evalArg(args, 1, stack, ev)
}

func opNot(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	v, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(!v.Truthy()), nil
}

func opNegate(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	v, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !v.IsNumber() {
		return types.Null, types.TypeErrorf("unary - requires a number, got %s", v.Kind())
	}
	return types.Number(-v.AsNumber()), nil
}

// opIndex implements §4.5's 2-arg index / 3-arg slice contract. Argument
// order follows lowering exactly: 2-arg is (i, x); 3-arg is (a, b, x) with
// the receiver always last.
func opIndex(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	if len(args) == 2 {
		return indexOne(args, stack, ev)
	}
	return indexSlice(args, stack, ev)
}

func indexOne(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	i, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	x, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}

	if x.IsNull() {
		return types.Null, nil
	}

	switch {
	case x.IsObject() && i.IsString():
		return x.Access(i.AsString()), nil
	case (x.IsArray() || x.IsString()) && i.IsNumber():
		n := i.AsNumber()
		idx := int(n)
		if float64(idx) != n {
			return types.Null, types.RuntimeErrorf("index must be an integer, got %v", n)
		}
		return indexAt(x, idx), nil
	default:
		return types.Null, types.TypeErrorf("cannot index %s with %s", x.Kind(), i.Kind())
	}
}

func indexAt(x types.Value, idx int) types.Value {
	if x.IsArray() {
		arr := x.AsArray()
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return types.Null
		}
		return arr[idx]
	}
	runes := []rune(x.AsString())
	if idx < 0 {
		idx += len(runes)
	}
	if idx < 0 || idx >= len(runes) {
		return types.Null
	}
	return types.String(string(runes[idx]))
}

func indexSlice(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	a, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	b, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	x, err := evalArg(args, 2, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !x.IsArray() && !x.IsString() {
		return types.Null, types.TypeErrorf("slicing requires an array or string, got %s", x.Kind())
	}

	length := sliceableLen(x)

	start, err := sliceBound(a, 0, length)
	if err != nil {
		return types.Null, err
	}
	end, err := sliceBound(b, length, length)
	if err != nil {
		return types.Null, err
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}

	if x.IsArray() {
		return types.NewArray(append([]types.Value{}, x.AsArray()[start:end]...)), nil
	}
	runes := []rune(x.AsString())
	return types.String(string(runes[start:end])), nil
}

func sliceableLen(x types.Value) int {
	if x.IsArray() {
		return len(x.AsArray())
	}
	return len([]rune(x.AsString()))
}

func sliceBound(v types.Value, dflt, length int) (int, error) {
	if v.IsNull() {
		return dflt, nil
	}
	if !v.IsNumber() {
		return 0, types.TypeErrorf("slice bound must be a number or null, got %s", v.Kind())
	}
	n := v.AsNumber()
	idx := int(n)
	if float64(idx) != n {
		return 0, types.RuntimeErrorf("slice bound must be an integer, got %v", n)
	}
	if idx < 0 {
		idx += length
	}
	return idx, nil
}

// opDot implements `.` (§4.5, §4.2): the left side is evaluated, the right
// side is a Ref node whose Name is read literally (never looked up on the
// stack) — lowering guarantees args[1].Kind == NodeRef.
func opDot(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	left, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if args[1].Kind != types.NodeRef {
		return types.Null, types.InternalErrorf("dot access right-hand side is not a literal name")
	}
	if !left.IsObject() {
		return types.Null, nil
	}
	return left.Access(args[1].Name), nil
}
