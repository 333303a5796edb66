// Package builtins implements the standard library of MistQL named and
// operator functions that define the language's semantics (§4.5): arithmetic
// and comparison, control flow, collection operations, string/regex
// handling, and aggregation.
//
// Every built-in is a types.Callable registered under its canonical name.
// Operators are registered under the same symbolic name the parser's
// lowering pass uses as an absolute Ref (e.g. "+", "==", "!/unary"), so a
// lowered Fncall head resolves to exactly these values without any special
// casing in the evaluator.
package builtins

import (
	"github.com/mistql/mistql-go/pkg/types"
)

// callFunc is the shape every built-in's implementation takes: the raw,
// unevaluated argument expressions, the stack to evaluate them against, and
// the evaluator to use for recursive evaluation. Built-ins decide for
// themselves which arguments to evaluate, against which stack (map/filter/
// reduce push a per-item focus before evaluating their function argument),
// and in what order (&&/|| short-circuit; if evaluates only one branch).
type callFunc func(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error)

// builtin is the concrete types.Callable every function in this package is
// registered as. Each Registry call constructs one instance per name, and
// that instance is what every frame built from the map holds, so
// referential-identity comparisons (Function equality, §4.5) work within
// one evaluation without any extra Identity() plumbing.
type builtin struct {
	name string
	min  int
	max  int // -1 means unbounded
	call callFunc
}

func (b *builtin) Name() string    { return b.name }
func (b *builtin) MinArgs() int    { return b.min }
func (b *builtin) MaxArgs() int    { return b.max }
func (b *builtin) Call(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	return b.call(args, stack, ev)
}

func newBuiltin(name string, min, max int, call callFunc) *builtin {
	return &builtin{name: name, min: min, max: max, call: call}
}

// Registry returns a fresh name→Callable map holding every standard
// built-in. A fresh map is handed out per call so a caller (mistql.go,
// building the root stack frame per §4.3) is free to layer extras on top
// without mutating shared state.
func Registry() map[string]types.Callable {
	reg := make(map[string]types.Callable, 64)
	register := func(b *builtin) { reg[b.name] = b }

	for _, b := range operatorBuiltins() {
		register(b)
	}
	for _, b := range controlBuiltins() {
		register(b)
	}
	for _, b := range collectionBuiltins() {
		register(b)
	}
	for _, b := range stringBuiltins() {
		register(b)
	}
	for _, b := range aggregateBuiltins() {
		register(b)
	}

	return reg
}

// evalArg evaluates args[i] against stack — a small helper so call sites
// read as "the i-th argument" rather than repeating the slice index.
func evalArg(args []*types.ASTNode, i int, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	return ev.Eval(args[i], stack)
}
