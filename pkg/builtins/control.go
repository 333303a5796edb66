package builtins

import (
	"github.com/mistql/mistql-go/pkg/types"
)

func controlBuiltins() []*builtin {
	return []*builtin{
		newBuiltin("if", 3, 3, opIf),
	}
}

// opIf evaluates exactly one of then/else, per §4.5.
func opIf(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	cond, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if cond.Truthy() {
		return evalArg(args, 1, stack, ev)
	}
	return evalArg(args, 2, stack, ev)
}
