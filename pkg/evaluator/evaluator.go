// Package evaluator implements the MistQL tree-walking evaluator (§4.3-4.4):
// the lexical Stack/Frame chain (stack.go) and the Evaluator that dispatches
// on each of the six ASTNode kinds (this file).
package evaluator

import (
	"github.com/mistql/mistql-go/pkg/types"
)

// Evaluator implements types.Evaluator by walking the call-centric AST the
// parser produces. It is stateless; a single Evaluator is reused across
// every call, including recursive evaluation of a built-in's own arguments,
// so it is safe for concurrent use as long as the Stack passed to each Eval
// call isn't itself shared across goroutines.
type Evaluator struct{}

// New returns a ready-to-use Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Eval implements types.Evaluator.
func (ev *Evaluator) Eval(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	switch node.Kind {
	case types.NodeValue:
		return node.Val, nil
	case types.NodeRef:
		return stack.Lookup(node.Name, node.Absolute)
	case types.NodeArray:
		return ev.evalArray(node, stack)
	case types.NodeObject:
		return ev.evalObject(node, stack)
	case types.NodeFncall:
		return ev.evalFncall(node, stack)
	case types.NodePipe:
		return ev.evalPipe(node, stack)
	default:
		return types.Null, types.InternalErrorf("unhandled node kind %s", node.Kind)
	}
}

func (ev *Evaluator) evalArray(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	items := make([]types.Value, len(node.Items))
	for i, item := range node.Items {
		v, err := ev.Eval(item, stack)
		if err != nil {
			return types.Null, err
		}
		items[i] = v
	}
	return types.NewArray(items), nil
}

func (ev *Evaluator) evalObject(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	obj := types.NewObject()
	for i, key := range node.Keys {
		v, err := ev.Eval(node.Vals[i], stack)
		if err != nil {
			return types.Null, err
		}
		obj.Set(key, v)
	}
	return types.NewObjectValue(obj), nil
}

// evalFncall evaluates the head expression, requires it to be a Function,
// and delegates to its Call with the *unevaluated* argument nodes — a
// built-in decides for itself which arguments to evaluate, against which
// stack, and in what order (§4.4: filter/map/reduce/if all rely on this).
func (ev *Evaluator) evalFncall(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	head, err := ev.Eval(node.Head, stack)
	if err != nil {
		return types.Null, err
	}
	return callFunction(head, node.Args, stack, ev)
}

func callFunction(head types.Value, args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	if !head.IsFunction() {
		return types.Null, types.TypeErrorf("cannot call a value of type %s", head.Kind())
	}
	fn := head.AsFunction()
	argc := len(args)
	if argc < fn.MinArgs() || (fn.MaxArgs() >= 0 && argc > fn.MaxArgs()) {
		return types.Null, types.TypeErrorf("%s: expected between %d and %d arguments, got %d", fn.Name(), fn.MinArgs(), fn.MaxArgs(), argc)
	}
	return fn.Call(args, stack, ev)
}

// evalPipe implements the pipe desugaring rule from §4.4: `x | f a` evaluates
// as `f a x`, i.e. the prior stage's value is appended as the final argument
// to the next stage's call and pushed as the new focus ("@"). Every stage
// after the first must itself be a Fncall. The parser accepts any
// expression as a stage, so a bare reference stage such as `x | count`
// parses and is rejected here with an InternalError.
//
// Each stage pushes focus against the *same* outer stack, not against the
// previous stage's pushed frame: spec.md's desugaring rule
// (v{i} = evaluate(Fncall(h, A ++ [v{i-1}]), push_focus(v{i-1}, stack)))
// takes a single invariant `stack` parameter for every i, so stage frames
// are siblings, not a chain — a name bound by one stage's focus must not
// leak into the next stage's lookup.
func (ev *Evaluator) evalPipe(node *types.ASTNode, stack types.Stack) (types.Value, error) {
	value, err := ev.Eval(node.Stages[0], stack)
	if err != nil {
		return types.Null, err
	}

	for _, stage := range node.Stages[1:] {
		if stage.Kind != types.NodeFncall {
			return types.Null, types.InternalErrorf("pipe stage is not a function call")
		}
		pushed := stack.PushFocus(value)

		args := make([]*types.ASTNode, len(stage.Args)+1)
		copy(args, stage.Args)
		args[len(stage.Args)] = types.NewValueNode(value, stage.Position)

		head, err := ev.Eval(stage.Head, pushed)
		if err != nil {
			return types.Null, err
		}
		value, err = callFunction(head, args, pushed, ev)
		if err != nil {
			return types.Null, err
		}
	}

	return value, nil
}
