package evaluator

import (
	"github.com/mistql/mistql-go/pkg/types"
)

// Frame is one lexical scope in the stack (§4.3): an ordered list of frames,
// each a name→value mapping, chained from innermost to outermost. Frame
// implements types.Stack directly — the "stack" the spec describes is
// simply its innermost frame, since each frame already knows its parent.
//
// Grounded on the teacher's EvalContext{parent, root, bindings, depth}
// frame chain (pkg/evaluator/context.go); MistQL has no $$-root-context
// concept distinct from the stack's own root frame, so that field is gone,
// and "bindings" here is populated once at construction rather than mutated
// in place — frames are immutable once pushed (§4.3).
type Frame struct {
	bindings map[string]types.Value
	parent   *Frame
}

// NewFrame builds a single frame with no parent (used for the root frame).
func NewFrame(bindings map[string]types.Value) *Frame {
	return &Frame{bindings: bindings}
}

// Lookup implements types.Stack. An absolute lookup restricts to the root
// frame only (used by lowered operator/index/dot Refs so a user binding can
// never shadow them); a relative lookup scans innermost to outermost.
func (f *Frame) Lookup(name string, absolute bool) (types.Value, error) {
	if absolute {
		root := f.root()
		if v, ok := root.bindings[name]; ok {
			return v, nil
		}
		return types.Null, types.ReferenceErrorf("undefined operator or built-in: %s", name)
	}
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.bindings[name]; ok {
			return v, nil
		}
	}
	return types.Null, types.ReferenceErrorf("undefined reference: %s", name)
}

// PushFocus implements types.Stack: build a new frame binding "@" to focus,
// plus — when focus is an Object — each of its own keys, and append it as
// the new innermost frame.
func (f *Frame) PushFocus(focus types.Value) types.Stack {
	bindings := map[string]types.Value{"@": focus}
	if focus.IsObject() {
		for pair := focus.AsObject().Oldest(); pair != nil; pair = pair.Next() {
			bindings[pair.Key] = pair.Value
		}
	}
	return &Frame{bindings: bindings, parent: f}
}

func (f *Frame) root() *Frame {
	r := f
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// BuildInitialStack constructs the three-frame initial stack from §4.3:
// (1) the root frame holding every built-in plus extras, (2) a frame
// binding "$" to a synthetic Object exposing "@" and every callable name,
// (3) a focus frame derived from input via the same PushFocus rule every
// other focus push uses.
func BuildInitialStack(input types.Value, builtins map[string]types.Callable, extras map[string]types.Value) types.Stack {
	rootBindings := make(map[string]types.Value, len(builtins)+len(extras))
	for name, fn := range builtins {
		rootBindings[name] = types.Func(fn)
	}
	for name, v := range extras {
		rootBindings[name] = v
	}
	root := NewFrame(rootBindings)

	dollar := types.NewObject()
	dollar.Set("@", input)
	for name, v := range rootBindings {
		dollar.Set(name, v)
	}
	dollarFrame := &Frame{bindings: map[string]types.Value{"$": types.NewObjectValue(dollar)}, parent: root}

	return dollarFrame.PushFocus(input)
}
