// Package extras implements §6's "extras" embedding mechanism: wrapping an
// arbitrary host Go function as a types.Callable so it can be bound into
// the root stack frame alongside the standard built-ins.
//
// Grounded on the teacher's host-function wrapping (pkg/ext/ext.go's
// category-grouped CustomFunctionDef registration, and pkg/functions'
// variadic-interface{} BuiltinFunc signature) and on the original Python
// implementation's reflective arity introspection
// (original_source/py/mistql/runtime_value.py's `from_py_func`, which reads
// inspect.getfullargspec to compute min/max arity and reject keyword-only
// arguments) and typeguard_wrapper.py's stricter variadic-vs-fixed-arity
// distinction — both mirrored here via reflect.Type.IsVariadic instead of
// Python's inspect module.
package extras

import (
	"reflect"

	"github.com/spf13/cast"

	"github.com/mistql/mistql-go/pkg/gardenwall"
	"github.com/mistql/mistql-go/pkg/types"
)

// hostCallable adapts a reflected Go function to types.Callable: arguments
// are evaluated, converted across the garden wall to host values, passed to
// fn by reflection, and the result converted back (§6).
type hostCallable struct {
	name string
	fn   reflect.Value
	min  int
	max  int // -1 when fn is variadic
}

func (h *hostCallable) Name() string { return h.name }
func (h *hostCallable) MinArgs() int { return h.min }
func (h *hostCallable) MaxArgs() int { return h.max }

func (h *hostCallable) Call(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	t := h.fn.Type()
	in := make([]reflect.Value, len(args))
	for i, argNode := range args {
		v, err := ev.Eval(argNode, stack)
		if err != nil {
			return types.Null, err
		}
		host, err := gardenwall.Encode(v)
		if err != nil {
			return types.Null, err
		}
		var paramType reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			paramType = t.In(t.NumIn() - 1).Elem()
		} else {
			paramType = t.In(i)
		}
		rv, err := coerce(paramType, host)
		if err != nil {
			return types.Null, types.TypeErrorf("%s: argument %d: %v", h.name, i, err)
		}
		in[i] = rv
	}

	out := h.fn.Call(in)
	return decodeResults(h.name, out)
}

func decodeResults(name string, out []reflect.Value) (types.Value, error) {
	if len(out) == 0 {
		return types.Null, nil
	}
	last := out[len(out)-1]
	if isErrorType(last.Type()) {
		if !last.IsNil() {
			return types.Null, types.RuntimeErrorf("%s: %v", name, last.Interface())
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return types.Null, nil
	}
	return gardenwall.Decode(out[0].Interface())
}

var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool {
	return t.Implements(errorInterfaceType)
}

// coerce converts a garden-wall-encoded host value (bool/float64/
// string/[]interface{}/map[string]interface{}/nil) into a reflect.Value
// assignable to expected, using spf13/cast for the numeric/string
// conversions Go's static typing would otherwise reject outright (an
// extras function taking `int` still works when the call site passes a
// MistQL Number, which always decodes to float64).
func coerce(expected reflect.Type, host interface{}) (reflect.Value, error) {
	if host == nil {
		return reflect.Zero(expected), nil
	}
	hv := reflect.ValueOf(host)
	if hv.Type().AssignableTo(expected) {
		return hv, nil
	}

	switch expected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(host)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(expected), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(host)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(expected), nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(host)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(expected), nil
	case reflect.String:
		s, err := cast.ToStringE(host)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(expected), nil
	case reflect.Bool:
		b, err := cast.ToBoolE(host)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case reflect.Interface:
		return reflect.ValueOf(host), nil
	default:
		if hv.Type().ConvertibleTo(expected) {
			return hv.Convert(expected), nil
		}
		return reflect.Value{}, errUnassignable(expected, host)
	}
}

type coercionError struct {
	expected reflect.Type
	got      interface{}
}

func (e *coercionError) Error() string {
	return "cannot use value as " + e.expected.String()
}

func errUnassignable(expected reflect.Type, got interface{}) error {
	return &coercionError{expected: expected, got: got}
}

// Wrap reflects over fn (which must be a non-nil Go func value), computing
// its minimum arity (non-variadic parameter count) and maximum arity (-1
// when variadic), and rejects the two shapes §6 names explicitly:
// zero-arity functions (the language has no zero-argument call form) and,
// since Go has no keyword arguments to begin with, that rejection is
// structurally guaranteed rather than checked.
func Wrap(name string, fn interface{}) (types.Callable, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, types.TypeErrorf("extras: %q is not a function", name)
	}
	t := v.Type()
	numIn := t.NumIn()

	min := numIn
	max := numIn
	if t.IsVariadic() {
		min = numIn - 1
		max = -1
	}
	if max == 0 {
		return nil, types.TypeErrorf("extras: %q has no arguments; MistQL has no zero-argument call form", name)
	}

	return &hostCallable{name: name, fn: v, min: min, max: max}, nil
}

// BuildExtra produces a stack-bindable Function Value for one extras entry:
// v may already be a pre-built Function Value (passed straight through) or
// a plain host Go function (wrapped via Wrap).
func BuildExtra(name string, v interface{}) (types.Value, error) {
	if val, ok := v.(types.Value); ok {
		if !val.IsFunction() {
			return types.Null, types.TypeErrorf("extras: %q is not a function value", name)
		}
		return val, nil
	}
	callable, err := Wrap(name, v)
	if err != nil {
		return types.Null, err
	}
	return types.Func(callable), nil
}

// BuildAll wraps a name→host-value map into name→Function Values, the
// shape build_initial_stack's extras parameter expects (§4.3).
func BuildAll(extras map[string]interface{}) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(extras))
	for name, v := range extras {
		fn, err := BuildExtra(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = fn
	}
	return out, nil
}
