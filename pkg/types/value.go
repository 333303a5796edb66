package types

import (
	"fmt"
	"math"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant of the runtime value union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
	KindFunction
	KindRegex
)

// String names a Kind the way error messages and $type-style diagnostics do.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// Object is an insertion-ordered string-keyed mapping, matching JSON object
// semantics where key order is observable (entries, keys, mapkeys all honor it).
type Object = orderedmap.OrderedMap[string, Value]

// NewObject returns an empty insertion-ordered Object.
func NewObject() *Object {
	return orderedmap.New[string, Value]()
}

// Callable is the contract every Function value satisfies: built-ins and
// boundary-wrapped host functions. Arguments
// are the *unevaluated* expression trees (the Fncall's argument list) so a
// callee can choose what to evaluate, when, and against which focus.
//
// Evaluator is implemented by the evaluator package; it is expressed here as
// a narrow interface to avoid an import cycle between types and evaluator.
type Callable interface {
	Name() string
	MinArgs() int
	MaxArgs() int // -1 means unbounded
	Call(args []*ASTNode, stack Stack, ev Evaluator) (Value, error)
}

// Stack is the lexical-scope contract the evaluator package implements.
// Re-declared here (rather than imported) to keep types dependency-free of
// evaluator, matching Callable above.
type Stack interface {
	Lookup(name string, absolute bool) (Value, error)
	PushFocus(focus Value) Stack
}

// Evaluator is the minimal contract a built-in needs to evaluate an argument
// expression against a given stack.
type Evaluator interface {
	Eval(node *ASTNode, stack Stack) (Value, error)
}

// Regex is a compiled pattern plus the flags it was built with. The "global"
// flag doesn't change matching itself; only the replace built-in consults it,
// to decide whether to act on every match or just the first.
type Regex struct {
	Source  string
	Flags   string
	Global  bool
	Pattern RegexEngine
}

// RegexEngine abstracts the compiled-pattern object so that types doesn't
// depend on the regex engine package directly (avoids an import cycle with
// the builtins package, which owns compilation).
type RegexEngine interface {
	FindIndex(s string, start int) (start_, end int, groups []string, ok bool, err error)
}

// Value is the tagged runtime value every MistQL expression evaluates to.
// Exactly one payload field is meaningful for a given Kind; the others are
// zero. Modifiers is a side-band map of metadata that rides along with a
// value without being part of its identity for most purposes (currently only
// Regex uses it, to carry the "global" flag alongside equality-relevant
// Source/Flags).
type Value struct {
	kind Kind

	b   bool
	n   float64
	s   string
	arr []Value
	obj *Object
	fn  Callable
	re  *Regex

	modifiers map[string]Value
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Number wraps a float64. The garden wall collapses NaN and ±Inf to Null on
// the way in; arithmetic built-ins do not check their results, so a
// non-finite value such as 1/0 is carried as an ordinary Number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a UTF-8 string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// NewArray wraps an ordered slice of values. The slice is taken by reference;
// callers must not mutate it after construction (values are immutable after
// construction per the data model).
func NewArray(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// NewObjectValue wraps an already-built ordered Object.
func NewObjectValue(obj *Object) Value {
	if obj == nil {
		obj = NewObject()
	}
	return Value{kind: KindObject, obj: obj}
}

// Func wraps a Callable as a Function value.
func Func(c Callable) Value { return Value{kind: KindFunction, fn: c} }

// NewRegex wraps a compiled Regex as a Regex value, recording the "global"
// flag in both the payload and the modifiers side-band (the latter is what
// the spec calls out as the canonical home for per-value metadata).
func NewRegex(r *Regex) Value {
	v := Value{kind: KindRegex, re: r}
	v.modifiers = map[string]Value{"global": Bool(r.Global)}
	return v
}

// Kind reports which variant this value holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsBoolean() bool  { return v.kind == KindBoolean }
func (v Value) IsNumber() bool   { return v.kind == KindNumber }
func (v Value) IsString() bool   { return v.kind == KindString }
func (v Value) IsArray() bool    { return v.kind == KindArray }
func (v Value) IsObject() bool   { return v.kind == KindObject }
func (v Value) IsFunction() bool { return v.kind == KindFunction }
func (v Value) IsRegex() bool    { return v.kind == KindRegex }

// AsBool returns the boolean payload; only meaningful when Kind() == KindBoolean.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the number payload; only meaningful when Kind() == KindNumber.
func (v Value) AsNumber() float64 { return v.n }

// AsString returns the string payload; only meaningful when Kind() == KindString.
func (v Value) AsString() string { return v.s }

// AsArray returns the array payload; only meaningful when Kind() == KindArray.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the object payload; only meaningful when Kind() == KindObject.
func (v Value) AsObject() *Object { return v.obj }

// AsFunction returns the function payload; only meaningful when Kind() == KindFunction.
func (v Value) AsFunction() Callable { return v.fn }

// AsRegex returns the regex payload; only meaningful when Kind() == KindRegex.
func (v Value) AsRegex() *Regex { return v.re }

// Modifier reads a side-band modifier by name.
func (v Value) Modifier(name string) (Value, bool) {
	m, ok := v.modifiers[name]
	return m, ok
}

// Truthy implements the truthiness law from §4.5: Null is false, Boolean is
// itself, Number is non-zero, String is non-empty, Array/Object are
// non-empty, Function and Regex are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj.Len() > 0
	default: // Function, Regex
		return true
	}
}

// Access implements Object field access used by the `.` and `index`
// built-ins. Missing
// keys and non-Object receivers both yield Null, per §4.5's dot-access rule.
func (v Value) Access(key string) Value {
	if v.kind != KindObject {
		return Null
	}
	val, ok := v.obj.Get(key)
	if !ok {
		return Null
	}
	return val
}

// Equal implements the deep structural equality law from §4.5: Regex compares
// pattern source, flags, and the global modifier; Function compares by
// referential identity; everything else compares structurally.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
			bv, ok := b.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, bv) {
				return false
			}
		}
		return true
	case KindFunction:
		return sameCallable(a.fn, b.fn)
	case KindRegex:
		return a.re.Source == b.re.Source && a.re.Flags == b.re.Flags && a.re.Global == b.re.Global
	default:
		return false
	}
}

// sameCallable compares two Callables by referential identity. Within one
// evaluation each built-in name holds a single instance, so pointer-equal
// Callables compare equal; host-wrapped functions are distinct per
// construction, matching the "compared by referential identity" invariant in
// the data model.
func sameCallable(a, b Callable) bool {
	type identifier interface{ Identity() uintptr }
	ai, aok := a.(identifier)
	bi, bok := b.(identifier)
	if aok && bok {
		return ai.Identity() == bi.Identity()
	}
	return a == b
}

// Comparable reports whether Kind k participates in the < <= > >= ordering,
// per §4.5: only Boolean, Number, and String are ordered.
func (k Kind) Comparable() bool {
	return k == KindBoolean || k == KindNumber || k == KindString
}

// Compare orders two comparable-kind values, returning -1, 0, or 1. Booleans
// compare via int-cast subtraction (false < true) per the explicit open
// question in the design notes: early drafts preserved this and later tests
// depend on it. Compare panics if called on an incomparable kind or mismatched
// kinds; callers check first and raise a proper error before reaching here
// (a TypeError from the ordering operators, a RuntimeError from sort/sortby).
func Compare(a, b Value) int {
	if a.kind != b.kind || !a.kind.Comparable() {
		panic(fmt.Sprintf("types: Compare called on incomparable kinds %s/%s", a.kind, b.kind))
	}
	switch a.kind {
	case KindBoolean:
		ai, bi := boolToInt(a.b), boolToInt(b.b)
		return ai - bi
	case KindNumber:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		default:
			return 0
		}
	case KindString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsFiniteNumber reports whether f is safe to box as a Number: the garden
// wall collapses NaN/±Inf to Null on the way in (§4.7), but arithmetic
// built-ins may still produce non-finite intermediate results (§9, open
// question iii) — this helper lets callers decide per call site whether to
// surface that as a RuntimeError or let it flow through IEEE-754-style.
func IsFiniteNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SortableStrings sorts a slice of strings the same way the runtime value
// ordering does, for code that needs a deterministic string order outside of
// the Value machinery. Nothing in this module calls it.
func SortableStrings(ss []string) {
	sort.Strings(ss)
}
