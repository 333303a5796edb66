package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Number(0), false},
		{"nonzero", Number(-1), true},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"empty array", NewArray(nil), false},
		{"nonempty array", NewArray([]Value{Null}), true},
		{"empty object", NewObjectValue(NewObject()), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestEqualStructural(t *testing.T) {
	a := NewObject()
	a.Set("x", Number(1))
	b := NewObject()
	b.Set("x", Number(1))

	assert.True(t, Equal(NewObjectValue(a), NewObjectValue(b)))
	assert.True(t, Equal(NewArray([]Value{Number(1), String("a")}), NewArray([]Value{Number(1), String("a")})))
	assert.False(t, Equal(Number(1), String("1")))
	assert.True(t, Equal(Null, Null))
}

func TestAccessMissingKeyIsNull(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Number(1))
	v := NewObjectValue(obj)
	assert.Equal(t, Null, v.Access("missing"))
	assert.Equal(t, Null, Number(1).Access("a"))
}

func TestCompareBooleanOrdering(t *testing.T) {
	assert.Equal(t, -1, Compare(Bool(false), Bool(true)))
	assert.Equal(t, 0, Compare(Bool(true), Bool(true)))
	assert.Equal(t, 1, Compare(Bool(true), Bool(false)))
}

func TestComparePanicsOnIncomparableKind(t *testing.T) {
	assert.Panics(t, func() {
		Compare(NewArray(nil), NewArray(nil))
	})
}

func TestIsFiniteNumber(t *testing.T) {
	require.True(t, IsFiniteNumber(1.5))
	require.False(t, IsFiniteNumber(1.0/zero()))
}

func zero() float64 { return 0 }
