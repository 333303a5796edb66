package gardenwall

import "github.com/mistql/mistql-go/pkg/types"

// LazyArray wraps a host slice, decoding and caching one element at a time
// (§4.7's "optional laziness"). Len reads the host slice directly with no
// decoding; At materializes and caches only the requested index;
// Materialize forces the whole thing and returns an ordinary eager Array
// Value, after which every element is cached.
//
// This is deliberately a helper living outside pkg/types rather than a
// ninth Value variant: the data model (§3) names exactly eight variants,
// and a lazy Array/Object is specified to be "observationally
// indistinguishable from its eager counterpart" — so callers that want
// laziness use LazyArray/LazyObject directly for the cheap len/keys path,
// and fall back to Materialize (producing the same Value an eager Decode
// would) the moment anything needs to walk the whole collection.
type LazyArray struct {
	host  []interface{}
	cache []*types.Value
}

// NewLazyArray wraps host for lazy, per-element decoding.
func NewLazyArray(host []interface{}) *LazyArray {
	return &LazyArray{host: host, cache: make([]*types.Value, len(host))}
}

// Len reports the element count without decoding anything.
func (l *LazyArray) Len() int { return len(l.host) }

// At decodes and caches host[i] on first access.
func (l *LazyArray) At(i int) (types.Value, error) {
	if l.cache[i] == nil {
		v, err := Decode(l.host[i])
		if err != nil {
			return types.Null, err
		}
		l.cache[i] = &v
	}
	return *l.cache[i], nil
}

// Materialize decodes every remaining element and returns an eager Array
// Value equal to what Decode(host) would have produced directly.
func (l *LazyArray) Materialize() (types.Value, error) {
	items := make([]types.Value, len(l.host))
	for i := range l.host {
		v, err := l.At(i)
		if err != nil {
			return types.Null, err
		}
		items[i] = v
	}
	return types.NewArray(items), nil
}

// LazyObject is LazyArray's counterpart for host maps: Keys costs nothing,
// Access decodes and caches a single field, Materialize forces the rest.
//
// Key order follows a caller-supplied key slice (typically produced by an
// order-preserving decode, e.g. DecodeJSON's token walk) rather than Go's
// unordered map iteration, so Materialize still honors §3's insertion-order
// invariant.
type LazyObject struct {
	host  map[string]interface{}
	order []string
	cache map[string]types.Value
}

// NewLazyObject wraps host for lazy, per-field decoding. order lists keys
// in the insertion order to preserve; it must contain exactly host's keys.
func NewLazyObject(host map[string]interface{}, order []string) *LazyObject {
	return &LazyObject{host: host, order: order, cache: make(map[string]types.Value, len(host))}
}

// Keys returns field names in insertion order, without decoding any values.
func (l *LazyObject) Keys() []string {
	return l.order
}

// Access decodes and caches host[key] on first access; a missing key
// returns Null, matching eager Access's miss behavior.
func (l *LazyObject) Access(key string) (types.Value, error) {
	if v, ok := l.cache[key]; ok {
		return v, nil
	}
	raw, ok := l.host[key]
	if !ok {
		return types.Null, nil
	}
	v, err := Decode(raw)
	if err != nil {
		return types.Null, err
	}
	l.cache[key] = v
	return v, nil
}

// Materialize decodes every remaining field and returns an eager Object
// Value with the same key order Keys() reports.
func (l *LazyObject) Materialize() (types.Value, error) {
	obj := types.NewObject()
	for _, key := range l.order {
		v, err := l.Access(key)
		if err != nil {
			return types.Null, err
		}
		obj.Set(key, v)
	}
	return types.NewObjectValue(obj), nil
}
