package gardenwall_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/gardenwall"
	"github.com/mistql/mistql-go/pkg/types"
)

func TestDecodeRoundTrip(t *testing.T) {
	host := map[string]interface{}{
		"name": "ren",
		"age":  float64(9),
		"tags": []interface{}{"a", "b"},
	}
	v, err := gardenwall.Decode(host)
	require.NoError(t, err)
	require.True(t, v.IsObject())

	back, err := gardenwall.Encode(v)
	require.NoError(t, err)
	m := back.(map[string]interface{})
	assert.Equal(t, "ren", m["name"])
	assert.Equal(t, float64(9), m["age"])
}

func TestDecodeNonFiniteCollapsesToNull(t *testing.T) {
	v, err := gardenwall.Decode(math.Inf(1))
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEncodeFunctionIsRejected(t *testing.T) {
	_, err := gardenwall.Encode(types.Func(nil))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrRuntime))
}

func TestDecodeJSONPreservesKeyOrder(t *testing.T) {
	v, err := gardenwall.DecodeJSON([]byte(`{"b": 1, "a": 2, "c": 3}`))
	require.NoError(t, err)
	require.True(t, v.IsObject())

	var keys []string
	for pair := v.AsObject().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
}

func TestEncodeJSONRoundTripsOrderedObject(t *testing.T) {
	v, err := gardenwall.DecodeJSON([]byte(`{"z": 1, "y": [1, 2, 3]}`))
	require.NoError(t, err)

	out, err := gardenwall.EncodeJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"y":[1,2,3]}`, string(out))
}

func TestLazyArrayMaterializeMatchesEagerDecode(t *testing.T) {
	host := []interface{}{"a", "b", "c"}
	lazy := gardenwall.NewLazyArray(host)
	assert.Equal(t, 3, lazy.Len())

	materialized, err := lazy.Materialize()
	require.NoError(t, err)

	eager, err := gardenwall.Decode(host)
	require.NoError(t, err)
	assert.True(t, types.Equal(materialized, eager))
}
