package mistql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mistql "github.com/mistql/mistql-go"
)

func TestQueryFilterMapPipe(t *testing.T) {
	data := map[string]interface{}{
		"people": []interface{}{
			map[string]interface{}{"name": "alice", "age": float64(30)},
			map[string]interface{}{"name": "bo", "age": float64(12)},
		},
	}
	result, err := mistql.Query(`@.people | filter @.age > 18 | map @.name`, data, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"alice"}, result)
}

func TestQueryArithmeticAndStrings(t *testing.T) {
	result, err := mistql.Query(`"hello " + "world"`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}

func TestQuerySyntaxErrorSurfaced(t *testing.T) {
	_, err := mistql.Query(`@ |`, nil, nil)
	require.Error(t, err)
}

func TestQueryReferenceErrorSurfaced(t *testing.T) {
	_, err := mistql.Query(`undefinedName`, nil, nil)
	require.Error(t, err)
}

func TestParseThenEvaluateReusesCompiledExpression(t *testing.T) {
	expr, err := mistql.Parse(`@.count`)
	require.NoError(t, err)

	r1, err := mistql.Evaluate(expr, map[string]interface{}{"count": float64(1)}, nil)
	require.NoError(t, err)
	r2, err := mistql.Evaluate(expr, map[string]interface{}{"count": float64(2)}, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), r1)
	assert.Equal(t, float64(2), r2)
}

func TestQueryWithExtraHostFunction(t *testing.T) {
	extra := map[string]interface{}{
		"double": func(n float64) float64 { return n * 2 },
	}
	result, err := mistql.Query(`double 21`, nil, extra)
	require.NoError(t, err)
	assert.Equal(t, float64(42), result)
}

func TestVersionIsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, mistql.Version())
}
