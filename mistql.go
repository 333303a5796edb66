// Package mistql implements an embeddable query language that transforms a
// JSON-shaped input into a JSON-shaped output via a concise,
// pipeline-oriented expression (§1).
//
// # Quick start
//
//	result, err := mistql.Query(`@ | filter @.age > 18 | map @.name`, data, nil)
//
//	// Compile once, evaluate many times.
//	expr, err := mistql.Parse(`@.prizes | count @`)
//	result1, _ := mistql.Evaluate(expr, data1, nil)
//	result2, _ := mistql.Evaluate(expr, data2, nil)
package mistql

import (
	"github.com/mistql/mistql-go/pkg/builtins"
	"github.com/mistql/mistql-go/pkg/evaluator"
	"github.com/mistql/mistql-go/pkg/extras"
	"github.com/mistql/mistql-go/pkg/gardenwall"
	"github.com/mistql/mistql-go/pkg/parser"
	"github.com/mistql/mistql-go/pkg/types"
)

// version is reported by the CLI's --version flag and Version().
const version = "v0.1.0"

// Version returns the implementation's version string.
func Version() string {
	return version
}

// defaultCache backs Parse and Query, matching §5's "memoizes the most
// recent few" note (mirroring the original's query.py convenience wrapper,
// SPEC_FULL.md §12) — repeated calls with the same query string skip
// re-parsing.
var defaultCache = newCompileCache()

// Parse compiles query into an Expression, consulting the shared compile
// cache first. Parse errors are always *types.Error of kind ErrSyntax (§6).
func Parse(query string) (*types.Expression, error) {
	return defaultCache.getOrCompile(query, func() (*types.Expression, error) {
		return parser.Parse(query)
	})
}

// ev is the single stateless tree-walking evaluator every Evaluate call
// shares; it holds no per-call state (§4.4).
var ev = evaluator.New()

// Evaluate runs a compiled Expression against a host JSON-shaped input
// value, returning a host JSON-shaped result (§6). extras maps names to
// either a boundary-wrapped host Go function or a pre-built Function
// value (§6); it may be nil.
func Evaluate(expr *types.Expression, input interface{}, extraFns map[string]interface{}) (interface{}, error) {
	inputValue, err := gardenwall.Decode(input)
	if err != nil {
		return nil, err
	}

	extraValues, err := extras.BuildAll(extraFns)
	if err != nil {
		return nil, err
	}

	stack := evaluator.BuildInitialStack(inputValue, builtins.Registry(), extraValues)

	result, err := ev.Eval(expr.AST(), stack)
	if err != nil {
		return nil, err
	}

	return gardenwall.Encode(result)
}

// Query is the one-shot convenience wrapper combining Parse (cached) and
// Evaluate (§6).
func Query(query string, input interface{}, extraFns map[string]interface{}) (interface{}, error) {
	expr, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return Evaluate(expr, input, extraFns)
}
