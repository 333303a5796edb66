// Package parser implements the MistQL lexer, recursive-descent parser, and
// the lowering pass that turns the raw parse tree into the uniform
// call-centric AST the evaluator walks (§4.1-4.2).
//
// # Example
//
//	expr, err := parser.Parse(`@ | filter @.age > 18 | map @.name`)
//	if err != nil {
//	    return err
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/mistql/mistql-go/pkg/types"
)

// Parse tokenizes and parses query, lowers the result to the call-centric
// AST, and returns the compiled Expression. Parse errors are always
// *types.Error of kind ErrSyntax.
func Parse(query string) (*types.Expression, error) {
	p := newParser(query)
	return p.parse()
}
