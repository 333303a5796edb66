package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistql/mistql-go/pkg/types"
)

func TestParseSimpleRef(t *testing.T) {
	expr, err := Parse(`@`)
	require.NoError(t, err)
	assert.Equal(t, types.NodeRef, expr.AST().Kind)
}

func TestParsePipeDesugarsToPipeNode(t *testing.T) {
	expr, err := Parse(`@ | filter @.age > 18 | map @.name`)
	require.NoError(t, err)
	assert.Equal(t, types.NodePipe, expr.AST().Kind)
	require.Len(t, expr.AST().Stages, 3)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	expr, err := Parse(`[1, 2, {a: 1}]`)
	require.NoError(t, err)
	assert.Equal(t, types.NodeArray, expr.AST().Kind)
	require.Len(t, expr.AST().Items, 3)
	assert.Equal(t, types.NodeObject, expr.AST().Items[2].Kind)
}

func TestParseInvalidQueryReturnsSyntaxError(t *testing.T) {
	_, err := Parse(`@ |`)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrSyntax))
}

func TestParseOperatorPrecedence(t *testing.T) {
	// `+` binds tighter than `==`, so this must parse as (1 + 2) == 3.
	expr, err := Parse(`1 + 2 == 3`)
	require.NoError(t, err)
	require.Equal(t, types.NodeFncall, expr.AST().Kind)
	assert.Equal(t, "==", expr.AST().Head.Name)
}
