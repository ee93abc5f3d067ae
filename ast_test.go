package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pos() SourcePosition { return SourcePosition{File: "<test>", Line: 1, Column: 1} }

func TestIdentifierCopyIsDistinctValue(t *testing.T) {
	id := NewIdentifier("x", pos())
	cp := id.Copy()
	require.True(t, id.Equal(cp))
	require.NotSame(t, id, cp)
}

func TestNumberLiteralEqualComparesValue(t *testing.T) {
	a := NewNumberLiteral(3, pos())
	b := NewNumberLiteral(3, pos())
	c := NewNumberLiteral(4, pos())
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestArrayLiteralCopyDeepCopiesElements(t *testing.T) {
	lit := NewArrayLiteral([]Expression{NewNumberLiteral(1, pos()), NewNumberLiteral(2, pos())}, pos())
	cp := lit.Copy().(*ArrayLiteral)
	require.True(t, lit.Equal(cp))
	require.NotSame(t, lit.Elements[0], cp.Elements[0])
}

func TestInfixExpressionString(t *testing.T) {
	expr := NewInfixExpression("+", NewNumberLiteral(1, pos()), NewNumberLiteral(2, pos()), pos())
	require.Equal(t, "(1 + 2)", expr.String())
}

func TestParseProgramThenPrintStatementsRoundTripsSource(t *testing.T) {
	stmts, errs := ParseProgram([]byte(`const x = 2 + 3 * 4`), "<test>", false)
	require.False(t, errs.HasErrors())
	out := PrintStatements(stmts)
	require.Contains(t, out, "x")
}

func TestParseProgramCollectsMultipleErrors(t *testing.T) {
	_, errs := ParseProgram([]byte(`const = 1`), "<test>", false)
	require.True(t, errs.HasErrors())
	require.Greater(t, errs.Count(), 1)
}
