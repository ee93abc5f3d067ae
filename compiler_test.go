package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Pins the value-first SET_INDEX evaluation order documented in
// DESIGN.md: an index-assignment expression's own value is the
// assigned value, not some stale read of the target.
func TestCompilerIndexAssignmentExpressionYieldsAssignedValue(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `var a = [1, 2, 3]; var r = (a[0] = 99); r`)
	require.Equal(t, NewNumber(99), v)

	v = run(t, e, `a`)
	arr := v.(*ArrayObj)
	require.Equal(t, NewNumber(99), arr.Elements[0])
}

func TestCompilerRejectsReservedIdentifier(t *testing.T) {
	_, err := CompileSource([]byte(`const this = 1`), "<test>", nil)
	require.Error(t, err)
}

func TestCompilerUndefinedIdentifierIsCompileError(t *testing.T) {
	_, err := CompileSource([]byte(`var x = nope + 1`), "<test>", nil)
	require.Error(t, err)
}
