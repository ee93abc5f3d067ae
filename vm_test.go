package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Cross-type equality is permissive (false, not a crash); cross-type
// ordering is a runtime error (see DESIGN.md's COMPARE/NaN decision).
func TestVMCrossTypeEqualityIsFalseNotError(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `5 == "hello"`)
	require.Equal(t, Bool(false), v)

	v = run(t, e, `5 != "hello"`)
	require.Equal(t, Bool(true), v)
}

func TestVMCrossTypeOrderingRaises(t *testing.T) {
	e := newTestEngine()
	_, err := e.Execute([]byte(`5 < "hello"`), "<test>")
	require.Error(t, err)
}

func TestVMNumericComparisons(t *testing.T) {
	e := newTestEngine()
	require.Equal(t, Bool(true), run(t, e, `3 < 4`))
	require.Equal(t, Bool(true), run(t, e, `4 <= 4`))
	require.Equal(t, Bool(true), run(t, e, `5 > 4`))
	require.Equal(t, Bool(true), run(t, e, `5 >= 5`))
	require.Equal(t, Bool(true), run(t, e, `5 == 5`))
	require.Equal(t, Bool(true), run(t, e, `5 != 4`))
}

func TestVMStringEquality(t *testing.T) {
	e := newTestEngine()
	require.Equal(t, Bool(true), run(t, e, `"abc" == "abc"`))
	require.Equal(t, Bool(false), run(t, e, `"abc" == "abd"`))
}

func TestVMBitwiseAndShiftOperators(t *testing.T) {
	e := newTestEngine()
	require.Equal(t, NewNumber(6), run(t, e, `4 | 2`))
	require.Equal(t, NewNumber(4), run(t, e, `6 & 4`))
	require.Equal(t, NewNumber(2), run(t, e, `6 ^ 4`))
	require.Equal(t, NewNumber(8), run(t, e, `2 << 2`))
	require.Equal(t, NewNumber(1), run(t, e, `4 >> 2`))
}

func TestVMOperatorOverloadViaMagicKey(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `
		const mkVec = fn(x, y){
			var v = { "x": x, "y": y }
			v["__operator_add__"] = fn(self, other){ return mkVec(self.x + other.x, self.y + other.y) }
			return v
		}
		const a = mkVec(1, 2)
		const b = mkVec(3, 4)
		const c = a + b
		c.x
	`)
	require.Equal(t, NewNumber(4), v)
}

func TestVMValueStackOverflowRaises(t *testing.T) {
	e := newTestEngine()
	_, err := e.Execute([]byte(`
		fn loop(n){ return loop(n + 1) }
		loop(0)
	`), "<test>")
	require.Error(t, err)
}
