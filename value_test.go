package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberStringFormatsIntegralAndFractional(t *testing.T) {
	require.Equal(t, "3", NewNumber(3).String())
	require.Equal(t, "3.5", NewNumber(3.5).String())
}

func TestValuesEqualCrossTypeIsFalse(t *testing.T) {
	require.False(t, ValuesEqual(NewNumber(1), Bool(true)))
	require.True(t, ValuesEqual(Null, Null))
}

func TestValuesEqualStringsByContent(t *testing.T) {
	a := NewStringValue("x")
	b := NewStringValue("x")
	require.NotSame(t, a, b)
	require.True(t, ValuesEqual(a, b))
}

func TestValuesEqualArraysByIdentityNotContent(t *testing.T) {
	a := NewArrayValue([]Value{NewNumber(1)})
	b := NewArrayValue([]Value{NewNumber(1)})
	require.False(t, ValuesEqual(a, b))
	require.True(t, ValuesEqual(a, a))
}

func TestCompareValuesCoercesBoolAndNullToNumeric(t *testing.T) {
	cmp, ok := CompareValues(Bool(true), NewNumber(1))
	require.True(t, ok)
	require.Equal(t, 0, cmp)

	cmp, ok = CompareValues(Null, NewNumber(0))
	require.True(t, ok)
	require.Equal(t, 0, cmp)
}

func TestCompareValuesStringsLexicographic(t *testing.T) {
	cmp, ok := CompareValues(NewStringValue("a"), NewStringValue("b"))
	require.True(t, ok)
	require.Equal(t, -1, cmp)
}

func TestCompareValuesCrossTypeNotOrderable(t *testing.T) {
	_, ok := CompareValues(NewNumber(1), NewStringValue("1"))
	require.False(t, ok)
}

func TestHashValueUnhashableTypesReturnFalse(t *testing.T) {
	_, ok := HashValue(NewArrayValue(nil))
	require.False(t, ok)

	_, ok = HashValue(NewNumber(1))
	require.True(t, ok)
}

func TestMapObjSetGetDeletePreservesInsertionOrder(t *testing.T) {
	m := NewMapValue()
	require.NoError(t, m.Set(NewStringValue("a"), NewNumber(1)))
	require.NoError(t, m.Set(NewStringValue("b"), NewNumber(2)))

	v, ok := m.Get(NewStringValue("a"))
	require.True(t, ok)
	require.Equal(t, NewNumber(1), v)

	require.Equal(t, 2, m.Len())
	require.True(t, m.Delete(NewStringValue("a")))
	require.Equal(t, 1, m.Len())

	k, v, ok := m.EntryAt(0)
	require.True(t, ok)
	require.Equal(t, "b", k.String())
	require.Equal(t, NewNumber(2), v)
}

func TestMapObjSetRejectsUnhashableKey(t *testing.T) {
	m := NewMapValue()
	err := m.Set(NewArrayValue(nil), NewNumber(1))
	require.Error(t, err)
}

func TestIsTruthy(t *testing.T) {
	require.False(t, IsTruthy(Null))
	require.False(t, IsTruthy(Bool(false)))
	require.True(t, IsTruthy(Bool(true)))
	require.True(t, IsTruthy(NewNumber(0)))
	require.True(t, IsTruthy(NewStringValue("")))
}

func TestTypeNameForNilAndConcrete(t *testing.T) {
	require.Equal(t, "NULL", TypeName(nil))
	require.Equal(t, "NUMBER", TypeName(NewNumber(1)))
}
