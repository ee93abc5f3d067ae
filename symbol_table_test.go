package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolTableDefineRejectsColonQualifiedName(t *testing.T) {
	st := NewSymbolTable(nil)
	_, err := st.Define("mod::sym", true)
	require.Error(t, err)
}

// Resolve must still accept and resolve a `module::name` lookup even
// though Define rejects ever binding one directly — those entries are
// only ever produced by the module importer re-injecting another
// file's globals (DESIGN.md's resolve/define `::` asymmetry decision).
func TestSymbolTableResolveAcceptsColonQualifiedNameInjectedByImporter(t *testing.T) {
	st := NewSymbolTable(nil)
	st.top().store["mod::sym"] = Symbol{Name: "mod::sym", Kind: SymbolGlobal, Index: 0, Assignable: true}

	sym, ok := st.Resolve("mod::sym")
	require.True(t, ok)
	require.Equal(t, "mod::sym", sym.Name)
}

func TestSymbolTableResolvePromotesToFreeAcrossFunctionBoundary(t *testing.T) {
	outer := NewSymbolTable(NewSymbolTable(nil)) // a function scope: its x is a local
	outer.Define("x", true)

	inner := NewSymbolTable(outer)
	sym, ok := inner.Resolve("x")
	require.True(t, ok)
	require.Equal(t, SymbolFree, sym.Kind)
	require.Len(t, inner.FreeSymbols(), 1)
}

func TestSymbolTableDefineHiddenBypassesReservedCheck(t *testing.T) {
	st := NewSymbolTable(NewSymbolTable(nil))
	sym := st.DefineHidden("@i", true)
	require.Equal(t, "@i", sym.Name)
	require.True(t, st.IsDefinedHere("@i"))
}
