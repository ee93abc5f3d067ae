package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	cfg := NewConfig()
	cfg.SetBool("vm.repl_mode", true) // bare expression statements, used throughout these tests to fetch a value
	e := NewEngine(cfg, nil)
	RegisterDefaultBuiltins(e)
	return e
}

func run(t *testing.T, e *Engine, src string) Value {
	t.Helper()
	v, err := e.Execute([]byte(src), "<test>")
	require.NoError(t, err)
	return v
}

// Scenario A: constant-folding-free arithmetic with standard precedence.
func TestEngineArithmeticPrecedence(t *testing.T) {
	e := newTestEngine()
	run(t, e, "const x = 2 + 3 * 4")
	v := run(t, e, "x")
	require.Equal(t, NewNumber(14), v)
}

// Scenario B: recursion through a self-referencing named function literal.
func TestEngineRecursiveFactorial(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `const f = fn(n){ if (n <= 1) { return 1 } return n * f(n - 1) } f(6)`)
	require.Equal(t, NewNumber(720), v)
}

// Scenario C: independently-captured closures over a mutable free variable.
func TestEngineIndependentClosures(t *testing.T) {
	e := newTestEngine()
	run(t, e, `const mk = fn(){ var c = 0; return fn(){ c = c + 1; return c } }`)
	run(t, e, `const a = mk(); a(); a();`)
	v := run(t, e, `a()`)
	require.Equal(t, NewNumber(3), v)

	v = run(t, e, `const b = mk(); b()`)
	require.Equal(t, NewNumber(1), v)
}

// Scenario D: foreach over a map, accessing key/value through dot sugar.
func TestEngineForeachOverMap(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `const m = { "a": 1, "b": 2 }; var s = 0; for (kv in m) { s = s + kv.value } s`)
	require.Equal(t, NewNumber(3), v)
}

// Scenario E: recover catches a native-raised runtime error.
func TestEngineRecoverFromCrash(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `fn g(){ recover (e) { return "caught: " + e } crash("boom") } g()`)
	s, ok := v.(*StringObj)
	require.True(t, ok, "expected a string result, got %T", v)
	require.Equal(t, "caught: boom", s.Value)
}

// Scenario F: array index assignment, and a runtime type-mismatch error.
func TestEngineArrayIndexAssignment(t *testing.T) {
	e := newTestEngine()
	v := run(t, e, `var a = [10, 20, 30]; a[1] = a[0] + a[2]; a`)
	arr, ok := v.(*ArrayObj)
	require.True(t, ok, "expected an array result, got %T", v)
	require.Len(t, arr.Elements, 3)
	require.Equal(t, NewNumber(10), arr.Elements[0])
	require.Equal(t, NewNumber(40), arr.Elements[1])
	require.Equal(t, NewNumber(30), arr.Elements[2])
}

func TestEngineArrayIndexWithWrongKeyType(t *testing.T) {
	e := newTestEngine()
	run(t, e, `var a = [10, 20, 30]`)
	_, err := e.Execute([]byte(`a["x"] = 1`), "<test>")
	require.Error(t, err)
}

func TestEngineDefineGlobalConstant(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.DefineGlobalConstant("version", NewNumber(7)))
	v := run(t, e, "version")
	require.Equal(t, NewNumber(7), v)
}

func TestEngineCallFromHost(t *testing.T) {
	e := newTestEngine()
	run(t, e, `const double = fn(n){ return n * 2 }`)
	sym, ok := e.comp.symbolTable.Resolve("double")
	require.True(t, ok)
	fnVal := e.vm.globals[sym.Index]
	result, err := e.Call(fnVal, NewNumber(21))
	require.NoError(t, err)
	require.Equal(t, NewNumber(42), result)
}
