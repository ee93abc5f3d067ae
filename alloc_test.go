package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorReusesReclaimedStringRecord(t *testing.T) {
	vm := newTestVM()
	s := vm.alloc.AllocString("garbage")
	vm.gc.Collect(vm) // unreachable, gets swept and reclaimed

	reused := vm.alloc.AllocString("fresh")
	require.Same(t, s, reused)
	require.Equal(t, "fresh", reused.Value)
}

func TestAllocatorReusesReclaimedArrayRecord(t *testing.T) {
	vm := newTestVM()
	arr := vm.alloc.AllocArray([]Value{NewNumber(1)})
	vm.gc.Collect(vm)

	reused := vm.alloc.AllocArray([]Value{NewNumber(2), NewNumber(3)})
	require.Same(t, arr, reused)
	require.Len(t, reused.Elements, 2)
}

func TestAllocatorNewAllocatorStartsEmpty(t *testing.T) {
	a := NewAllocator()
	require.Empty(t, a.live)
}

func TestAllocatorNativeFunctionsAreNotPooled(t *testing.T) {
	vm := newTestVM()
	fn := vm.alloc.AllocNativeFunction("f", func(vm *VM, args []Value) (Value, error) {
		return Null, nil
	}, nil)
	vm.gc.Collect(vm) // unreachable, swept but native functions aren't reclaimed into a pool

	other := vm.alloc.AllocNativeFunction("g", func(vm *VM, args []Value) (Value, error) {
		return Null, nil
	}, nil)
	require.NotSame(t, fn, other)
}
