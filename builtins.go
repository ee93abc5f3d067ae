package ape

import "fmt"

// RegisterDefaultBuiltins binds the minimal native-function set every
// engine starts with: len, print, type, error and crash. Grounded on
// the teacher's grammar_builtin_handler.go, whose AddBuiltins extended
// a fresh grammar with a fixed, always-available set of productions —
// here the fixed set is native Go functions instead of PEG rules, but
// the "one call extends the registry with everything built in" shape
// is the same.
func RegisterDefaultBuiltins(e *Engine) {
	e.RegisterNative("len", nativeLen, nil)
	e.RegisterNative("print", nativePrint, nil)
	e.RegisterNative("type", nativeType, nil)
	e.RegisterNative("error", nativeError, nil)
	e.RegisterNative("crash", nativeCrash, nil)
}

func nativeLen(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case *ArrayObj:
		return NewNumber(float64(len(v.Elements))), nil
	case *MapObj:
		return NewNumber(float64(v.Len())), nil
	case *StringObj:
		return NewNumber(float64(len(v.Value))), nil
	default:
		return nil, fmt.Errorf("cannot take length of %s", TypeName(v))
	}
}

// nativePrint writes every argument's display String() to stdout
// separated by a space and terminated by a newline, returning null —
// the only natively-provided I/O side effect in the default registry
// (spec.md §6's scope keeps everything else host-provided).
func nativePrint(vm *VM, args []Value) (Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(a.String())
	}
	fmt.Println()
	return Null, nil
}

func nativeType(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("type expects 1 argument, got %d", len(args))
	}
	return vm.alloc.AllocString(TypeName(args[0])), nil
}

// nativeError builds an ErrorObj carrying the given message, without
// raising — scripts use it to manufacture a value for `recover` blocks
// to inspect or re-raise, distinct from crash which actually raises.
func nativeError(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("error expects 1 argument, got %d", len(args))
	}
	msg, ok := args[0].(*StringObj)
	if !ok {
		return nil, fmt.Errorf("error expects a string, got %s", TypeName(args[0]))
	}
	return vm.alloc.AllocError(msg.Value, nil), nil
}

// nativeCrash raises a runtime error carrying message, the sole
// builtin the VM's traceback-annotation step special-cases (vm.go's
// callValue skips adding a synthetic native frame for it) so the
// traceback captured on recover reflects only real script frames.
func nativeCrash(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("crash expects 1 argument, got %d", len(args))
	}
	msg, ok := args[0].(*StringObj)
	if !ok {
		return nil, fmt.Errorf("crash expects a string, got %s", TypeName(args[0]))
	}
	return nil, fmt.Errorf("%s", msg.Value)
}
