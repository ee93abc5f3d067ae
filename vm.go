package ape

import (
	"errors"
	"math"
)

// errHalted is the sentinel a dispatch loop returns once an error has
// propagated all the way to "no recover frame found" (spec.md §4.6): by
// that point vm.errors already has the diagnostic and every frame has
// been unwound, so every caller on the Go call stack just needs to stop
// and pass the sentinel upward without re-wrapping it.
var errHalted = errors.New("ape: unhandled runtime error")

// magic operator-overload keys (spec.md §4.6 "operator overloading"):
// a binary/unary op whose operand is a MAP carrying one of these keys
// dispatches to that function instead of the builtin implementation.
const (
	opKeyAdd    = "__operator_add__"
	opKeySub    = "__operator_sub__"
	opKeyMul    = "__operator_mul__"
	opKeyDiv    = "__operator_div__"
	opKeyMod    = "__operator_mod__"
	opKeyOr     = "__operator_or__"
	opKeyXor    = "__operator_xor__"
	opKeyAnd    = "__operator_and__"
	opKeyLShift = "__operator_lshift__"
	opKeyRShift = "__operator_rshift__"
	opKeyMinus  = "__operator_minus__"
	opKeyBang   = "__operator_bang__"
	opKeyCmp    = "__cmp__"
)

var magicOperatorNames = []string{
	opKeyAdd, opKeySub, opKeyMul, opKeyDiv, opKeyMod,
	opKeyOr, opKeyXor, opKeyAnd, opKeyLShift, opKeyRShift,
	opKeyMinus, opKeyBang, opKeyCmp,
}

// VM is the stack machine spec.md §4.6 describes. Every slice is
// pre-sized from Config at construction and indexed by a plain int
// cursor rather than grown with append, the way the teacher's
// vm_stack.go manages its frame stack — except frames themselves, which
// (since frame.go dropped its FrameStack wrapper) the VM now owns
// directly as a raw slice + index so gc.go's roots() can reach
// vm.frames/vm.frameIdx without an extra layer of indirection.
type VM struct {
	constants []Value

	natives     []*NativeFunctionObj
	nativeNames map[string]int

	globals      []Value
	globalsCount int

	frames   []*Frame
	frameIdx int

	stack []Value
	sp    int

	thisStack []Value
	thisSP    int

	lastPopped Value

	operatorKeys      []Value
	operatorKeyByName map[string]*StringObj

	alloc *Allocator
	gc    *GC

	errors *ErrorList
}

// NewVM wires up a VM from Config's fixed stack sizes (spec.md §3 "VM
// state") and the engine's shared allocator/error list.
func NewVM(cfg *Config, alloc *Allocator, errs *ErrorList) *VM {
	vm := &VM{
		nativeNames: map[string]int{},
		globals:     make([]Value, cfg.GetInt("vm.globals_size")),
		frames:      make([]*Frame, cfg.GetInt("vm.frame_stack_size")),
		stack:       make([]Value, cfg.GetInt("vm.value_stack_size")),
		thisStack:   make([]Value, cfg.GetInt("vm.this_stack_size")),
		alloc:       alloc,
		errors:      errs,
	}
	vm.gc = NewGC(alloc, cfg.GetInt("vm.gc_interval"))
	vm.internOperatorKeys()
	return vm
}

func (vm *VM) internOperatorKeys() {
	vm.operatorKeyByName = make(map[string]*StringObj, len(magicOperatorNames))
	for _, name := range magicOperatorNames {
		s := vm.alloc.AllocString(name)
		s.pinned = true
		vm.operatorKeyByName[name] = s
		vm.operatorKeys = append(vm.operatorKeys, s)
	}
}

// RegisterNative adds a host function to the native registry (GC root
// #2) and returns its index, which the caller then binds into a
// Compiler via DefineNativeFunction so GET_NATIVE_FUNCTION can find it.
func (vm *VM) RegisterNative(name string, fn NativeFunc, data interface{}) int {
	obj := vm.alloc.AllocNativeFunction(name, fn, data)
	obj.pinned = true
	idx := len(vm.natives)
	vm.natives = append(vm.natives, obj)
	vm.nativeNames[name] = idx
	return idx
}

func (vm *VM) NativeIndex(name string) (int, bool) {
	idx, ok := vm.nativeNames[name]
	return idx, ok
}

func (vm *VM) Allocator() *Allocator { return vm.alloc }

// Globals exposes the live global slots (e.g. for a REPL that wants to
// print top-level bindings); it does not copy, so callers must treat it
// as read-only.
func (vm *VM) Globals() []Value { return vm.globals[:vm.globalsCount] }

func (vm *VM) SetGlobalsCount(n int) { vm.globalsCount = n }

// ---- value-stack / this-stack primitives ----

func (vm *VM) push(v Value) error {
	if vm.sp >= len(vm.stack) {
		return vm.raise(NewError(RuntimeErrorKind, invalidPosition, "value stack overflow"))
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.lastPopped = v
	return v
}

func (vm *VM) peek(distance int) Value { return vm.stack[vm.sp-1-distance] }

func (vm *VM) pushThis(v Value) error {
	if vm.thisSP >= len(vm.thisStack) {
		return vm.raise(NewError(RuntimeErrorKind, invalidPosition, "this stack overflow"))
	}
	vm.thisStack[vm.thisSP] = v
	vm.thisSP++
	return nil
}

func (vm *VM) popThis() Value {
	vm.thisSP--
	v := vm.thisStack[vm.thisSP]
	vm.thisStack[vm.thisSP] = nil
	return v
}

func (vm *VM) topThis() Value {
	if vm.thisSP == 0 {
		return Null
	}
	return vm.thisStack[vm.thisSP-1]
}

// ---- frame management ----

func (vm *VM) pushFrame(fn *FunctionObj, basePointer int) error {
	if vm.frameIdx >= len(vm.frames) {
		return vm.raise(NewError(RuntimeErrorKind, invalidPosition, "call stack overflow"))
	}
	extra := fn.Template.NumLocals - (vm.sp - basePointer)
	needed := vm.sp + extra
	if extra > 0 && needed > len(vm.stack) {
		return vm.raise(NewError(RuntimeErrorKind, invalidPosition, "value stack overflow"))
	}
	vm.frames[vm.frameIdx] = NewFrame(fn, basePointer)
	vm.frameIdx++
	for i := 0; i < extra; i++ {
		vm.stack[vm.sp] = Null
		vm.sp++
	}
	return nil
}

// doReturn implements RETURN/RETURN_VALUE's shared tail: pop the active
// frame, restore sp to the callee's slot (basePointer-1, where
// callValue pushed it), and push the result there (spec.md §4.6's
// CALL/RETURN stack discipline).
// The top-level entry frame (basePointer 0, never reached through
// CALL) has no callee slot to remove, so it's special-cased to land on
// sp == 0 rather than underflowing to -1.
func (vm *VM) doReturn(value Value) error {
	frame := vm.frames[vm.frameIdx-1]
	basePointer := frame.BasePointer
	vm.frameIdx--
	vm.frames[vm.frameIdx] = nil
	if basePointer == 0 {
		vm.sp = 0
	} else {
		vm.sp = basePointer - 1
	}
	if value == nil {
		value = Null
	}
	return vm.push(value)
}

// ---- entry points ----

// Run executes p.Main as a fresh top-level call and returns its result.
// globalsCount is the compiler's current MaxNumDefinitions for the
// global scope, letting globals grow across successive REPL compiles.
func (vm *VM) Run(p *Program, globalsCount int) (Value, error) {
	vm.constants = p.Constants
	vm.globalsCount = globalsCount
	main := &FunctionObj{Template: p.Main}
	if err := vm.pushFrame(main, vm.sp); err != nil {
		return nil, err
	}
	if err := vm.run(0); err != nil {
		return nil, err
	}
	// The top-level block always ends in a bare RETURN (doReturn pushes
	// Null for it), so the stack top is never the program's result — the
	// last ExpressionStatement's value went through lastPopped when its
	// trailing POP ran, which is what original ape's vm_get_last_popped
	// (_examples/original_source/src/vm.c) returns too.
	if vm.lastPopped == nil {
		return Null, nil
	}
	return vm.lastPopped, nil
}

// run dispatches instructions until the frame stack depth falls back to
// stopDepth — 0 for a fresh top-level Run, or the depth captured before
// a reentrant callValue for a nested call from the host or from an
// operator overload.
func (vm *VM) run(stopDepth int) error {
	for vm.frameIdx > stopDepth {
		frame := vm.frames[vm.frameIdx-1]
		ins := frame.Instructions()
		if frame.IP >= len(ins) {
			if err := vm.doReturn(Null); err != nil {
				return err
			}
			continue
		}
		op := Opcode(ins[frame.IP])
		pos := invalidPosition
		if frame.IP < len(frame.Function.Template.Positions) {
			pos = frame.Function.Template.Positions[frame.IP]
		}
		operands, width := ReadOperands(op, ins, frame.IP+1)
		frame.IP += 1 + width

		if err := vm.execute(frame, op, operands, pos); err != nil {
			return err
		}

		vm.gc.Tick(vm)
	}
	return nil
}

// callValue invokes fn (a script FunctionObj or a NativeFunctionObj)
// with args and runs it to completion, used both by the CALL opcode and
// by operator-overload dispatch. For a script function this pushes the
// callee and its args, pushes a frame whose basePointer is the first
// arg (so the callee sits at basePointer-1, where doReturn expects it),
// and reenters run() at the current depth.
func (vm *VM) callValue(fn Value, args []Value, pos SourcePosition) (Value, error) {
	switch callee := fn.(type) {
	case *FunctionObj:
		if callee.Template.NumArgs != len(args) {
			return nil, vm.raise(NewErrorf(RuntimeErrorKind, pos,
				"wrong number of arguments to %s: want %d, got %d",
				calleeDisplayName(callee), callee.Template.NumArgs, len(args)))
		}
		if err := vm.push(callee); err != nil {
			return nil, err
		}
		for _, a := range args {
			if err := vm.push(a); err != nil {
				return nil, err
			}
		}
		basePointer := vm.sp - len(args)
		stopDepth := vm.frameIdx
		if err := vm.pushFrame(callee, basePointer); err != nil {
			return nil, err
		}
		if err := vm.run(stopDepth); err != nil {
			return nil, err
		}
		return vm.pop(), nil

	case *NativeFunctionObj:
		result, callErr := callee.Fn(vm, args)
		if callErr != nil {
			var tb []TracebackEntry
			if callee.Name != "crash" {
				tb = []TracebackEntry{{FunctionName: callee.Name, Pos: pos}}
			}
			if err := vm.raise(&Error{Kind: RuntimeErrorKind, Pos: pos, Message: callErr.Error(), Traceback: tb}); err != nil {
				return nil, err
			}
			// Recovered: raise already pushed the error value onto the
			// stack. Pop it back into result so execCall's push mirrors
			// the script-call branch above (pop, then the caller
			// re-pushes) instead of pushing a second value on top of it.
			return vm.pop(), nil
		}
		if result == nil {
			result = Null
		}
		return result, nil

	default:
		return nil, vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot call value of type %s", TypeName(fn)))
	}
}

func calleeDisplayName(fn *FunctionObj) string {
	if fn.Template.Name != "" {
		return fn.Template.Name
	}
	return "<anonymous>"
}

// ---- recover / unwind (spec.md §4.6) ----

// raise is the single path every runtime failure in execute() funnels
// through. It appends the live frame stack's traceback to e, then scans
// frames top-down for the nearest one with a recover installed
// (RecoverIP >= 0) that isn't already mid-recovery. Found: pop every
// frame above it, push an error value, and resume at RecoverIP. Not
// found: record e on the engine's error list and halt — every frame is
// discarded and errHalted propagates out through every nested run().
func (vm *VM) raise(e *Error) error {
	e.Traceback = append(e.Traceback, vm.captureTraceback()...)

	for i := vm.frameIdx - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.RecoverIP < 0 || f.IsRecovering {
			continue
		}
		if i+1 < vm.frameIdx {
			vm.sp = vm.frames[i+1].BasePointer - 1
		}
		for vm.frameIdx > i+1 {
			vm.frameIdx--
			vm.frames[vm.frameIdx] = nil
		}
		f.IsRecovering = true
		errVal := vm.alloc.AllocError(e.Message, e.Traceback)
		if err := vm.push(errVal); err != nil {
			return err
		}
		f.IP = f.RecoverIP
		return nil
	}

	vm.errors.Add(e)
	vm.frameIdx = 0
	vm.sp = 0
	vm.thisSP = 0
	return errHalted
}

func (vm *VM) captureTraceback() []TracebackEntry {
	out := make([]TracebackEntry, 0, vm.frameIdx)
	for i := vm.frameIdx - 1; i >= 0; i-- {
		f := vm.frames[i]
		ip := f.IP
		if ip > 0 {
			ip--
		}
		pos := invalidPosition
		if ip >= 0 && ip < len(f.Function.Template.Positions) {
			pos = f.Function.Template.Positions[ip]
		}
		out = append(out, TracebackEntry{FunctionName: calleeDisplayName(f.Function), Pos: pos})
	}
	return out
}

// ---- operator overloading (spec.md §4.6) ----

func (vm *VM) operatorKey(name string) Value { return vm.operatorKeyByName[name] }

// tryBinaryOverload looks for `name` on left's map first, then right's
// (spec.md: "the left operand's map is tried first, then the right's"),
// and if found calls it with (left, right) regardless of which side
// supplied the method.
func (vm *VM) tryBinaryOverload(name string, left, right Value) (Value, bool, error) {
	if m, ok := left.(*MapObj); ok {
		if fn, found := m.Get(vm.operatorKey(name)); found {
			v, err := vm.callValue(fn, []Value{left, right}, invalidPosition)
			return v, true, err
		}
	}
	if m, ok := right.(*MapObj); ok {
		if fn, found := m.Get(vm.operatorKey(name)); found {
			v, err := vm.callValue(fn, []Value{left, right}, invalidPosition)
			return v, true, err
		}
	}
	return nil, false, nil
}

func (vm *VM) tryUnaryOverload(name string, operand Value) (Value, bool, error) {
	if m, ok := operand.(*MapObj); ok {
		if fn, found := m.Get(vm.operatorKey(name)); found {
			v, err := vm.callValue(fn, []Value{operand}, invalidPosition)
			return v, true, err
		}
	}
	return nil, false, nil
}

// ---- assignment type check (spec.md §4.6: "SET_GLOBAL/SET_LOCAL and
// SET_INDEX on maps require the old and new value to share a type;
// null is always allowed on either side. This is the only place the VM
// enforces typing.") ----

func typesCompatible(old, next Value) bool {
	if old == nil || next == nil {
		return true
	}
	if _, ok := old.(nullType); ok {
		return true
	}
	if _, ok := next.(nullType); ok {
		return true
	}
	return old.Type() == next.Type()
}

// ---- main dispatch ----

func (vm *VM) execute(frame *Frame, op Opcode, operands []int, pos SourcePosition) error {
	switch op {
	case OpConstant:
		return vm.push(vm.constants[operands[0]])
	case OpNumber:
		return vm.push(NewNumber(math.Float64frombits(uint64(operands[0]))))
	case OpTrue:
		return vm.push(True)
	case OpFalse:
		return vm.push(False)
	case OpNull:
		return vm.push(Null)
	case OpPop:
		vm.pop()
		return nil
	case OpDup:
		return vm.push(vm.peek(0))

	case OpAdd:
		return vm.execAdd(pos)
	case OpSub:
		return vm.execArith(opKeySub, pos, func(a, b float64) float64 { return a - b })
	case OpMul:
		return vm.execArith(opKeyMul, pos, func(a, b float64) float64 { return a * b })
	case OpDiv:
		return vm.execArith(opKeyDiv, pos, func(a, b float64) float64 { return a / b })
	case OpMod:
		return vm.execArith(opKeyMod, pos, math.Mod)
	case OpBitOr:
		return vm.execBitwise(opKeyOr, pos, func(a, b int64) int64 { return a | b })
	case OpBitXor:
		return vm.execBitwise(opKeyXor, pos, func(a, b int64) int64 { return a ^ b })
	case OpBitAnd:
		return vm.execBitwise(opKeyAnd, pos, func(a, b int64) int64 { return a & b })
	case OpLShift:
		return vm.execBitwise(opKeyLShift, pos, func(a, b int64) int64 { return a << uint(b) })
	case OpRShift:
		return vm.execBitwise(opKeyRShift, pos, func(a, b int64) int64 { return a >> uint(b) })

	case OpMinus:
		return vm.execMinus(pos)
	case OpBang:
		return vm.execBang(pos)

	case OpCompare:
		return vm.execCompare(pos)
	case OpEqual:
		return vm.execBoolFromCompare(func(n float64) bool { return n == 0 }, false)
	case OpNotEqual:
		return vm.execBoolFromCompare(func(n float64) bool { return n != 0 }, true)
	case OpGT:
		return vm.execOrderedCompare(pos, func(n float64) bool { return n > 0 })
	case OpGTE:
		return vm.execOrderedCompare(pos, func(n float64) bool { return n >= 0 })

	case OpJump:
		frame.IP = operands[0]
		return nil
	case OpJumpIfFalse:
		v := vm.pop()
		if !IsTruthy(v) {
			frame.IP = operands[0]
		}
		return nil
	case OpJumpIfTrue:
		v := vm.pop()
		if IsTruthy(v) {
			frame.IP = operands[0]
		}
		return nil

	case OpDefineGlobal:
		idx := operands[0]
		v := vm.pop()
		if idx >= len(vm.globals) {
			return vm.raise(NewError(RuntimeErrorKind, pos, "too many global variables"))
		}
		vm.globals[idx] = v
		return nil
	case OpSetGlobal:
		idx := operands[0]
		v := vm.pop()
		old := vm.globals[idx]
		if !typesCompatible(old, v) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos,
				"cannot assign %s to a variable holding %s", TypeName(v), TypeName(old)))
		}
		vm.globals[idx] = v
		return nil
	case OpGetGlobal:
		return vm.push(vm.globals[operands[0]])

	case OpDefineLocal:
		vm.stack[frame.BasePointer+operands[0]] = vm.pop()
		return nil
	case OpSetLocal:
		slot := frame.BasePointer + operands[0]
		v := vm.pop()
		old := vm.stack[slot]
		if !typesCompatible(old, v) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos,
				"cannot assign %s to a variable holding %s", TypeName(v), TypeName(old)))
		}
		vm.stack[slot] = v
		return nil
	case OpGetLocal:
		return vm.push(vm.stack[frame.BasePointer+operands[0]])

	case OpGetNativeFunction:
		return vm.push(vm.natives[operands[0]])

	case OpGetFree:
		return vm.push(frame.Function.Free[operands[0]].Value)
	case OpSetFree:
		frame.Function.Free[operands[0]].Value = vm.pop()
		return nil

	case OpCurrentFunction:
		return vm.push(frame.Function)
	case OpGetThis:
		return vm.push(vm.topThis())

	case OpArray:
		n := operands[0]
		elems := make([]Value, n)
		copy(elems, vm.stack[vm.sp-n:vm.sp])
		vm.sp -= n
		return vm.push(vm.alloc.AllocArray(elems))

	case OpMapStart:
		return vm.pushThis(vm.alloc.AllocMap())
	case OpMapEnd:
		return vm.execMapEnd(operands[0], pos)

	case OpGetIndex:
		return vm.execGetIndex(pos)
	case OpSetIndex:
		return vm.execSetIndex(pos)
	case OpGetValueAt:
		return vm.execGetValueAt(pos)

	case OpCall:
		return vm.execCall(operands[0], pos)
	case OpReturn:
		return vm.doReturn(Null)
	case OpReturnValue:
		return vm.doReturn(vm.pop())

	case OpFunction:
		return vm.execMakeFunction(operands[0], operands[1])

	case OpLen:
		return vm.execLen(pos)

	case OpSetRecover:
		frame.RecoverIP = operands[0]
		return nil

	default:
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "unknown opcode %s", op))
	}
}

// ---- opcode bodies ----

func (vm *VM) execAdd(pos SourcePosition) error {
	right := vm.pop()
	left := vm.pop()
	if result, handled, err := vm.tryBinaryOverload(opKeyAdd, left, right); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	if ls, ok := left.(*StringObj); ok {
		if rs, ok2 := right.(*StringObj); ok2 {
			return vm.push(vm.alloc.AllocString(ls.Value + rs.Value))
		}
		// A recovered error concatenates as its message, so
		// `"caught: " + e` inside a recover block reads naturally
		// instead of surfacing the error's Go-ish String() form.
		if re, ok2 := right.(*ErrorObj); ok2 {
			return vm.push(vm.alloc.AllocString(ls.Value + re.Message))
		}
	}
	if re, ok := left.(*ErrorObj); ok {
		if rs, ok2 := right.(*StringObj); ok2 {
			return vm.push(vm.alloc.AllocString(re.Message + rs.Value))
		}
	}
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot add %s and %s", TypeName(left), TypeName(right)))
	}
	return vm.push(NewNumber(float64(ln) + float64(rn)))
}

func (vm *VM) execArith(magicKey string, pos SourcePosition, fn func(a, b float64) float64) error {
	right := vm.pop()
	left := vm.pop()
	if result, handled, err := vm.tryBinaryOverload(magicKey, left, right); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot apply arithmetic to %s and %s", TypeName(left), TypeName(right)))
	}
	return vm.push(NewNumber(fn(float64(ln), float64(rn))))
}

func (vm *VM) execBitwise(magicKey string, pos SourcePosition, fn func(a, b int64) int64) error {
	right := vm.pop()
	left := vm.pop()
	if result, handled, err := vm.tryBinaryOverload(magicKey, left, right); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot apply bitwise operator to %s and %s", TypeName(left), TypeName(right)))
	}
	return vm.push(NewNumber(float64(fn(int64(ln), int64(rn)))))
}

func (vm *VM) execMinus(pos SourcePosition) error {
	v := vm.pop()
	if result, handled, err := vm.tryUnaryOverload(opKeyMinus, v); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	n, ok := v.(Number)
	if !ok {
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot negate value of type %s", TypeName(v)))
	}
	return vm.push(NewNumber(-float64(n)))
}

func (vm *VM) execBang(pos SourcePosition) error {
	v := vm.pop()
	if result, handled, err := vm.tryUnaryOverload(opKeyBang, v); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	return vm.push(Bool(!IsTruthy(v)))
}

// execCompare implements COMPARE (spec.md §4.6): pushes a numeric
// ordering that EQUAL/NOT_EQUAL/GT/GTE then interpret. Two values whose
// types make ordering meaningless push NaN rather than raising — `==`
// and `!=` treat NaN as "not equal" (ordinary dynamic-language
// semantics: comparing unlike types for equality is false, not a
// crash), while `<`/`>`/`<=`/`>=` on that same NaN do raise, since an
// order between incomparable types is never meaningful.
func (vm *VM) execCompare(pos SourcePosition) error {
	right := vm.pop()
	left := vm.pop()
	if result, handled, err := vm.tryBinaryOverload(opKeyCmp, left, right); handled {
		if err != nil {
			return err
		}
		return vm.push(result)
	}
	cmp, ok := CompareValues(left, right)
	if !ok {
		return vm.push(NewNumber(math.NaN()))
	}
	return vm.push(NewNumber(float64(cmp)))
}

func (vm *VM) execBoolFromCompare(test func(float64) bool, resultOnNaN bool) error {
	v := vm.pop()
	n, ok := v.(Number)
	if !ok || math.IsNaN(float64(n)) {
		return vm.push(Bool(resultOnNaN))
	}
	return vm.push(Bool(test(float64(n))))
}

func (vm *VM) execOrderedCompare(pos SourcePosition, test func(float64) bool) error {
	v := vm.pop()
	n, ok := v.(Number)
	if !ok || math.IsNaN(float64(n)) {
		return vm.raise(NewError(RuntimeErrorKind, pos, "values are not ordered"))
	}
	return vm.push(Bool(test(float64(n))))
}

func (vm *VM) execGetIndex(pos SourcePosition) error {
	index := vm.pop()
	left := vm.pop()
	v, err := vm.getIndex(left, index, pos)
	if err != nil {
		return vm.raise(err)
	}
	return vm.push(v)
}

func (vm *VM) getIndex(left, index Value, pos SourcePosition) (Value, *Error) {
	switch l := left.(type) {
	case *ArrayObj:
		n, ok := index.(Number)
		if !ok {
			return nil, NewErrorf(RuntimeErrorKind, pos, "cannot index %s with %s", TypeName(left), TypeName(index))
		}
		i := int(n)
		if i < 0 || i >= len(l.Elements) {
			return nil, NewErrorf(RuntimeErrorKind, pos, "array index %d out of range", i)
		}
		return l.Elements[i], nil
	case *MapObj:
		v, ok := l.Get(index)
		if !ok {
			return Null, nil
		}
		return v, nil
	case *StringObj:
		n, ok := index.(Number)
		if !ok {
			return nil, NewErrorf(RuntimeErrorKind, pos, "cannot index %s with %s", TypeName(left), TypeName(index))
		}
		i := int(n)
		if i < 0 || i >= len(l.Value) {
			return nil, NewErrorf(RuntimeErrorKind, pos, "string index %d out of range", i)
		}
		return vm.alloc.AllocString(string(l.Value[i])), nil
	default:
		return nil, NewErrorf(RuntimeErrorKind, pos, "cannot index value of type %s", TypeName(left))
	}
}

// execSetIndex pops, in order, the key then the target then the new
// value (compiler.go's VisitAssignExpression pushes value, DUP, target,
// key — see its comment for why the evaluation order is value-first).
func (vm *VM) execSetIndex(pos SourcePosition) error {
	index := vm.pop()
	left := vm.pop()
	newVal := vm.pop()
	switch l := left.(type) {
	case *ArrayObj:
		n, ok := index.(Number)
		if !ok {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot index %s with %s", TypeName(left), TypeName(index)))
		}
		i := int(n)
		if i < 0 || i >= len(l.Elements) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "array index %d out of range", i))
		}
		l.Elements[i] = newVal
		return nil
	case *MapObj:
		if old, existed := l.Get(index); existed && !typesCompatible(old, newVal) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos,
				"cannot assign %s into a map slot holding %s", TypeName(newVal), TypeName(old)))
		}
		if err := l.Set(index, newVal); err != nil {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "%s", err.Error()))
		}
		return nil
	default:
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot index %s for assignment", TypeName(left)))
	}
}

// execGetValueAt backs a foreach iteration step (spec.md §4.4): pops
// the loop index then the source, and for a map produces {key:, value:}
// (the only way a foreach body can see both halves of a pair).
func (vm *VM) execGetValueAt(pos SourcePosition) error {
	idxVal := vm.pop()
	srcVal := vm.pop()
	n, ok := idxVal.(Number)
	if !ok {
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot iterate with index of type %s", TypeName(idxVal)))
	}
	i := int(n)
	switch src := srcVal.(type) {
	case *ArrayObj:
		if i < 0 || i >= len(src.Elements) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "iteration index %d out of range", i))
		}
		return vm.push(src.Elements[i])
	case *StringObj:
		if i < 0 || i >= len(src.Value) {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "iteration index %d out of range", i))
		}
		return vm.push(vm.alloc.AllocString(string(src.Value[i])))
	case *MapObj:
		k, v, ok := src.EntryAt(i)
		if !ok {
			return vm.raise(NewErrorf(RuntimeErrorKind, pos, "iteration index %d out of range", i))
		}
		pair := vm.alloc.AllocMap()
		if err := pair.Set(vm.alloc.AllocString("key"), k); err != nil {
			return vm.raise(NewError(RuntimeErrorKind, pos, err.Error()))
		}
		if err := pair.Set(vm.alloc.AllocString("value"), v); err != nil {
			return vm.raise(NewError(RuntimeErrorKind, pos, err.Error()))
		}
		return vm.push(pair)
	default:
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot iterate over value of type %s", TypeName(srcVal)))
	}
}

func (vm *VM) execMapEnd(n int, pos SourcePosition) error {
	pairs := make([]Value, n)
	copy(pairs, vm.stack[vm.sp-n:vm.sp])
	vm.sp -= n
	m := vm.popThis().(*MapObj)
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := m.Set(pairs[i], pairs[i+1]); err != nil {
			return vm.raise(NewError(RuntimeErrorKind, pos, err.Error()))
		}
	}
	return vm.push(m)
}

func (vm *VM) execCall(argc int, pos SourcePosition) error {
	calleeVal := vm.peek(argc)
	args := make([]Value, argc)
	copy(args, vm.stack[vm.sp-argc:vm.sp])
	vm.sp -= argc + 1
	result, err := vm.callValue(calleeVal, args, pos)
	if err != nil {
		return err
	}
	return vm.push(result)
}

func (vm *VM) execMakeFunction(constIdx, nfree int) error {
	holder := vm.constants[constIdx].(*FunctionObj)
	free := make([]*Cell, nfree)
	base := vm.sp - nfree
	for i := 0; i < nfree; i++ {
		free[i] = &Cell{Value: vm.stack[base+i]}
	}
	vm.sp -= nfree
	return vm.push(vm.alloc.AllocFunction(holder.Template, free))
}

func (vm *VM) execLen(pos SourcePosition) error {
	v := vm.pop()
	switch x := v.(type) {
	case *ArrayObj:
		return vm.push(NewNumber(float64(len(x.Elements))))
	case *MapObj:
		return vm.push(NewNumber(float64(x.Len())))
	case *StringObj:
		return vm.push(NewNumber(float64(len(x.Value))))
	default:
		return vm.raise(NewErrorf(RuntimeErrorKind, pos, "cannot take length of %s", TypeName(v)))
	}
}
