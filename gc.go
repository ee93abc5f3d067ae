package ape

// GC is a stop-the-world mark-and-sweep collector driven by the VM's
// instruction tick counter (spec.md §4.5). It walks the eight root sets
// named there, marks everything reachable, then sweeps the allocator's
// live list, returning unreachable records to their pool.
type GC struct {
	alloc    *Allocator
	interval int // instructions between collections; <=0 disables
	ticks    int
}

func NewGC(alloc *Allocator, interval int) *GC {
	return &GC{alloc: alloc, interval: interval}
}

// Tick is called once per dispatched instruction. It runs a collection
// and resets the counter once interval is reached.
func (gc *GC) Tick(vm *VM) {
	if gc.interval <= 0 {
		return
	}
	gc.ticks++
	if gc.ticks >= gc.interval {
		gc.ticks = 0
		gc.Collect(vm)
	}
}

// Collect runs one full mark-and-sweep pass over vm's roots.
func (gc *GC) Collect(vm *VM) {
	for _, v := range gc.roots(vm) {
		gc.mark(v)
	}
	gc.sweep()
}

// roots enumerates spec.md §4.5's eight GC roots.
func (gc *GC) roots(vm *VM) []Value {
	var roots []Value

	roots = append(roots, vm.constants...) // 1. constants pool

	for _, nf := range vm.natives { // 2. native-function registry
		if nf != nil {
			roots = append(roots, nf)
		}
	}

	roots = append(roots, vm.globals[:vm.globalsCount]...) // 3. globals

	for _, f := range vm.frames[:vm.frameIdx] { // 4. every frame's function value
		if f.Function != nil {
			roots = append(roots, f.Function)
		}
	}

	roots = append(roots, vm.stack[:vm.sp]...)         // 5a. value stack
	roots = append(roots, vm.thisStack[:vm.thisSP]...) // 5b. this stack

	if vm.lastPopped != nil { // 6. last popped value
		roots = append(roots, vm.lastPopped)
	}

	for _, k := range vm.operatorKeys { // 7. operator-overload key table
		roots = append(roots, k)
	}

	for _, p := range gc.alloc.live { // 8. explicitly pinned objects
		if p.gcPinned() {
			roots = append(roots, p)
		}
	}

	return roots
}

func (gc *GC) mark(v Value) {
	if v == nil {
		return
	}
	hv, ok := v.(heapValue)
	if !ok {
		return // Number/Bool/null carry no heap record
	}
	if hv.gcMarked() {
		return // idempotent: already visited
	}
	hv.gcSetMarked(true)

	switch obj := v.(type) {
	case *ArrayObj:
		for _, e := range obj.Elements {
			gc.mark(e)
		}
	case *MapObj:
		for _, e := range obj.entries {
			if e.deleted {
				continue
			}
			gc.mark(e.key)
			gc.mark(e.value)
		}
	case *FunctionObj:
		for _, cell := range obj.Free {
			if cell != nil {
				gc.mark(cell.Value)
			}
		}
	case *ErrorObj:
		// traceback entries carry no Values
	}
}

// sweep moves survivors into a fresh live list and returns the rest to
// the allocator's per-type pools (spec.md §4.5).
func (gc *GC) sweep() {
	back := make([]heapValue, 0, len(gc.alloc.live))
	for _, v := range gc.alloc.live {
		if v.gcMarked() || v.gcPinned() {
			v.gcSetMarked(false)
			back = append(back, v)
			continue
		}
		gc.alloc.reclaim(v)
	}
	gc.alloc.live = back
}

// Pin marks v as an unconditional GC root (spec.md §6 disable_gc_on_object).
func Pin(v Value) {
	if hv, ok := v.(heapValue); ok {
		hv.gcSetMarked(hv.gcMarked()) // no-op, kept symmetric with Unpin
		setPinned(hv, true)
	}
}

// Unpin reverses Pin (spec.md §6 enable_gc_on_object).
func Unpin(v Value) {
	if hv, ok := v.(heapValue); ok {
		setPinned(hv, false)
	}
}

func setPinned(hv heapValue, pinned bool) {
	switch obj := hv.(type) {
	case *StringObj:
		obj.pinned = pinned
	case *ArrayObj:
		obj.pinned = pinned
	case *MapObj:
		obj.pinned = pinned
	case *FunctionObj:
		obj.pinned = pinned
	case *NativeFunctionObj:
		obj.pinned = pinned
	case *ErrorObj:
		obj.pinned = pinned
	case *ExternalObj:
		obj.pinned = pinned
	}
}
