package ape

// Engine is the host-facing embedding API: it owns one allocator, one
// VM, one Compiler and the module cache they share, and sequences the
// lex -> parse -> compile -> run pipeline the way the teacher's api.go
// sequenced its grammar-transformation pipeline (each stage gated by a
// Config flag, failures short-circuiting the rest). A single Engine is
// meant to live for the lifetime of one embedding session: a REPL keeps
// reusing the same Engine so globals defined on one line stay visible
// on the next, exactly like the teacher's grammar transformations keep
// accumulating onto the same AST across stages.
type Engine struct {
	cfg    *Config
	alloc  *Allocator
	vm     *VM
	comp   *Compiler
	cache  *ModuleCache
	errors *ErrorList

	globalsCount int
}

// NewEngine wires the pipeline together from an optional Config (nil
// uses the defaults from NewConfig) and an optional ImportLoader (nil
// uses the filesystem loader, matching module_cache.go's default).
func NewEngine(cfg *Config, loader ImportLoader) *Engine {
	if cfg == nil {
		cfg = NewConfig()
	}
	if loader == nil {
		loader = fileImportLoader{}
	}
	errs := &ErrorList{}
	alloc := NewAllocator()
	cache := NewModuleCache(loader)
	return &Engine{
		cfg:    cfg,
		alloc:  alloc,
		vm:     NewVM(cfg, alloc, errs),
		comp:   NewCompiler(alloc, cache, loader),
		cache:  cache,
		errors: errs,
	}
}

func (e *Engine) Config() *Config     { return e.cfg }
func (e *Engine) VM() *VM             { return e.vm }
func (e *Engine) Errors() *ErrorList  { return e.errors }
func (e *Engine) Allocator() *Allocator { return e.alloc }

// RegisterNative exposes a Go function to scripts under name, binding
// it through both the VM's native registry and the compiler's symbol
// table in one call so GET_NATIVE_FUNCTION resolves it on first use
// (spec.md §4.3's "define_native_function").
func (e *Engine) RegisterNative(name string, fn NativeFunc, data interface{}) {
	idx := e.vm.RegisterNative(name, fn, data)
	e.comp.DefineNativeFunction(name, idx)
}

// DefineGlobalConstant pre-registers name as an assignable global and
// places value directly into the VM's global slot, letting a host embed
// constants (e.g. a version string, a config table) before any script
// runs (spec.md §6 "set_global_constant").
func (e *Engine) DefineGlobalConstant(name string, value Value) error {
	sym, err := e.comp.DefineGlobal(name)
	if err != nil {
		return err
	}
	if sym.Index >= len(e.vm.globals) {
		return NewErrorf(RuntimeErrorKind, invalidPosition, "too many globals defined")
	}
	e.vm.globals[sym.Index] = value
	if sym.Index+1 > e.globalsCount {
		e.globalsCount = sym.Index + 1
	}
	return nil
}

// Compile lexes, parses and compiles src (attributing file to every
// position recorded), returning the first parse/compile error found.
// REPL mode is read straight off Config, matching the teacher's own
// "one flag gates one pipeline stage" style in api.go.
func (e *Engine) Compile(src []byte, file string) (*Program, error) {
	replMode := e.cfg.GetBool("vm.repl_mode")
	stmts, errs := ParseProgram(src, file, replMode)
	if errs.HasErrors() {
		for _, pe := range errs.All() {
			e.errors.Add(pe)
		}
		return nil, errs.At(0)
	}
	prog, err := e.comp.Compile(stmts, file)
	if err != nil {
		return nil, err
	}
	if n := e.comp.GlobalCount(); n > e.globalsCount {
		e.globalsCount = n
	}
	return prog, nil
}

// Execute compiles and runs src in one step, returning the last value
// the run popped off the stack: normally the final expression
// statement's value. A statement such as `const x = 5` also pops its
// value. If the run pops nothing, the value from an earlier run on
// this Engine is returned (Null on a fresh Engine).
func (e *Engine) Execute(src []byte, file string) (Value, error) {
	prog, err := e.Compile(src, file)
	if err != nil {
		return nil, err
	}
	return e.Run(prog)
}

// Run executes an already-compiled Program against this Engine's VM,
// for callers (e.g. the CLI's -asm-only path) that need to inspect the
// Program before deciding whether to run it.
func (e *Engine) Run(prog *Program) (Value, error) {
	return e.vm.Run(prog, e.globalsCount)
}

// CompileFile reads path off disk (or through the Engine's loader, for
// an embedder wanting an in-memory filesystem) and compiles it.
func (e *Engine) CompileFile(path string) (*Program, error) {
	data, err := e.cache.loader.ReadFile(path)
	if err != nil {
		return nil, NewErrorf(UserErrorKind, invalidPosition, "can't open %s: %s", path, err.Error())
	}
	return e.Compile(data, path)
}

// ExecuteFile reads and runs path in one step.
func (e *Engine) ExecuteFile(path string) (Value, error) {
	data, err := e.cache.loader.ReadFile(path)
	if err != nil {
		return nil, NewErrorf(UserErrorKind, invalidPosition, "can't open %s: %s", path, err.Error())
	}
	return e.Execute(data, path)
}

// Call invokes a script-level function value from host code — e.g. a
// callback a script registered with the host through a native function
// argument — reusing the VM's own call-dispatch path so it behaves
// exactly like a CALL opcode (spec.md §6 "host may call script
// functions").
func (e *Engine) Call(fn Value, args ...Value) (Value, error) {
	return e.vm.callValue(fn, args, invalidPosition)
}

// Globals exposes the live top-level bindings, handy for a REPL that
// wants to print what got defined on the last line.
func (e *Engine) Globals() []Value { return e.vm.Globals() }
