package ape

// CompileSource takes a source `code` byte slice alongside an instance
// of a configuration object and returns the compiled Program, following
// the same "one function, one Engine, one pipeline run" shape the
// teacher's GrammarFromBytes gave its grammar-transformation pipeline.
// A nil cfg falls back to NewConfig's defaults.
func CompileSource(code []byte, file string, cfg *Config) (*Program, error) {
	e := NewEngine(cfg, nil)
	return e.Compile(code, file)
}

// CompileFile takes a source file `path` alongside an instance of a
// configuration object and returns the compiled Program.
func CompileFile(path string, cfg *Config) (*Program, error) {
	e := NewEngine(cfg, nil)
	return e.CompileFile(path)
}

// ExecuteSource compiles and runs `code` in one step, returning the
// value the top-level block produced.
func ExecuteSource(code []byte, file string, cfg *Config) (Value, error) {
	e := NewEngine(cfg, nil)
	return e.Execute(code, file)
}

// ExecuteFile compiles and runs the source file at `path` in one step.
func ExecuteFile(path string, cfg *Config) (Value, error) {
	e := NewEngine(cfg, nil)
	return e.ExecuteFile(path)
}
