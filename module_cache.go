package ape

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ImportLoader reads the raw bytes of an import target; the engine's
// default implementation reads from the filesystem, but tests and
// embedders can substitute an in-memory loader.
type ImportLoader interface {
	ReadFile(path string) ([]byte, error)
}

// ModuleRecord is what the cache remembers about a module once it has
// been compiled once: the symbols its top-level scope defined, so a
// later import from a different file can re-inject them without
// recompiling (spec.md §4.4's "Modules / import").
type ModuleRecord struct {
	CanonicalPath string
	Name          string // last path component, used as the `name::` prefix
	Symbols       []Symbol
}

// ModuleCache is a canonical-path-keyed cache, loosely grounded on the
// teacher's query.go incremental-query Database but drastically
// simplified: we need neither revision tracking nor dependency
// invalidation, only "have I compiled this file before". It is not
// process-wide: NewEngine creates one per Engine, so a module compiled
// by one Engine is compiled again by another.
type ModuleCache struct {
	mu      sync.Mutex
	records map[string]*ModuleRecord
	loader  ImportLoader
}

func NewModuleCache(loader ImportLoader) *ModuleCache {
	return &ModuleCache{records: map[string]*ModuleRecord{}, loader: loader}
}

// Get returns the cached record for a canonical path, if present.
func (mc *ModuleCache) Get(canonicalPath string) (*ModuleRecord, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	r, ok := mc.records[canonicalPath]
	return r, ok
}

func (mc *ModuleCache) Put(r *ModuleRecord) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.records[r.CanonicalPath] = r
}

// CanonicalImportPath resolves `import "rel/or/abs/path"` relative to
// the importing file's directory, appending the `.bn` extension
// (spec.md §4.4, §6: "Source file extension `.bn`").
func CanonicalImportPath(importPath, fromFile string) string {
	path := importPath
	if !strings.HasSuffix(path, ".bn") {
		path += ".bn"
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	dir := filepath.Dir(fromFile)
	if fromFile == "" {
		dir = "."
	}
	return filepath.Clean(filepath.Join(dir, path))
}

// ModuleName is the last path component used as the `name::symbol`
// prefix for re-exported symbols (spec.md §6).
func ModuleName(canonicalPath string) string {
	base := filepath.Base(canonicalPath)
	return strings.TrimSuffix(base, ".bn")
}

// fileImportLoader is the default ImportLoader, reading from the OS
// filesystem; kept tiny and swappable so host embedders (and tests)
// can substitute an in-memory map without touching disk.
type fileImportLoader struct{}

func (fileImportLoader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
