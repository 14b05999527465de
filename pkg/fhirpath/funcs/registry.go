// Package funcs implements the library of built-in FHIRPath functions
// (existence, filtering, string, math, temporal, FHIR-specific, ...) and
// the registry the evaluator looks them up through by name.
package funcs

import (
	"sort"
	"sync"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
)

// FuncDef aliases eval.FuncDef so callers registering a function don't need
// to import eval directly.
type FuncDef = eval.FuncDef

// Registry is a concurrency-safe, name-keyed table of function
// implementations. The package keeps one global instance (populated by
// each funcs/*.go file's init()), but tests or embedders needing an
// isolated set can build their own with NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]eval.FuncDef
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]eval.FuncDef)}
}

// Register adds or replaces a function definition under def.Name.
func (r *Registry) Register(def eval.FuncDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[def.Name] = def
}

// Get looks up a function definition by name.
func (r *Registry) Get(name string) (eval.FuncDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.funcs[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns every registered function name, sorted for stable output
// (callers like a `functions()` introspection builtin or error messages
// listing "did you mean" candidates shouldn't see map-iteration jitter).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var globalRegistry = NewRegistry()

// Register adds def to the global registry; called from each funcs/*.go
// file's init().
func Register(def eval.FuncDef) {
	globalRegistry.Register(def)
}

// Get looks up a function definition by name in the global registry.
func Get(name string) (eval.FuncDef, bool) {
	return globalRegistry.Get(name)
}

// Has reports whether name is registered in the global registry.
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// List returns every function name registered in the global registry,
// sorted.
func List() []string {
	return globalRegistry.List()
}

// GetRegistry returns the process-wide registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
