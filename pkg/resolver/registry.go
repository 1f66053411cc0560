package resolver

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func resolves a source descriptor.
type Func func(ctx context.Context, req *Request) (Result, error)

// Registry maps resolver names to implementations. It is safe for concurrent
// use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// NewDefaultRegistry returns a registry holding every built-in resolver.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range builtins() {
		r.funcs[name] = fn
	}
	return r
}

// Register adds fn under name. Registering a name twice is an error.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("resolver name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("resolver %q: function cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("resolver %q already registered", name)
	}
	r.funcs[name] = fn
	return nil
}

// Lookup returns the resolver registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
