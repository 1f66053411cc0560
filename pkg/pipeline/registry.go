package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// registry is a concurrency-safe name to implementation table.
type registry[T any] struct {
	kind  string
	mu    sync.RWMutex
	funcs map[string]T
}

func newRegistry[T any](kind string) *registry[T] {
	return &registry[T]{kind: kind, funcs: make(map[string]T)}
}

// Register adds fn under name. Registering a name twice is an error.
func (r *registry[T]) Register(name string, fn T) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("%s %q already registered", r.kind, name)
	}
	r.funcs[name] = fn
	return nil
}

// Lookup returns the implementation registered under name.
func (r *registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has reports whether name is registered.
func (r *registry[T]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
