package dispatch

import (
	"sort"
	"sync"
)

// registry is a named-entry store shared by handler and view registration.
// Safe for concurrent use, so handlers can be added while the dispatcher
// serves.
type registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{entries: map[string]T{}}
}

// set stores v under name and reports false when the name is taken.
func (r *registry[T]) set(name string, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return false
	}
	r.entries[name] = v

	return true
}

// replace stores v under name, displacing any existing entry.
func (r *registry[T]) replace(name string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = v
}

// unset removes name and reports whether an entry existed.
func (r *registry[T]) unset(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)

	return true
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.entries[name]

	return v, ok
}

func (r *registry[T]) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]

	return ok
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}
