package response

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNameTaken is returned when a name is already held by a different
	// tracked response.
	ErrNameTaken = errors.New("response name already tracked")
)

// Registry tracks responses by identity name so handlers and hooks can find
// and merge each other's output within a single request. A Registry is
// request scoped; nothing in it survives the response being written.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	responses map[string]*Response
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{responses: map[string]*Response{}}
}

// Track registers r under its identity name. Tracking the same response
// again is a no-op; a name held by a different response is an error.
func (g *Registry) Track(r *Response) error {
	if r == nil {
		return errors.New("track nil response")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.responses[r.name]; ok && cur != r {
		return fmt.Errorf("track %q: %w", r.name, ErrNameTaken)
	}
	g.responses[r.name] = r
	r.registry = g

	return nil
}

// Get returns the tracked response with the given name.
func (g *Registry) Get(name string) (*Response, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.responses[name]

	return r, ok
}

// Remove drops the tracked response with the given name and reports whether
// an entry existed.
func (g *Registry) Remove(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.responses[name]
	if !ok {
		return false
	}
	delete(g.responses, name)
	r.registry = nil

	return true
}

// Names returns the tracked identity names in sorted order.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.responses))
	for name := range g.responses {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

// Len returns the number of tracked responses.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.responses)
}

// Clear drops every tracked response.
func (g *Registry) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for name, r := range g.responses {
		r.registry = nil
		delete(g.responses, name)
	}
}

// rename moves r to name, keeping the one-name-one-response invariant.
func (g *Registry) rename(r *Response, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.responses[name]; ok && cur != r {
		return fmt.Errorf("rename to %q: %w", name, ErrNameTaken)
	}
	delete(g.responses, r.name)
	r.name = name
	g.responses[name] = r

	return nil
}
