// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>.  cmd/web builds
// the components with their collaborators, registers them here, and calls
// Mount, which attaches every component's Routes() at “/<name>”.  The
// registry is a value, not a global, so tests can mount a single component.

package component

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes() returns the component's sub-router, e.g.:
//
//	r := chi.NewRouter()
//	r.Get("/login", getLogin)
//	r.Post("/login", postLogin)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
}

// Registry holds components by name.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: map[string]Component{}}
}

// Register adds c.  Names must be unique and non-empty.
func (reg *Registry) Register(c Component) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("component: empty name")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, dup := reg.items[name]; dup {
		return fmt.Errorf("component: %q already registered", name)
	}
	reg.items[name] = c
	return nil
}

// All returns every registered component sorted by name.
func (reg *Registry) All() []Component {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.items))
	for n := range reg.items {
		names = append(names, n)
	}
	slices.Sort(names)

	out := make([]Component, 0, len(names))
	for _, n := range names {
		out = append(out, reg.items[n])
	}
	return out
}

// Mount attaches each component under “/<name>”.
func (reg *Registry) Mount(r chi.Router) {
	for _, c := range reg.All() {
		r.Mount("/"+c.Name(), c.Routes())
	}
}
