// Package ready tracks component readiness during startup. Commands are
// rejected until every required component has marked itself ready, replacing
// scattered per-component boolean flags with one queryable aggregate.
package ready

import (
	"sort"
	"sync"
)

type Registry struct {
	mu         sync.RWMutex
	components map[string]bool
}

// New creates a registry with the given required component names, all
// initially not ready.
func New(names ...string) *Registry {
	components := make(map[string]bool, len(names))
	for _, name := range names {
		components[name] = false
	}
	return &Registry{components: components}
}

// MarkReady flags a component as ready. Unknown names are registered on the
// fly so optional components can participate.
func (r *Registry) MarkReady(name string) {
	r.mu.Lock()
	r.components[name] = true
	r.mu.Unlock()
}

func (r *Registry) Ready(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.components[name]
}

// AllReady reports whether every registered component is ready. A registry
// with no components is not ready; startup has not begun.
func (r *Registry) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.components) == 0 {
		return false
	}
	for _, ok := range r.components {
		if !ok {
			return false
		}
	}
	return true
}

// Missing returns the names still not ready, sorted.
func (r *Registry) Missing() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for name, ok := range r.components {
		if !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
