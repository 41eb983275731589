package configvars

import "sync"

// Registry keeps resolved variables in first-registration order. Registering
// a name again replaces its record without moving it.
type Registry struct {
	mu    sync.RWMutex
	order []string
	vars  map[string]ConfigVariable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		vars: make(map[string]ConfigVariable),
	}
}

// Register stores v under v.Name.
func (r *Registry) Register(v ConfigVariable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vars[v.Name]; !exists {
		r.order = append(r.order, v.Name)
	}
	r.vars[v.Name] = v
}

// Get returns the record for name.
func (r *Registry) Get(name string) (ConfigVariable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vars[name]
	return v, ok
}

// Variables returns a copy of all records in registration order.
func (r *Registry) Variables() []ConfigVariable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ConfigVariable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.vars[name])
	}
	return out
}
