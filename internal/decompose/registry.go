package decompose

import (
	"fmt"
	"sync"

	"github.com/ltikhonov/primordia/internal/model"
)

// Registry maps domain tags to algorithms. Registries are plain
// objects handed to whoever needs one; there is no package-level
// instance.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[model.Domain]Algorithm
	order      []model.Domain
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[model.Domain]Algorithm)}
}

// Register adds an algorithm under its own domain tag. Re-registering
// a domain replaces the algorithm and keeps its original position.
func (r *Registry) Register(a Algorithm) error {
	if a == nil {
		return fmt.Errorf("cannot register a nil algorithm")
	}
	domain := a.Domain()
	if domain == "" {
		return fmt.Errorf("algorithm has no domain tag")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.algorithms[domain]; !exists {
		r.order = append(r.order, domain)
	}
	r.algorithms[domain] = a
	return nil
}

// Lookup resolves the algorithm for a domain.
func (r *Registry) Lookup(domain model.Domain) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algorithms[domain]
	if !ok {
		return nil, fmt.Errorf("%w: no algorithm for domain %q", ErrAlgorithmNotRegistered, domain)
	}
	return a, nil
}

// Domains returns the registered domains in registration order.
func (r *Registry) Domains() []model.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Domain, len(r.order))
	copy(out, r.order)
	return out
}
