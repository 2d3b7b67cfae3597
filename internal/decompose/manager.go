package decompose

import (
	"fmt"
	"sync"

	"github.com/ltikhonov/primordia/internal/model"
)

// Manager owns one registry/catalog pair and dispatches inputs to
// algorithms, auto-detecting the domain when the caller did not name
// one. Construct with NewManager and share freely; every method is
// safe for concurrent use once Initialize has run.
type Manager struct {
	registry *Registry
	catalog  *Catalog
	maxDepth int

	initOnce sync.Once
	initErr  error
}

// NewManager wires a manager to explicit registry and catalog
// references. Nil arguments get fresh instances; a non-positive
// maxDepth falls back to DefaultMaxDepth.
func NewManager(registry *Registry, catalog *Catalog, maxDepth int) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Manager{registry: registry, catalog: catalog, maxDepth: maxDepth}
}

// Initialize registers the four core algorithms and the built-in
// configurable domains. Idempotent: repeat calls return the first
// outcome without re-registering anything.
func (m *Manager) Initialize() error {
	m.initOnce.Do(func() {
		core := []Algorithm{
			NewText(),
			NewStructured(m.maxDepth),
			NewMedia(),
			NewLinked(),
		}
		for _, a := range core {
			if err := m.registry.Register(a); err != nil {
				m.initErr = fmt.Errorf("register %s: %w", a.Domain(), err)
				return
			}
		}
		for _, cfg := range BuiltinDomainConfigs() {
			if err := m.registerConfig(cfg); err != nil {
				m.initErr = err
				return
			}
		}
	})
	return m.initErr
}

// RegisterDomain adds a custom configurable domain after (or before)
// initialization.
func (m *Manager) RegisterDomain(cfg DomainConfig) error {
	if err := m.Initialize(); err != nil {
		return err
	}
	return m.registerConfig(cfg)
}

func (m *Manager) registerConfig(cfg DomainConfig) error {
	alg, err := NewGeneric(cfg)
	if err != nil {
		return fmt.Errorf("domain %s: %w", cfg.Domain, err)
	}
	if err := m.catalog.Register(cfg); err != nil {
		return fmt.Errorf("domain %s: %w", cfg.Domain, err)
	}
	return m.registry.Register(alg)
}

// Registry exposes the algorithm table, primarily for listing.
func (m *Manager) Registry() *Registry { return m.registry }

// Catalog exposes the configurable-domain definitions.
func (m *Manager) Catalog() *Catalog { return m.catalog }

// DetectDomain resolves which domain should handle an input value.
//
// Priority: an explicit domain field wins; strings are text; arrays of
// three-element arrays are triple lists, other arrays structured data;
// objects route on media keys, then graph keys, then the first catalog
// validator that accepts, then default to structured data. Only nil
// input is undetectable.
func (m *Manager) DetectDomain(input any) (model.Domain, error) {
	if input == nil {
		return "", fmt.Errorf("%w: input is nil", ErrDomainNotDetected)
	}
	if err := m.Initialize(); err != nil {
		return "", err
	}

	switch t := input.(type) {
	case string:
		return model.DomainText, nil
	case []any:
		if isTripleList(t) {
			return model.DomainLinked, nil
		}
		return model.DomainStructured, nil
	case map[string]any:
		if tag, ok := t["domain"].(string); ok && tag != "" {
			return model.Domain(tag), nil
		}
		if hasAnyKey(t, "mimeType", "contentReference", "chunks") {
			return model.DomainMedia, nil
		}
		if hasAllKeys(t, "nodes", "edges") || hasAllKeys(t, "vertices", "links") {
			return model.DomainLinked, nil
		}
		for _, domain := range m.catalog.List() {
			cfg, ok := m.catalog.Lookup(domain)
			if !ok || cfg.Validate == nil {
				continue
			}
			if cfg.Validate(t) == nil {
				return domain, nil
			}
		}
		return model.DomainStructured, nil
	default:
		return model.DomainStructured, nil
	}
}

// Decompose detects the input's domain and runs its algorithm.
func (m *Manager) Decompose(input any) (*model.Decomposition, error) {
	domain, err := m.DetectDomain(input)
	if err != nil {
		return nil, err
	}
	return m.DecomposeAs(domain, input)
}

// DecomposeAs runs a named domain's algorithm, bypassing detection.
func (m *Manager) DecomposeAs(domain model.Domain, input any) (*model.Decomposition, error) {
	if err := m.Initialize(); err != nil {
		return nil, err
	}
	alg, err := m.registry.Lookup(domain)
	if err != nil {
		return nil, err
	}
	return alg.Decompose(input)
}

// Recompose dispatches on the decomposition's method tag, falling back
// to the first factor's domain tag.
func (m *Manager) Recompose(d *model.Decomposition) (any, error) {
	alg, err := m.resolve(d)
	if err != nil {
		return nil, err
	}
	return alg.Recompose(d)
}

// Canonical dispatches like Recompose and computes the canonical
// representation.
func (m *Manager) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	alg, err := m.resolve(d)
	if err != nil {
		return nil, err
	}
	return alg.Canonical(d)
}

func (m *Manager) resolve(d *model.Decomposition) (Algorithm, error) {
	if d == nil {
		return nil, invalidDecompositionf("decomposition is nil")
	}
	if err := m.Initialize(); err != nil {
		return nil, err
	}
	domain := d.Domain()
	if domain == "" {
		return nil, invalidDecompositionf("cannot resolve a domain from method %q", d.Method)
	}
	return m.registry.Lookup(domain)
}

// isTripleList reports whether every element is a triple, either a
// three-element array or a subject/predicate/object map. Empty lists
// are not triple lists.
func isTripleList(list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, elem := range list {
		switch t := elem.(type) {
		case []any:
			if len(t) != 3 {
				return false
			}
		case map[string]any:
			if !hasAllKeys(t, "subject", "object") {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func hasAllKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
