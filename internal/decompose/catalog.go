package decompose

import (
	"fmt"
	"sync"

	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/model"
)

// Catalog holds the configurable domain definitions. Each catalog is an
// independent object: registering a domain in one never leaks into
// another.
type Catalog struct {
	mu      sync.RWMutex
	configs map[model.Domain]DomainConfig
	order   []model.Domain
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{configs: make(map[model.Domain]DomainConfig)}
}

// Register adds a domain config. Re-registering a domain replaces its
// config and keeps its original position.
func (c *Catalog) Register(cfg DomainConfig) error {
	if cfg.Domain == "" {
		return fmt.Errorf("domain config has no domain name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.configs[cfg.Domain]; !exists {
		c.order = append(c.order, cfg.Domain)
	}
	c.configs[cfg.Domain] = cfg
	return nil
}

// Lookup returns the config for a domain.
func (c *Catalog) Lookup(domain model.Domain) (DomainConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.configs[domain]
	return cfg, ok
}

// List returns the registered domains in registration order.
func (c *Catalog) List() []model.Domain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Domain, len(c.order))
	copy(out, c.order)
	return out
}

// BuiltinDomainConfigs returns the three shipped configurable domains.
// Each call builds fresh configs, so callers may tweak them without
// affecting other catalogs.
func BuiltinDomainConfigs() []DomainConfig {
	return []DomainConfig{
		scientificConfig(),
		financialConfig(),
		geospatialConfig(),
	}
}

func scientificConfig() DomainConfig {
	return DomainConfig{
		Domain:      model.DomainScientific,
		DisplayName: "Scientific Measurement",
		Extractors: []Extractor{
			FieldExtractor("value", 1.0),
			FieldExtractor("unit", 0.9),
			FieldExtractor("uncertainty", 0.7),
			FieldExtractor("methodology", 0.5),
			FieldExtractor("instrument", 0.4),
			FieldExtractor("timestamp", 0.3),
		},
		Validate: requireFields("value", "unit"),
	}
}

func financialConfig() DomainConfig {
	return DomainConfig{
		Domain:      model.DomainFinancial,
		DisplayName: "Financial Transaction",
		Extractors: []Extractor{
			FieldExtractor("amount", 1.0),
			FieldExtractor("currency", 0.9),
			FieldExtractor("timestamp", 0.6),
			FieldExtractor("account", 0.5),
			FieldExtractor("counterparty", 0.4),
			FieldExtractor("category", 0.3),
		},
		Validate: requireFields("amount", "currency"),
		// Saturates with the number of attributes captured.
		Coherence: func(d *model.Decomposition, _ map[string]any) float64 {
			return coherence.ExpNormalize(float64(len(d.FactorsWithPrefix("attr:"))))
		},
	}
}

func geospatialConfig() DomainConfig {
	return DomainConfig{
		Domain:      model.DomainGeospatial,
		DisplayName: "Geospatial Position",
		Extractors: []Extractor{
			FieldExtractor("latitude", 1.0),
			FieldExtractor("longitude", 1.0),
			FieldExtractor("altitude", 0.5),
			FieldExtractor("accuracy", 0.4),
			FieldExtractor("crs", 0.4),
			FieldExtractor("timestamp", 0.3),
		},
		Validate: func(obj map[string]any) error {
			if err := checkCoordinate(obj, "latitude", 90); err != nil {
				return err
			}
			return checkCoordinate(obj, "longitude", 180)
		},
		// Signed validity score: each in-range coordinate adds 0.5,
		// each missing or out-of-range one subtracts 0.5.
		Coherence: func(_ *model.Decomposition, value map[string]any) float64 {
			score := coordinateScore(value, "latitude", 90) + coordinateScore(value, "longitude", 180)
			return coherence.RelativeNormalize(score)
		},
	}
}

func requireFields(fields ...string) func(map[string]any) error {
	return func(obj map[string]any) error {
		for _, f := range fields {
			if _, ok := obj[f]; !ok {
				return fmt.Errorf("missing required field %q", f)
			}
		}
		return nil
	}
}

func checkCoordinate(obj map[string]any, field string, bound float64) error {
	raw, ok := obj[field]
	if !ok {
		return fmt.Errorf("missing required field %q", field)
	}
	v, ok := asNumber(raw)
	if !ok {
		return fmt.Errorf("field %q is not numeric", field)
	}
	if v < -bound || v > bound {
		return fmt.Errorf("field %q out of range [-%v,%v]", field, bound, bound)
	}
	return nil
}

func coordinateScore(value map[string]any, field string, bound float64) float64 {
	v, ok := asNumber(value[field])
	if !ok || v < -bound || v > bound {
		return -0.5
	}
	return 0.5
}
