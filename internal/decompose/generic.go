package decompose

import (
	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/model"
)

// Extractor pulls one named attribute out of a domain object. Fn
// reports false when the attribute is absent; absent attributes simply
// produce no factor.
type Extractor struct {
	Name   string
	Weight float64
	Fn     func(obj map[string]any) (any, bool)
}

// DomainConfig declares a configurable domain: its extractors in
// emission order plus optional validation, normalization and coherence
// hooks. A config with a nil hook gets the default behavior.
type DomainConfig struct {
	Domain      model.Domain
	DisplayName string
	Extractors  []Extractor

	// Validate rejects inputs that do not meet the domain's minimum
	// shape. Run before extraction.
	Validate func(obj map[string]any) error

	// Normalize rewrites the object before extraction (unit coercion,
	// key aliasing).
	Normalize func(obj map[string]any) map[string]any

	// Coherence overrides the default completeness/weight blend. The
	// result is clamped to [0,1].
	Coherence func(d *model.Decomposition, value map[string]any) float64
}

// FieldExtractor returns an extractor that reads a top-level key.
func FieldExtractor(name string, weight float64) Extractor {
	return Extractor{
		Name:   name,
		Weight: weight,
		Fn: func(obj map[string]any) (any, bool) {
			v, ok := obj[name]
			return v, ok
		},
	}
}

// Generic is the extensible algorithm: one instance per configured
// domain, all behavior driven by the DomainConfig.
type Generic struct {
	cfg DomainConfig
}

// NewGeneric builds an algorithm from a domain config.
func NewGeneric(cfg DomainConfig) (*Generic, error) {
	if cfg.Domain == "" {
		return nil, invalidInputf("domain config has no domain name")
	}
	if len(cfg.Extractors) == 0 {
		return nil, invalidInputf("domain config %q has no extractors", cfg.Domain)
	}
	for _, ex := range cfg.Extractors {
		if ex.Name == "" || ex.Fn == nil {
			return nil, invalidInputf("domain config %q has an incomplete extractor", cfg.Domain)
		}
	}
	return &Generic{cfg: cfg}, nil
}

func (a *Generic) Domain() model.Domain { return a.cfg.Domain }

// Config returns the driving domain config.
func (a *Generic) Config() DomainConfig { return a.cfg }

func (a *Generic) Decompose(input any) (*model.Decomposition, error) {
	raw, ok := asObject(input)
	if !ok {
		return nil, invalidInputf("%s decomposition requires an object, got %T", a.cfg.Domain, input)
	}
	obj := normalizeValue(raw).(map[string]any)

	if a.cfg.Normalize != nil {
		obj = a.cfg.Normalize(obj)
	}
	if a.cfg.Validate != nil {
		if err := a.cfg.Validate(obj); err != nil {
			return nil, invalidInputf("%s validation: %v", a.cfg.Domain, err)
		}
	}

	factors := []model.PrimeFactor{
		model.NewFactor("domain", map[string]any{
			"domain":      string(a.cfg.Domain),
			"displayName": a.cfg.DisplayName,
		}, a.cfg.Domain),
	}
	for _, ex := range a.cfg.Extractors {
		v, ok := ex.Fn(obj)
		if !ok {
			continue
		}
		factors = append(factors, model.NewFactor("attr:"+ex.Name, map[string]any{
			"name":   ex.Name,
			"value":  v,
			"weight": ex.Weight,
		}, a.cfg.Domain))
	}

	return &model.Decomposition{
		Factors:            factors,
		Method:             model.MethodTag(a.cfg.Domain),
		UniquenessProofRef: uniquenessRef(factors),
	}, nil
}

// Recompose rebuilds the attribute map. The domain marker must match
// this algorithm's domain; a decomposition produced under another
// config is rejected rather than silently reinterpreted.
func (a *Generic) Recompose(d *model.Decomposition) (any, error) {
	if !methodMatches(d, a.cfg.Domain) {
		return nil, invalidDecompositionf("method %q is not a %s decomposition", d.Method, a.cfg.Domain)
	}
	marker, err := requireFactor(d, "domain")
	if err != nil {
		return nil, err
	}
	if got, _ := marker.ValueMap()["domain"].(string); got != string(a.cfg.Domain) {
		return nil, invalidDecompositionf("marker domain %q does not match %q", got, a.cfg.Domain)
	}

	out := make(map[string]any)
	for _, f := range d.FactorsWithPrefix("attr:") {
		m := f.ValueMap()
		name, _ := m["name"].(string)
		if name == "" {
			return nil, invalidDecompositionf("attribute factor %q has no name", f.ID)
		}
		out[name] = m["value"]
	}
	return out, nil
}

func (a *Generic) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	raw, err := a.Recompose(d)
	if err != nil {
		return nil, err
	}
	value := normalizeValue(raw).(map[string]any)

	var norm float64
	if a.cfg.Coherence != nil {
		norm = coherence.Clamp01(a.cfg.Coherence(d, value))
	} else {
		norm = a.defaultNorm(d)
	}

	return &model.CanonicalRepresentation{
		Kind:               string(a.cfg.Domain),
		Value:              value,
		CoherenceNorm:      norm,
		MinimalityProofRef: minimalityRef(value),
	}, nil
}

// defaultNorm blends extractor completeness with the weight share of
// the attributes actually present.
func (a *Generic) defaultNorm(d *model.Decomposition) float64 {
	present := make(map[string]bool)
	for _, f := range d.FactorsWithPrefix("attr:") {
		if name, ok := f.ValueMap()["name"].(string); ok {
			present[name] = true
		}
	}

	var presentCount, presentWeight, totalWeight float64
	for _, ex := range a.cfg.Extractors {
		totalWeight += ex.Weight
		if present[ex.Name] {
			presentCount++
			presentWeight += ex.Weight
		}
	}
	if len(a.cfg.Extractors) == 0 || totalWeight == 0 {
		return 0.5
	}
	completeness := presentCount / float64(len(a.cfg.Extractors))
	weighted := presentWeight / totalWeight
	return coherence.Clamp01(0.5*completeness + 0.5*weighted)
}
