package model

import (
	"encoding/json"
	"strings"
)

// Domain identifies the category of input data an algorithm handles.
type Domain string

const (
	DomainText       Domain = "text"
	DomainStructured Domain = "structured-data"
	DomainMedia      Domain = "media"
	DomainLinked     Domain = "linked-data"

	// Built-in configurable domains registered through the catalog.
	DomainScientific Domain = "scientific"
	DomainFinancial  Domain = "financial"
	DomainGeospatial Domain = "geospatial"
)

// MethodTag returns the decomposition method tag for a domain.
// The tag is recorded on every Decomposition so the producing
// algorithm can be resolved later without re-detecting the domain.
func MethodTag(d Domain) string {
	return string(d) + "/v1"
}

// DomainOfMethod extracts the domain from a method tag. Returns ""
// for tags that do not follow the <domain>/<version> form.
func DomainOfMethod(method string) Domain {
	idx := strings.IndexByte(method, '/')
	if idx <= 0 {
		return ""
	}
	return Domain(method[:idx])
}

// PrimeFactor is the smallest extracted structural unit of a decomposed
// value. IDs are derived deterministically from content or position,
// never generated randomly: decomposing identical input twice yields
// identical factor ids.
type PrimeFactor struct {
	ID           string `json:"id"`
	Value        any    `json:"value"`
	Multiplicity int    `json:"multiplicity"`
	Domain       Domain `json:"domain"`
}

// UnmarshalJSON defaults multiplicity to 1 when the field is absent or
// non-positive, matching the constructor behavior.
func (f *PrimeFactor) UnmarshalJSON(data []byte) error {
	type alias PrimeFactor
	aux := alias{Multiplicity: 1}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Multiplicity < 1 {
		aux.Multiplicity = 1
	}
	*f = PrimeFactor(aux)
	return nil
}

// NewFactor builds a factor with multiplicity 1.
func NewFactor(id string, value any, domain Domain) PrimeFactor {
	return PrimeFactor{ID: id, Value: value, Multiplicity: 1, Domain: domain}
}

// Decomposition is the complete ordered set of prime factors extracted
// from one input value. Order is positionally significant for domains
// that reconstruct from positions (text, arrays) and is insertion order
// otherwise.
type Decomposition struct {
	Factors            []PrimeFactor `json:"factors"`
	Method             string        `json:"method"`
	UniquenessProofRef string        `json:"uniquenessProofRef,omitempty"`
}

// Domain resolves the domain a decomposition belongs to, preferring the
// method tag and falling back to the first factor's tag.
func (d *Decomposition) Domain() Domain {
	if dom := DomainOfMethod(d.Method); dom != "" {
		return dom
	}
	if len(d.Factors) > 0 {
		return d.Factors[0].Domain
	}
	return ""
}

// Factor returns the first factor with the given id, or nil.
func (d *Decomposition) Factor(id string) *PrimeFactor {
	for i := range d.Factors {
		if d.Factors[i].ID == id {
			return &d.Factors[i]
		}
	}
	return nil
}

// FactorsWithPrefix returns all factors whose id starts with prefix, in
// decomposition order.
func (d *Decomposition) FactorsWithPrefix(prefix string) []PrimeFactor {
	var out []PrimeFactor
	for _, f := range d.Factors {
		if strings.HasPrefix(f.ID, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// ValueMap returns a factor's value as a map, or nil when the payload
// has a different shape.
func (f *PrimeFactor) ValueMap() map[string]any {
	m, _ := f.Value.(map[string]any)
	return m
}
