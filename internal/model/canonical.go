package model

// CanonicalRepresentation is the deterministic normalized form derived
// from a decomposition, used for equality and comparison. Identical
// decompositions yield byte-identical JSON serializations of Value:
// object keys are sorted by encoding/json and numeric payloads are
// normalized to float64 before they reach this type.
type CanonicalRepresentation struct {
	Kind               string  `json:"kind"`
	Value              any     `json:"value"`
	CoherenceNorm      float64 `json:"coherenceNorm"`
	MinimalityProofRef string  `json:"minimalityProofRef,omitempty"`
}
