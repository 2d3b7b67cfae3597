package model

// Binding ties an object's decomposition, canonical representation and
// observer frame together: the trilateral coherence relationship.
// Concrete entities (concepts, resources, topics) live in consuming
// systems; this is only the contract they bind through.
type Binding struct {
	ObjectID      string                   `json:"objectId"`
	Decomposition *Decomposition           `json:"decomposition,omitempty"`
	Canonical     *CanonicalRepresentation `json:"canonical,omitempty"`
	Frame         *ObserverFrame           `json:"frame,omitempty"`
}

// Complete reports whether all three sides of the relationship are
// present. Trilateral scoring returns its insufficient-data sentinel
// for incomplete bindings.
func (b *Binding) Complete() bool {
	return b != nil && b.Decomposition != nil && b.Canonical != nil && b.Frame != nil
}
