package model

// ObserverFrame names a perspective under which invariant properties of
// a representation are evaluated. The transformation rules are opaque
// to this package: scoring only consumes the declared invariant names,
// it never interprets or applies the transformations.
type ObserverFrame struct {
	ID              string            `json:"id"`
	Perspective     string            `json:"perspective"`
	Transformations map[string]string `json:"transformations,omitempty"`
	Invariants      []string          `json:"invariants,omitempty"`
}
