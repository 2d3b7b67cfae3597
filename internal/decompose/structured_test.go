package decompose

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/ltikhonov/primordia/internal/model"
)

func TestStructuredRoundTrip(t *testing.T) {
	alg := NewStructured(0)
	input := map[string]any{
		"b":    1,
		"a":    map[string]any{"c": []any{1, 2, "x"}},
		"flag": true,
	}

	d, err := alg.Decompose(input)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	out, err := alg.Recompose(d)
	if err != nil {
		t.Fatalf("Recompose: %v", err)
	}

	want := map[string]any{
		"b":    float64(1),
		"a":    map[string]any{"c": []any{float64(1), float64(2), "x"}},
		"flag": true,
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("round trip = %#v, want %#v", out, want)
	}
}

func TestStructuredCanonicalKeyOrderIndependent(t *testing.T) {
	alg := NewStructured(0)

	first, err := alg.Decompose(`{"b":1,"a":2}`)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	second, err := alg.Decompose(`{"a":2,"b":1}`)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	if first.UniquenessProofRef != second.UniquenessProofRef {
		t.Errorf("permuted keys changed factor ids: %q vs %q",
			first.UniquenessProofRef, second.UniquenessProofRef)
	}

	c1, err := alg.Canonical(first)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	c2, err := alg.Canonical(second)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}

	j1, _ := json.Marshal(c1.Value)
	j2, _ := json.Marshal(c2.Value)
	if string(j1) != string(j2) {
		t.Errorf("canonical values differ: %s vs %s", j1, j2)
	}
	if string(j1) != `{"a":2,"b":1}` {
		t.Errorf("canonical = %s, want {\"a\":2,\"b\":1}", j1)
	}
	if c1.MinimalityProofRef != c2.MinimalityProofRef {
		t.Errorf("proof refs differ: %q vs %q", c1.MinimalityProofRef, c2.MinimalityProofRef)
	}
}

func TestStructuredPrimitiveRoot(t *testing.T) {
	alg := NewStructured(0)
	d, err := alg.Decompose("42")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if f := d.Factor("structure"); f == nil || f.ValueMap()["type"] != "number" {
		t.Errorf("structure = %+v, want type number", f)
	}
	out, err := alg.Recompose(d)
	if err != nil {
		t.Fatalf("Recompose: %v", err)
	}
	if out != float64(42) {
		t.Errorf("recompose = %v, want 42", out)
	}
}

func TestStructuredRejectsBadInput(t *testing.T) {
	alg := NewStructured(0)
	if _, err := alg.Decompose(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil: err = %v, want ErrInvalidInput", err)
	}
	if _, err := alg.Decompose("not json at all"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad json: err = %v, want ErrInvalidInput", err)
	}
}

func TestStructuredDepthCeiling(t *testing.T) {
	alg := NewStructured(3)

	nested := any("leaf")
	for i := 0; i < 5; i++ {
		nested = map[string]any{"child": nested}
	}
	if _, err := alg.Decompose(nested); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for deep nesting", err)
	}

	shallow := map[string]any{"child": map[string]any{"leaf": 1}}
	if _, err := alg.Decompose(shallow); err != nil {
		t.Errorf("shallow input rejected: %v", err)
	}
}

func TestStructuredRecomposeRejectsNonNumericArrayKey(t *testing.T) {
	alg := NewStructured(0)
	d := &model.Decomposition{
		Method: "structured-data/v1",
		Factors: []model.PrimeFactor{
			model.NewFactor("structure", map[string]any{"type": "array", "size": float64(1)}, model.DomainStructured),
			model.NewFactor("node:$", map[string]any{"path": "$", "kind": "array", "childCount": float64(1)}, model.DomainStructured),
			model.NewFactor("prop:$.x", map[string]any{"parent": "$", "key": "x", "compound": false}, model.DomainStructured),
			model.NewFactor("value:$.x", map[string]any{"path": "$.x", "key": "x", "value": float64(1), "type": "number"}, model.DomainStructured),
		},
	}
	if _, err := alg.Recompose(d); !errors.Is(err, ErrInvalidDecomposition) {
		t.Errorf("err = %v, want ErrInvalidDecomposition", err)
	}
}

func TestStructuredRecomposeValidation(t *testing.T) {
	alg := NewStructured(0)
	d, err := alg.Decompose(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	wrong := &model.Decomposition{Factors: d.Factors, Method: "text/v1"}
	if _, err := alg.Recompose(wrong); !errors.Is(err, ErrInvalidDecomposition) {
		t.Errorf("foreign method: err = %v, want ErrInvalidDecomposition", err)
	}

	var trimmed []model.PrimeFactor
	for _, f := range d.Factors {
		if f.ID != "structure" {
			trimmed = append(trimmed, f)
		}
	}
	broken := &model.Decomposition{Factors: trimmed, Method: d.Method}
	if _, err := alg.Recompose(broken); !errors.Is(err, ErrInvalidDecomposition) {
		t.Errorf("missing structure: err = %v, want ErrInvalidDecomposition", err)
	}
}

func TestStructuredCoherenceNorm(t *testing.T) {
	alg := NewStructured(0)

	cases := []struct {
		name  string
		input any
	}{
		{"empty object", map[string]any{}},
		{"flat object", map[string]any{"a": 1, "b": 2}},
		{"nested object", map[string]any{"a": map[string]any{"b": []any{1, 2, 3}}}},
		{"homogeneous array", []any{1, 2, 3, 4}},
		{"mixed array", []any{1, "a", true, nil}},
	}
	norms := make(map[string]float64)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := alg.Decompose(tc.input)
			if err != nil {
				t.Fatalf("Decompose: %v", err)
			}
			c, err := alg.Canonical(d)
			if err != nil {
				t.Fatalf("Canonical: %v", err)
			}
			if c.CoherenceNorm < 0 || c.CoherenceNorm > 1 {
				t.Errorf("norm %v out of [0,1]", c.CoherenceNorm)
			}
			norms[tc.name] = c.CoherenceNorm
		})
	}

	if norms["empty object"] != 1.0 {
		t.Errorf("empty object norm = %v, want 1.0", norms["empty object"])
	}
	if norms["homogeneous array"] <= norms["mixed array"] {
		t.Errorf("homogeneous array (%v) should outscore mixed array (%v)",
			norms["homogeneous array"], norms["mixed array"])
	}
}

func TestStructuredArrayOrderPreserved(t *testing.T) {
	alg := NewStructured(0)
	d, err := alg.Decompose([]any{3, 1, 2})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	c, err := alg.Canonical(d)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	j, _ := json.Marshal(c.Value)
	if string(j) != `[3,1,2]` {
		t.Errorf("canonical = %s, arrays must keep element order", j)
	}
}
