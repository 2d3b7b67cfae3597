package coherence

import (
	"math"
	"testing"

	"github.com/ltikhonov/primordia/internal/model"
)

func sampleDecomposition() *model.Decomposition {
	return &model.Decomposition{
		Method: "structured-data/v1",
		Factors: []model.PrimeFactor{
			model.NewFactor("structure", map[string]any{"type": "object"}, model.DomainStructured),
			model.NewFactor("value:$.a", map[string]any{"value": float64(1)}, model.DomainStructured),
			model.NewFactor("value:$.b", map[string]any{"value": float64(2)}, model.DomainStructured),
		},
	}
}

func sampleCanonical() *model.CanonicalRepresentation {
	return &model.CanonicalRepresentation{
		Kind:          "structured-data",
		Value:         map[string]any{"a": float64(1), "b": float64(2)},
		CoherenceNorm: 1.0,
	}
}

func TestCompleteness(t *testing.T) {
	m := Completeness(sampleDecomposition(), sampleCanonical())
	if m.Metric != model.MetricCompleteness {
		t.Errorf("metric = %q", m.Metric)
	}
	if m.Value < 0 || m.Value > 1 {
		t.Errorf("value %v out of [0,1]", m.Value)
	}
	if m.Normalization != model.NormalizationLog {
		t.Errorf("normalization = %q", m.Normalization)
	}

	for _, m := range []model.CoherenceMeasure{
		Completeness(nil, sampleCanonical()),
		Completeness(sampleDecomposition(), nil),
	} {
		if m.Value != 0.5 || m.Normalization != model.NormalizationSentinel {
			t.Errorf("sentinel = %+v, want 0.5 insufficient-data", m)
		}
	}
}

func TestIntegrityUniqueIDs(t *testing.T) {
	clean := sampleDecomposition()
	cleanScore := Integrity(clean).Value

	dup := sampleDecomposition()
	dup.Factors[2].ID = dup.Factors[1].ID
	dupScore := Integrity(dup).Value

	if dupScore >= cleanScore {
		t.Errorf("duplicate ids should lower integrity: %v vs %v", dupScore, cleanScore)
	}
	for _, v := range []float64{cleanScore, dupScore} {
		if v < 0 || v > 1 {
			t.Errorf("value %v out of [0,1]", v)
		}
	}
}

func TestIntegrityEmptyDecomposition(t *testing.T) {
	m := Integrity(&model.Decomposition{Method: "text/v1"})
	if m.Value != 1.0 {
		t.Errorf("value = %v, want vacuous 1.0", m.Value)
	}
	if m := Integrity(nil); m.Value != 0.5 || m.Normalization != model.NormalizationSentinel {
		t.Errorf("nil = %+v, want sentinel", m)
	}
}

func TestInvariance(t *testing.T) {
	canonical := &model.CanonicalRepresentation{
		Kind: "media",
		Value: map[string]any{
			"mimeType": "image/png",
			"dims":     map[string]any{"width": float64(1920)},
			"items":    []any{"first"},
		},
	}

	cases := []struct {
		name       string
		invariants []string
		want       float64
	}{
		{"all present", []string{"mimeType"}, 1.0},
		{"half present", []string{"mimeType", "size"}, 0.5},
		{"nested path", []string{"dims.width"}, 1.0},
		{"array index path", []string{"items.0"}, 1.0},
		{"missing nested", []string{"dims.height"}, 0.0},
		{"none declared", nil, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := &model.ObserverFrame{ID: "f1", Perspective: "test", Invariants: tc.invariants}
			m := Invariance(frame, canonical)
			if math.Abs(m.Value-tc.want) > 1e-9 {
				t.Errorf("value = %v, want %v", m.Value, tc.want)
			}
			if m.ReferenceFrame != "f1" {
				t.Errorf("referenceFrame = %q, want f1", m.ReferenceFrame)
			}
		})
	}

	if m := Invariance(nil, canonical); m.Value != 0.5 || m.Normalization != model.NormalizationSentinel {
		t.Errorf("nil frame = %+v, want sentinel", m)
	}
	frame := &model.ObserverFrame{ID: "f1"}
	if m := Invariance(frame, nil); m.Value != 0.5 || m.ReferenceFrame != "f1" {
		t.Errorf("nil canonical = %+v, want sentinel with frame ref", m)
	}
}

func TestTrilateral(t *testing.T) {
	d := sampleDecomposition()
	c := sampleCanonical()
	frame := &model.ObserverFrame{ID: "f1", Invariants: []string{"a"}}

	m := Trilateral(d, c, frame)
	want := (Completeness(d, c).Value + Integrity(d).Value + Invariance(frame, c).Value) / 3
	if math.Abs(m.Value-want) > 1e-9 {
		t.Errorf("value = %v, want mean %v", m.Value, want)
	}
	if m.Normalization != model.NormalizationMean {
		t.Errorf("normalization = %q", m.Normalization)
	}

	if m := Trilateral(d, c, nil); m.Value != 0.5 || m.Normalization != model.NormalizationSentinel {
		t.Errorf("missing frame = %+v, want sentinel", m)
	}
}

func TestOptimal(t *testing.T) {
	measures := []model.CoherenceMeasure{
		{Metric: model.MetricCompleteness, Value: 0.4},
		{Metric: model.MetricIntegrity, Value: 0.9},
		{Metric: model.MetricInvariance, Value: 0.7, ReferenceFrame: "f1"},
	}
	m := Optimal(measures)
	if m.Value != 0.9 {
		t.Errorf("value = %v, want 0.9", m.Value)
	}
	if m.ReferenceFrame != "f1" {
		t.Errorf("referenceFrame = %q, want f1", m.ReferenceFrame)
	}

	if m := Optimal(nil); m.Value != 0.5 || m.Normalization != model.NormalizationSentinel {
		t.Errorf("empty = %+v, want sentinel", m)
	}
}

func TestMeasureAll(t *testing.T) {
	d := sampleDecomposition()
	c := sampleCanonical()

	noFrame := MeasureAll(d, c, nil)
	if len(noFrame) != 3 {
		t.Fatalf("measure count = %d, want completeness+integrity+optimal", len(noFrame))
	}

	frame := &model.ObserverFrame{ID: "f1", Invariants: []string{"a", "b"}}
	withFrame := MeasureAll(d, c, frame)
	if len(withFrame) != 5 {
		t.Fatalf("measure count = %d, want 5 with a frame", len(withFrame))
	}
	for _, m := range withFrame {
		if m.Value < 0 || m.Value > 1 {
			t.Errorf("%s = %v out of [0,1]", m.Metric, m.Value)
		}
	}
	if withFrame[len(withFrame)-1].Metric != model.MetricOptimal {
		t.Errorf("last measure = %q, want optimal", withFrame[len(withFrame)-1].Metric)
	}
}

func TestNormalizeHelpers(t *testing.T) {
	if got := Clamp01(-0.2); got != 0 {
		t.Errorf("Clamp01(-0.2) = %v", got)
	}
	if got := Clamp01(1.7); got != 1 {
		t.Errorf("Clamp01(1.7) = %v", got)
	}
	if got := LogNormalize(0); got != 0 {
		t.Errorf("LogNormalize(0) = %v", got)
	}
	if got := LogNormalize(100); math.Abs(got-1) > 1e-9 {
		t.Errorf("LogNormalize(100) = %v, want 1", got)
	}
	if got := ExpNormalize(0); got != 0 {
		t.Errorf("ExpNormalize(0) = %v", got)
	}
	if got := ExpNormalize(3); math.Abs(got-(1-math.Exp(-3))) > 1e-9 {
		t.Errorf("ExpNormalize(3) = %v", got)
	}
	if got := RelativeNormalize(-1); got != 0 {
		t.Errorf("RelativeNormalize(-1) = %v", got)
	}
	if got := RelativeNormalize(0); got != 0.5 {
		t.Errorf("RelativeNormalize(0) = %v", got)
	}
	if got := RelativeNormalize(1); got != 1 {
		t.Errorf("RelativeNormalize(1) = %v", got)
	}
}
