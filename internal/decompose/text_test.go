package decompose

import (
	"errors"
	"strings"
	"testing"

	"github.com/ltikhonov/primordia/internal/model"
)

func textCounts(t *testing.T, d *model.Decomposition) map[string]any {
	t.Helper()
	f := d.Factor("structure")
	if f == nil {
		t.Fatalf("decomposition has no structure factor")
	}
	return f.ValueMap()
}

func dropFactors(d *model.Decomposition, prefix string) *model.Decomposition {
	out := &model.Decomposition{Method: d.Method, UniquenessProofRef: d.UniquenessProofRef}
	for _, f := range d.Factors {
		if !strings.HasPrefix(f.ID, prefix) {
			out.Factors = append(out.Factors, f)
		}
	}
	return out
}

func TestTextDecompose(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("Hello world. Good bye!")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if d.Method != "text/v1" {
		t.Errorf("method = %q, want text/v1", d.Method)
	}
	if d.UniquenessProofRef == "" {
		t.Error("expected a uniqueness proof reference")
	}

	counts := textCounts(t, d)
	if got := counts["wordCount"]; got != float64(4) {
		t.Errorf("wordCount = %v, want 4", got)
	}
	if got := counts["sentenceCount"]; got != float64(2) {
		t.Errorf("sentenceCount = %v, want 2", got)
	}
	if got := counts["paragraphCount"]; got != float64(1) {
		t.Errorf("paragraphCount = %v, want 1", got)
	}

	if f := d.Factor("word:0"); f == nil || f.ValueMap()["text"] != "Hello" {
		t.Errorf("word:0 = %+v, want text Hello", f)
	}
	if f := d.Factor("sentence:1"); f == nil || f.ValueMap()["text"] != "Good bye" {
		t.Errorf("sentence:1 = %+v, want text Good bye", f)
	}
}

func TestTextDecomposeEmpty(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if len(d.Factors) != 1 {
		t.Fatalf("factor count = %d, want only the structure factor", len(d.Factors))
	}
	counts := textCounts(t, d)
	for _, key := range []string{"paragraphCount", "sentenceCount", "wordCount", "charCount"} {
		if got := counts[key]; got != float64(0) {
			t.Errorf("%s = %v, want 0", key, got)
		}
	}

	c, err := alg.Canonical(d)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if c.Value != "" {
		t.Errorf("canonical value = %q, want empty", c.Value)
	}
	if c.CoherenceNorm != 1.0 {
		t.Errorf("coherence norm = %v, want 1.0 for empty text", c.CoherenceNorm)
	}
}

func TestTextDecomposeRejectsNonString(t *testing.T) {
	alg := NewText()
	if _, err := alg.Decompose(42); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestTextCharacterMultiplicity(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("aaa")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	f := d.Factor("char:0")
	if f == nil {
		t.Fatal("missing char:0 factor")
	}
	if f.Multiplicity != 3 {
		t.Errorf("multiplicity = %d, want 3", f.Multiplicity)
	}
	if f.ValueMap()["char"] != "a" {
		t.Errorf("char = %v, want a", f.ValueMap()["char"])
	}
	counts := textCounts(t, d)
	if got := counts["charCount"]; got != float64(3) {
		t.Errorf("charCount = %v, want 3", got)
	}
}

func TestTextDeterminism(t *testing.T) {
	alg := NewText()
	first, err := alg.Decompose("The quick brown fox.\n\nJumps over the lazy dog!")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	second, err := alg.Decompose("The quick brown fox.\n\nJumps over the lazy dog!")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if first.UniquenessProofRef != second.UniquenessProofRef {
		t.Errorf("proof refs differ: %q vs %q", first.UniquenessProofRef, second.UniquenessProofRef)
	}
	if len(first.Factors) != len(second.Factors) {
		t.Fatalf("factor counts differ: %d vs %d", len(first.Factors), len(second.Factors))
	}
	for i := range first.Factors {
		if first.Factors[i].ID != second.Factors[i].ID {
			t.Errorf("factor %d id %q vs %q", i, first.Factors[i].ID, second.Factors[i].ID)
		}
	}
}

func TestTextRecomposeGranularity(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("First para. Still first.\n\nSecond para!")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	out, err := alg.Recompose(d)
	if err != nil {
		t.Fatalf("Recompose: %v", err)
	}
	if out != "First para. Still first.\n\nSecond para!" {
		t.Errorf("paragraph recompose = %q", out)
	}

	// Sentence terminators are consumed by the split, so this level is lossy.
	noParas := dropFactors(d, "paragraph:")
	out, err = alg.Recompose(noParas)
	if err != nil {
		t.Fatalf("Recompose without paragraphs: %v", err)
	}
	if out != "First para Still first Second para" {
		t.Errorf("sentence recompose = %q", out)
	}

	noSentences := dropFactors(noParas, "sentence:")
	out, err = alg.Recompose(noSentences)
	if err != nil {
		t.Fatalf("Recompose without sentences: %v", err)
	}
	if out != "First para Still first Second para" {
		t.Errorf("word recompose = %q", out)
	}

	noWords := dropFactors(noSentences, "word:")
	out, err = alg.Recompose(noWords)
	if err != nil {
		t.Fatalf("Recompose without words: %v", err)
	}
	// Character expansion preserves frequency, not ordering.
	if len(out.(string)) == 0 {
		t.Error("character recompose produced empty text")
	}
}

func TestTextRecomposeValidation(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("hello")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	broken := dropFactors(d, "structure")
	if _, err := alg.Recompose(broken); !errors.Is(err, ErrInvalidDecomposition) {
		t.Errorf("missing structure: err = %v, want ErrInvalidDecomposition", err)
	}

	wrong := &model.Decomposition{Factors: d.Factors, Method: "media/v1"}
	if _, err := alg.Recompose(wrong); !errors.Is(err, ErrInvalidDecomposition) {
		t.Errorf("foreign method: err = %v, want ErrInvalidDecomposition", err)
	}
}

func TestTextCanonical(t *testing.T) {
	alg := NewText()

	cases := []struct {
		name  string
		input string
		value string
		norm  float64
	}{
		{"collapses whitespace", "  Hello   WORLD  ", "hello world", 1.0},
		{"repeated words lower diversity", "the the the", "the the the", 1.0 / 3.0},
		{"mixed case folds together", "Go go GO stop", "go go go stop", 0.5},
	}
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
			if c.Kind != "text" {
				t.Errorf("kind = %q, want text", c.Kind)
			}
			if c.Value != tc.value {
				t.Errorf("value = %q, want %q", c.Value, tc.value)
			}
			if diff := c.CoherenceNorm - tc.norm; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("norm = %v, want %v", c.CoherenceNorm, tc.norm)
			}
			if !strings.HasPrefix(c.MinimalityProofRef, "sha256:") {
				t.Errorf("proof ref = %q, want sha256 prefix", c.MinimalityProofRef)
			}
		})
	}
}

func TestTextCanonicalStableAcrossRuns(t *testing.T) {
	alg := NewText()
	d, err := alg.Decompose("Stable input text.")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	first, err := alg.Canonical(d)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	second, err := alg.Canonical(d)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if first.Value != second.Value || first.MinimalityProofRef != second.MinimalityProofRef {
		t.Errorf("canonical not stable: %+v vs %+v", first, second)
	}
}
