package decompose

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ltikhonov/primordia/internal/model"
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
)

// Text decomposes free text into character-frequency, word, sentence
// and paragraph factors plus a structure marker.
//
// Character factors are a run-length style compression: one factor per
// distinct rune in first-appearance order, multiplicity carrying the
// occurrence count. Word/sentence/paragraph factors are positional.
// Reconstruction below word granularity is lossy: multiplicity
// collapses character ordering, and sentence terminators are consumed
// by the split.
type Text struct{}

// NewText returns the text algorithm.
func NewText() *Text { return &Text{} }

func (a *Text) Domain() model.Domain { return model.DomainText }

func (a *Text) Decompose(input any) (*model.Decomposition, error) {
	text, ok := input.(string)
	if !ok {
		return nil, invalidInputf("text decomposition requires a string, got %T", input)
	}

	var factors []model.PrimeFactor

	// Distinct characters in first-appearance order.
	counts := make(map[rune]int)
	var order []rune
	for _, r := range text {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	charCount := 0
	for i, r := range order {
		factors = append(factors, model.PrimeFactor{
			ID:           fmt.Sprintf("char:%d", i),
			Value:        map[string]any{"char": string(r), "index": float64(i)},
			Multiplicity: counts[r],
			Domain:       model.DomainText,
		})
		charCount += counts[r]
	}

	words := splitWords(text)
	for i, w := range words {
		factors = append(factors, model.NewFactor(
			fmt.Sprintf("word:%d", i),
			map[string]any{"text": w, "index": float64(i)},
			model.DomainText,
		))
	}

	sentences := splitNonEmpty(sentenceSplit, text)
	for i, s := range sentences {
		factors = append(factors, model.NewFactor(
			fmt.Sprintf("sentence:%d", i),
			map[string]any{"text": s, "index": float64(i)},
			model.DomainText,
		))
	}

	paragraphs := splitNonEmpty(paragraphSplit, text)
	for i, p := range paragraphs {
		factors = append(factors, model.NewFactor(
			fmt.Sprintf("paragraph:%d", i),
			map[string]any{"text": p, "index": float64(i)},
			model.DomainText,
		))
	}

	factors = append(factors, model.NewFactor("structure", map[string]any{
		"paragraphCount": float64(len(paragraphs)),
		"sentenceCount":  float64(len(sentences)),
		"wordCount":      float64(len(words)),
		"charCount":      float64(charCount),
	}, model.DomainText))

	return &model.Decomposition{
		Factors:            factors,
		Method:             model.MethodTag(model.DomainText),
		UniquenessProofRef: uniquenessRef(factors),
	}, nil
}

// Recompose rebuilds text from the richest granularity available:
// paragraphs joined by blank lines, then sentences and words joined by
// spaces, then the literal character expansion.
func (a *Text) Recompose(d *model.Decomposition) (any, error) {
	if !methodMatches(d, model.DomainText) {
		return nil, invalidDecompositionf("method %q is not a text decomposition", d.Method)
	}
	if _, err := requireFactor(d, "structure"); err != nil {
		return nil, err
	}

	if parts := factorTexts(d, "paragraph:"); len(parts) > 0 {
		return strings.Join(parts, "\n\n"), nil
	}
	if parts := factorTexts(d, "sentence:"); len(parts) > 0 {
		return strings.Join(parts, " "), nil
	}
	if parts := factorTexts(d, "word:"); len(parts) > 0 {
		return strings.Join(parts, " "), nil
	}

	var b strings.Builder
	for _, f := range d.FactorsWithPrefix("char:") {
		ch, _ := f.ValueMap()["char"].(string)
		b.WriteString(strings.Repeat(ch, f.Multiplicity))
	}
	return b.String(), nil
}

// Canonical lower-cases, trims and collapses internal whitespace of the
// recomposed text. The coherence norm is lexical diversity: unique
// words over total words, 1.0 for empty text by convention.
func (a *Text) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	raw, err := a.Recompose(d)
	if err != nil {
		return nil, err
	}
	text := raw.(string)

	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")

	words := splitWords(normalized)
	norm := 1.0
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		norm = float64(len(unique)) / float64(len(words))
	}

	return &model.CanonicalRepresentation{
		Kind:               string(model.DomainText),
		Value:              normalized,
		CoherenceNorm:      norm,
		MinimalityProofRef: minimalityRef(normalized),
	}, nil
}

// splitWords tokenizes on any non-letter, non-digit rune.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func splitNonEmpty(re *regexp.Regexp, text string) []string {
	var out []string
	for _, part := range re.Split(text, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// factorTexts collects the text payloads under a positional prefix,
// ordered by each factor's recorded index rather than slice order.
func factorTexts(d *model.Decomposition, prefix string) []string {
	factors := d.FactorsWithPrefix(prefix)
	sort.SliceStable(factors, func(i, j int) bool {
		li, _ := asNumber(factors[i].ValueMap()["index"])
		lj, _ := asNumber(factors[j].ValueMap()["index"])
		return li < lj
	})
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		if text, ok := f.ValueMap()["text"].(string); ok {
			out = append(out, text)
		}
	}
	return out
}
