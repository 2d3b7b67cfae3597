package decompose

import (
	"encoding/json"
	"strconv"

	"github.com/ltikhonov/primordia/internal/coherence"
	"github.com/ltikhonov/primordia/internal/model"
)

// Structured decomposes JSON-like values (maps, slices, primitives, or
// a JSON string form) into node, property and leaf-value factors keyed
// by dot-joined paths rooted at "$".
//
// Object keys are walked in sorted order, so two inputs that differ
// only in key ordering produce identical factor sequences. Array
// elements keep their positions; element order is semantic and is
// never sorted away.
type Structured struct {
	maxDepth int
}

// NewStructured returns the structured-data algorithm. A non-positive
// maxDepth falls back to DefaultMaxDepth.
func NewStructured(maxDepth int) *Structured {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Structured{maxDepth: maxDepth}
}

func (a *Structured) Domain() model.Domain { return model.DomainStructured }

func (a *Structured) Decompose(input any) (*model.Decomposition, error) {
	if input == nil {
		return nil, invalidInputf("structured decomposition requires a value, got nil")
	}
	if s, ok := input.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, invalidInputf("string input is not valid JSON: %v", err)
		}
		input = parsed
	}
	root := normalizeValue(input)

	factors := []model.PrimeFactor{
		model.NewFactor("structure", map[string]any{
			"type": valueTypeTag(root),
			"size": float64(childCount(root)),
		}, model.DomainStructured),
	}
	factors, err := a.walk(factors, "$", "", root, 0)
	if err != nil {
		return nil, err
	}

	return &model.Decomposition{
		Factors:            factors,
		Method:             model.MethodTag(model.DomainStructured),
		UniquenessProofRef: uniquenessRef(factors),
	}, nil
}

// walk appends the factors for one subtree: a node factor per compound,
// a property factor per parent-child edge, a value factor per leaf.
func (a *Structured) walk(factors []model.PrimeFactor, path, key string, v any, depth int) ([]model.PrimeFactor, error) {
	if depth > a.maxDepth {
		return nil, invalidInputf("nesting depth exceeds limit %d at %s", a.maxDepth, path)
	}

	switch t := v.(type) {
	case map[string]any:
		factors = append(factors, model.NewFactor("node:"+path, map[string]any{
			"path":       path,
			"kind":       "object",
			"childCount": float64(len(t)),
		}, model.DomainStructured))
		for _, k := range sortedKeys(t) {
			child := t[k]
			childPath := joinPath(path, k)
			factors = append(factors, model.NewFactor("prop:"+childPath, map[string]any{
				"parent":   path,
				"key":      k,
				"compound": isCompound(child),
			}, model.DomainStructured))
			var err error
			factors, err = a.walk(factors, childPath, k, child, depth+1)
			if err != nil {
				return nil, err
			}
		}
	case []any:
		factors = append(factors, model.NewFactor("node:"+path, map[string]any{
			"path":       path,
			"kind":       "array",
			"childCount": float64(len(t)),
		}, model.DomainStructured))
		for i, child := range t {
			k := strconv.Itoa(i)
			childPath := joinPath(path, k)
			factors = append(factors, model.NewFactor("prop:"+childPath, map[string]any{
				"parent":   path,
				"key":      k,
				"compound": isCompound(child),
			}, model.DomainStructured))
			var err error
			factors, err = a.walk(factors, childPath, k, child, depth+1)
			if err != nil {
				return nil, err
			}
		}
	default:
		factors = append(factors, model.NewFactor("value:"+path, map[string]any{
			"path":  path,
			"key":   key,
			"value": v,
			"type":  valueTypeTag(v),
		}, model.DomainStructured))
	}
	return factors, nil
}

// Recompose rebuilds the value tree: compounds materialize from node
// factors, property factors attach children to parents, value factors
// fill the leaves.
func (a *Structured) Recompose(d *model.Decomposition) (any, error) {
	if !methodMatches(d, model.DomainStructured) {
		return nil, invalidDecompositionf("method %q is not a structured-data decomposition", d.Method)
	}
	if _, err := requireFactor(d, "structure"); err != nil {
		return nil, err
	}

	containers := make(map[string]any)
	for _, f := range d.FactorsWithPrefix("node:") {
		m := f.ValueMap()
		path, _ := m["path"].(string)
		n, _ := asNumber(m["childCount"])
		switch m["kind"] {
		case "array":
			containers[path] = make([]any, int(n))
		default:
			containers[path] = make(map[string]any, int(n))
		}
	}

	if len(containers) == 0 {
		leaf := d.Factor("value:$")
		if leaf == nil {
			return nil, invalidDecompositionf("no node or root value factors present")
		}
		return leaf.ValueMap()["value"], nil
	}

	for _, f := range d.FactorsWithPrefix("prop:") {
		m := f.ValueMap()
		parent, _ := m["parent"].(string)
		key, _ := m["key"].(string)
		childPath := joinPath(parent, key)

		var child any
		if m["compound"] == true {
			c, ok := containers[childPath]
			if !ok {
				return nil, invalidDecompositionf("missing node factor for %s", childPath)
			}
			child = c
		} else {
			leaf := d.Factor("value:" + childPath)
			if leaf == nil {
				return nil, invalidDecompositionf("missing value factor for %s", childPath)
			}
			child = leaf.ValueMap()["value"]
		}

		switch pc := containers[parent].(type) {
		case map[string]any:
			pc[key] = child
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil {
				return nil, invalidDecompositionf("non-numeric key %q under array node %s", key, parent)
			}
			if idx < 0 || idx >= len(pc) {
				return nil, invalidDecompositionf("index %d out of range for array node %s", idx, parent)
			}
			pc[idx] = child
		default:
			return nil, invalidDecompositionf("missing node factor for %s", parent)
		}
	}

	root, ok := containers["$"]
	if !ok {
		return nil, invalidDecompositionf("missing node factor for root")
	}
	return root, nil
}

// Canonical returns the recomposed tree with normalized numerics. Map
// keys serialize in sorted order, so decompositions of key-permuted
// inputs share one byte representation. The norm reflects structural
// regularity: type homogeneity and size at each level, averaged down
// the tree.
func (a *Structured) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	value, err := a.Recompose(d)
	if err != nil {
		return nil, err
	}
	value = normalizeValue(value)

	return &model.CanonicalRepresentation{
		Kind:               string(model.DomainStructured),
		Value:              value,
		CoherenceNorm:      a.structureNorm(value, 0),
		MinimalityProofRef: minimalityRef(value),
	}, nil
}

func (a *Structured) structureNorm(v any, depth int) float64 {
	if depth > a.maxDepth {
		return 1.0
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return 1.0
		}
		children := make([]any, 0, len(t))
		for _, k := range sortedKeys(t) {
			children = append(children, t[k])
		}
		size := sizeScore(len(t))
		homog := typeHomogeneity(children)
		avg := a.childNormMean(children, depth)
		return coherence.Clamp01(0.3*size + 0.3*homog + 0.4*avg)
	case []any:
		if len(t) == 0 {
			return 1.0
		}
		size := sizeScore(len(t))
		homog := typeHomogeneity(t)
		avg := a.childNormMean(t, depth)
		return coherence.Clamp01(0.4*homog + 0.2*size + 0.4*avg)
	default:
		return 1.0
	}
}

func (a *Structured) childNormMean(children []any, depth int) float64 {
	sum := 0.0
	for _, c := range children {
		sum += a.structureNorm(c, depth+1)
	}
	return sum / float64(len(children))
}

// sizeScore favors small containers: 1 at size 0, dropping
// logarithmically toward 0 as size approaches 100.
func sizeScore(n int) float64 {
	return coherence.Clamp01(1 - coherence.LogNormalize(float64(n)))
}

// typeHomogeneity is the share of children holding the most common
// value type.
func typeHomogeneity(children []any) float64 {
	if len(children) == 0 {
		return 1.0
	}
	counts := make(map[string]int)
	top := 0
	for _, c := range children {
		tag := valueTypeTag(c)
		counts[tag]++
		if counts[tag] > top {
			top = counts[tag]
		}
	}
	return float64(top) / float64(len(children))
}

func childCount(v any) int {
	switch t := v.(type) {
	case map[string]any:
		return len(t)
	case []any:
		return len(t)
	default:
		return 0
	}
}
