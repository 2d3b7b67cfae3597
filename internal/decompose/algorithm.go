// Package decompose implements the prime-factor decomposition engine:
// the algorithm contract, the per-domain algorithms, the domain
// configuration catalog, and the registry/manager that dispatch inputs
// to algorithms.
//
// Every operation is a pure synchronous function of its arguments.
// Nothing here performs I/O, logs, or keeps per-call state; the only
// shared structure is the registry/catalog pair, populated once by an
// idempotent initialization step.
package decompose

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ltikhonov/primordia/internal/model"
)

// Algorithm is the contract every domain decomposer commits to.
//
// Decompose fails with ErrInvalidInput when the value's shape does not
// match the domain's minimum structural requirement. Recompose fails
// with ErrInvalidDecomposition when required marker factors are missing
// or contradictory. Canonical never fails on a decomposition the same
// algorithm produced, and never mutates its input.
type Algorithm interface {
	Domain() model.Domain
	Decompose(input any) (*model.Decomposition, error)
	Recompose(d *model.Decomposition) (any, error)
	Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error)
}

// Failure taxonomy. All failures are synchronous and deterministic:
// retrying with the same input reproduces the same error.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidDecomposition   = errors.New("invalid decomposition")
	ErrDomainNotDetected      = errors.New("domain not detected")
	ErrAlgorithmNotRegistered = errors.New("algorithm not registered")
)

// DefaultMaxDepth bounds recursive structural traversal. Deeper input
// is rejected rather than risking stack exhaustion.
const DefaultMaxDepth = 64

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func invalidDecompositionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDecomposition, fmt.Sprintf(format, args...))
}

// uniquenessRef derives the decomposition's proof reference from the
// ordered factor-id sequence. Purely informational: equal inputs yield
// equal references, which is what downstream comparison needs.
func uniquenessRef(factors []model.PrimeFactor) string {
	h := sha256.New()
	for _, f := range factors {
		h.Write([]byte(f.ID))
		h.Write([]byte{'\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// minimalityRef hashes the canonical value's JSON serialization.
func minimalityRef(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// normalizeValue deep-copies v with all numeric types coerced to
// float64, so canonical values serialize identically whether the input
// arrived as decoded JSON or as Go literals.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// asNumber extracts a float64 from any numeric payload.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asObject coerces input to a JSON-style object, parsing string form.
func asObject(input any) (map[string]any, bool) {
	switch t := input.(type) {
	case map[string]any:
		return t, true
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, false
		}
		return m, true
	default:
		return nil, false
	}
}

// sortedKeys returns m's keys in lexical order. Object iteration is
// always sorted so factor order never depends on Go map ordering.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valueTypeTag names the runtime type of a leaf value the way the
// factor payloads record it.
func valueTypeTag(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}

func isCompound(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// joinPath appends a segment to a dot-joined path rooted at "$".
func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// requireFactor returns the factor with the given id or an
// ErrInvalidDecomposition describing the missing marker.
func requireFactor(d *model.Decomposition, id string) (*model.PrimeFactor, error) {
	f := d.Factor(id)
	if f == nil {
		return nil, invalidDecompositionf("missing %q marker factor", id)
	}
	return f, nil
}

// methodMatches reports whether a decomposition was produced for the
// given domain, tolerating a missing method tag when the factor tags
// agree.
func methodMatches(d *model.Decomposition, domain model.Domain) bool {
	if d.Method != "" {
		return strings.HasPrefix(d.Method, string(domain)+"/")
	}
	return d.Domain() == domain
}
