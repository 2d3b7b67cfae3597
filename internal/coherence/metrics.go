package coherence

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ltikhonov/primordia/internal/model"
)

// sentinelValue is returned when a measure's inputs are missing. It is
// deliberately mid-scale: not evidence of coherence, not evidence of
// its absence.
const sentinelValue = 0.5

// Completeness scores how well the factor count covers the canonical
// representation's serialized size.
func Completeness(d *model.Decomposition, c *model.CanonicalRepresentation) model.CoherenceMeasure {
	if d == nil || c == nil {
		return sentinel(model.MetricCompleteness, "")
	}
	size := serializedLen(c.Value)
	value := float64(len(d.Factors)) / (math.Log(float64(size)) + 1)
	return model.CoherenceMeasure{
		Metric:        model.MetricCompleteness,
		Value:         Clamp01(value),
		Normalization: model.NormalizationLog,
	}
}

// Integrity blends factor-id uniqueness with per-factor value
// compactness. An empty decomposition has nothing inconsistent in it
// and scores 1.0.
func Integrity(d *model.Decomposition) model.CoherenceMeasure {
	if d == nil {
		return sentinel(model.MetricIntegrity, "")
	}
	if len(d.Factors) == 0 {
		return model.CoherenceMeasure{
			Metric:        model.MetricIntegrity,
			Value:         1.0,
			Normalization: model.NormalizationRatio,
		}
	}

	ids := make(map[string]struct{}, len(d.Factors))
	compactSum := 0.0
	for _, f := range d.Factors {
		ids[f.ID] = struct{}{}
		compactSum += math.Min(1, 10/float64(serializedLen(f.Value)))
	}
	uniqueRatio := float64(len(ids)) / float64(len(d.Factors))
	meanCompact := compactSum / float64(len(d.Factors))

	return model.CoherenceMeasure{
		Metric:        model.MetricIntegrity,
		Value:         Clamp01((uniqueRatio + meanCompact) / 2),
		Normalization: model.NormalizationRatio,
	}
}

// Invariance scores the share of the frame's declared invariant
// properties that are present in the canonical value. Dot-joined paths
// descend into nested objects and arrays. A frame declaring no
// invariants is vacuously satisfied. Transformation rules stay
// uninterpreted.
func Invariance(frame *model.ObserverFrame, c *model.CanonicalRepresentation) model.CoherenceMeasure {
	if frame == nil || c == nil {
		ref := ""
		if frame != nil {
			ref = frame.ID
		}
		return sentinel(model.MetricInvariance, ref)
	}
	if len(frame.Invariants) == 0 {
		return model.CoherenceMeasure{
			Metric:         model.MetricInvariance,
			Value:          1.0,
			Normalization:  model.NormalizationRelative,
			ReferenceFrame: frame.ID,
		}
	}

	present := 0
	for _, name := range frame.Invariants {
		if pathPresent(c.Value, name) {
			present++
		}
	}
	return model.CoherenceMeasure{
		Metric:         model.MetricInvariance,
		Value:          Clamp01(float64(present) / float64(len(frame.Invariants))),
		Normalization:  model.NormalizationRelative,
		ReferenceFrame: frame.ID,
	}
}

// Trilateral is the arithmetic mean of the three pairwise measures,
// requiring all three corners of the binding.
func Trilateral(d *model.Decomposition, c *model.CanonicalRepresentation, frame *model.ObserverFrame) model.CoherenceMeasure {
	if d == nil || c == nil || frame == nil {
		ref := ""
		if frame != nil {
			ref = frame.ID
		}
		return sentinel(model.MetricTrilateral, ref)
	}
	mean := (Completeness(d, c).Value + Integrity(d).Value + Invariance(frame, c).Value) / 3
	return model.CoherenceMeasure{
		Metric:         model.MetricTrilateral,
		Value:          Clamp01(mean),
		Normalization:  model.NormalizationMean,
		ReferenceFrame: frame.ID,
	}
}

// Optimal is the maximum over the applicable measures.
func Optimal(measures []model.CoherenceMeasure) model.CoherenceMeasure {
	if len(measures) == 0 {
		return sentinel(model.MetricOptimal, "")
	}
	best := 0.0
	ref := ""
	for _, m := range measures {
		if m.Value > best {
			best = m.Value
		}
		if m.ReferenceFrame != "" {
			ref = m.ReferenceFrame
		}
	}
	return model.CoherenceMeasure{
		Metric:         model.MetricOptimal,
		Value:          Clamp01(best),
		Normalization:  model.NormalizationMax,
		ReferenceFrame: ref,
	}
}

// MeasureAll computes the full measure set for a report: completeness
// and integrity always, invariance and trilateral when a frame is
// given, and the optimum over whatever was computed.
func MeasureAll(d *model.Decomposition, c *model.CanonicalRepresentation, frame *model.ObserverFrame) []model.CoherenceMeasure {
	measures := []model.CoherenceMeasure{
		Completeness(d, c),
		Integrity(d),
	}
	if frame != nil {
		measures = append(measures, Invariance(frame, c), Trilateral(d, c, frame))
	}
	return append(measures, Optimal(measures))
}

func sentinel(metric, ref string) model.CoherenceMeasure {
	return model.CoherenceMeasure{
		Metric:         metric,
		Value:          sentinelValue,
		Normalization:  model.NormalizationSentinel,
		ReferenceFrame: ref,
	}
}

// serializedLen is the JSON length of a value, never below 1.
func serializedLen(v any) int {
	data, err := json.Marshal(v)
	if err != nil || len(data) == 0 {
		return 1
	}
	return len(data)
}

// pathPresent walks a dot-joined property path through nested maps and
// arrays.
func pathPresent(value any, path string) bool {
	current := value
	for _, segment := range strings.Split(path, ".") {
		switch t := current.(type) {
		case map[string]any:
			next, ok := t[segment]
			if !ok {
				return false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(t) {
				return false
			}
			current = t[idx]
		default:
			return false
		}
	}
	return true
}
