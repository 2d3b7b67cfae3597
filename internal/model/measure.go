package model

// CoherenceMeasure is a normalized score quantifying one aspect of
// representational quality. Value is always in [0,1].
type CoherenceMeasure struct {
	Metric         string  `json:"metric"`
	Value          float64 `json:"value"`
	Normalization  string  `json:"normalization"`
	ReferenceFrame string  `json:"referenceFrame,omitempty"`
}

// Metric tags.
const (
	MetricCompleteness = "representation-completeness"
	MetricIntegrity    = "factor-integrity"
	MetricInvariance   = "observer-invariance"
	MetricTrilateral   = "trilateral-coherence"
	MetricOptimal      = "optimal-coherence"
)

// Normalization method tags recorded on measures.
const (
	NormalizationLog      = "logarithmic"
	NormalizationExp      = "exponential"
	NormalizationRelative = "relative"
	NormalizationRatio    = "ratio"
	NormalizationMean     = "arithmetic-mean"
	NormalizationMax      = "max"
	NormalizationSentinel = "insufficient-data"
)
