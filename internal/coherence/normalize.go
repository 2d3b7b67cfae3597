// Package coherence scores decompositions and canonical representations.
// Every function is pure and returns values in [0,1].
package coherence

import "math"

// logScale anchors logarithmic normalization so that a raw value of 100
// maps to 1.0.
const logScale = 100

// Clamp01 clips v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LogNormalize maps a non-negative magnitude onto [0,1] with
// logarithmic compression: ln(v+1)/ln(101).
func LogNormalize(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return Clamp01(math.Log(v+1) / math.Log(logScale+1))
}

// ExpNormalize maps a non-negative magnitude onto [0,1) with
// exponential saturation: 1 - e^-v.
func ExpNormalize(v float64) float64 {
	if v < 0 {
		v = 0
	}
	return Clamp01(1 - math.Exp(-v))
}

// RelativeNormalize maps a signed score in [-1,1] onto [0,1], with 0
// landing at 0.5.
func RelativeNormalize(v float64) float64 {
	return Clamp01(0.5 + v/2)
}
