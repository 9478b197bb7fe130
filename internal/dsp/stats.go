// Package dsp provides the signal-processing primitives the analyzers
// share: IIR band-pass filtering, median filtering, peak detection with
// prominence/width constraints, Welch power spectral density, and the
// percentile helpers every threshold in the engine is defined in terms of.
package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile returns the p-th percentile (0..100) of x using linear
// interpolation between order statistics. This matches the interpolation
// the analysis thresholds were tuned against; gonum's stat.Quantile
// cumulant kinds interpolate differently, so this stays local.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile of x.
func Median(x []float64) float64 { return Percentile(x, 50) }

// Mean returns the arithmetic mean of x.
func Mean(x []float64) float64 { return stat.Mean(x, nil) }

// PopStd returns the population standard deviation of x. The heart-rate
// variability statistic is defined over the full retained interval set,
// not a sample estimate, so the divisor is n rather than n-1.
func PopStd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	m := stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}

// IQRFilter returns the elements of x within [Q1-1.5*IQR, Q3+1.5*IQR].
func IQRFilter(x []float64) []float64 {
	q1 := Percentile(x, 25)
	q3 := Percentile(x, 75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	out := make([]float64, 0, len(x))
	for _, v := range x {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// Diff returns the consecutive differences of x (length len(x)-1).
func Diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}
