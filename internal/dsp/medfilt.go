package dsp

import "sort"

// MedFilt applies a sliding-window median filter with the given odd
// kernel size. The edges are treated as zero-padded, so the output has
// the same length as the input. An even kernel is rounded up.
func MedFilt(x []float64, kernel int) []float64 {
	if kernel < 1 {
		kernel = 1
	}
	if kernel%2 == 0 {
		kernel++
	}
	if kernel == 1 || len(x) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	half := kernel / 2
	out := make([]float64, len(x))
	window := make([]float64, kernel)
	for i := range x {
		window = window[:0]
		for j := i - half; j <= i+half; j++ {
			if j < 0 || j >= len(x) {
				window = append(window, 0)
			} else {
				window = append(window, x[j])
			}
		}
		sort.Float64s(window)
		out[i] = window[kernel/2]
	}
	return out
}
