package dsp

import "sort"

// PeakOptions constrains FindPeaks. Zero values disable a constraint
// (Distance of 0 or 1 means adjacent peaks are allowed).
type PeakOptions struct {
	MinHeight     float64 // minimum sample value at the peak
	MinDistance   int     // minimum samples between retained peaks
	MinProminence float64 // minimum prominence
	MinWidth      float64 // minimum width in samples at half prominence
	WLen          int     // window limiting the prominence base search
}

// FindPeaks locates local maxima of x subject to the options, applying
// the constraints in the order height, distance, prominence, width.
// Returned indices are ascending. Flat peak tops resolve to their middle
// sample.
func FindPeaks(x []float64, opt PeakOptions) []int {
	maxima := localMaxima(x)

	if opt.MinHeight > 0 {
		kept := maxima[:0]
		for _, p := range maxima {
			if x[p] >= opt.MinHeight {
				kept = append(kept, p)
			}
		}
		maxima = kept
	}

	if opt.MinDistance > 1 {
		maxima = enforceDistance(x, maxima, opt.MinDistance)
	}

	var proms []float64
	if opt.MinProminence > 0 || opt.MinWidth > 0 {
		proms = prominences(x, maxima, opt.WLen)
	}

	if opt.MinProminence > 0 {
		kept := maxima[:0]
		keptProms := proms[:0]
		for i, p := range maxima {
			if proms[i] >= opt.MinProminence {
				kept = append(kept, p)
				keptProms = append(keptProms, proms[i])
			}
		}
		maxima = kept
		proms = keptProms
	}

	if opt.MinWidth > 0 {
		kept := maxima[:0]
		for i, p := range maxima {
			if peakWidth(x, p, proms[i]) >= opt.MinWidth {
				kept = append(kept, p)
			}
		}
		maxima = kept
	}

	out := make([]int, len(maxima))
	copy(out, maxima)
	return out
}

// localMaxima returns indices of strict local maxima, resolving plateaus
// to their middle sample.
func localMaxima(x []float64) []int {
	var peaks []int
	i := 1
	for i < len(x)-1 {
		if x[i] <= x[i-1] {
			i++
			continue
		}
		// x[i] > x[i-1]; scan across a possible plateau.
		j := i
		for j < len(x)-1 && x[j+1] == x[i] {
			j++
		}
		if j < len(x)-1 && x[j+1] < x[i] {
			peaks = append(peaks, (i+j)/2)
		}
		i = j + 1
	}
	return peaks
}

// enforceDistance keeps the highest peaks first, discarding any peak
// closer than dist samples to one already kept.
func enforceDistance(x []float64, peaks []int, dist int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return x[peaks[order[a]]] > x[peaks[order[b]]] })

	removed := make([]bool, len(peaks))
	for _, oi := range order {
		if removed[oi] {
			continue
		}
		for j := oi - 1; j >= 0 && peaks[oi]-peaks[j] < dist; j-- {
			removed[j] = true
		}
		for j := oi + 1; j < len(peaks) && peaks[j]-peaks[oi] < dist; j++ {
			removed[j] = true
		}
	}

	var kept []int
	for i, p := range peaks {
		if !removed[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// prominences computes the topographic prominence of each peak. wlen > 0
// restricts the base search to a window of that many samples centred on
// the peak.
func prominences(x []float64, peaks []int, wlen int) []float64 {
	out := make([]float64, len(peaks))
	for i, p := range peaks {
		lo, hi := 0, len(x)-1
		if wlen > 1 {
			half := wlen / 2
			if p-half > lo {
				lo = p - half
			}
			if p+half < hi {
				hi = p + half
			}
		}

		leftMin := x[p]
		for j := p - 1; j >= lo; j-- {
			if x[j] > x[p] {
				break
			}
			if x[j] < leftMin {
				leftMin = x[j]
			}
		}
		rightMin := x[p]
		for j := p + 1; j <= hi; j++ {
			if x[j] > x[p] {
				break
			}
			if x[j] < rightMin {
				rightMin = x[j]
			}
		}

		base := leftMin
		if rightMin > base {
			base = rightMin
		}
		out[i] = x[p] - base
	}
	return out
}

// peakWidth measures the width of the peak in samples at half prominence,
// interpolating the crossing points.
func peakWidth(x []float64, p int, prom float64) float64 {
	h := x[p] - 0.5*prom

	left := float64(p)
	for j := p - 1; j >= 0; j-- {
		if x[j] <= h {
			// Interpolate between j and j+1.
			left = float64(j) + (h-x[j])/(x[j+1]-x[j])
			break
		}
		left = float64(j)
	}

	right := float64(p)
	for j := p + 1; j < len(x); j++ {
		if x[j] <= h {
			right = float64(j) - (h-x[j])/(x[j-1]-x[j])
			break
		}
		right = float64(j)
	}

	return right - left
}
