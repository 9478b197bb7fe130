// Package cardio detects heart beats on an ECG-like channel and derives
// heart-rate statistics and tachycardia/bradycardia episode counts, with
// a marker-count fallback when the signal cannot support beat detection.
package cardio

import (
	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/dsp"
)

// DetectRPeaks locates R-peak sample indices in one contiguous stretch of
// ECG signal. The chain is: median baseline removal, band-pass (skipped
// for short signals or when the band exceeds Nyquist), squaring, median
// smoothing, percentile thresholding (global or per-window adaptive), a
// 0.3 s refractory local-maximum scan, and an optional amplitude
// re-validation against the raw signal.
func DetectRPeaks(x []float64, sampleRate float64, cfg *config.AnalysisConfig) []int {
	if len(x) == 0 || sampleRate <= 0 {
		return nil
	}

	clean := make([]float64, len(x))
	baseline := dsp.Median(x)
	for i, v := range x {
		clean[i] = v - baseline
	}

	filtered := clean
	if len(clean) > 100 {
		if f, err := dsp.Bandpass(clean, sampleRate, cfg.GetECGFilterLowHz(), cfg.GetECGFilterHighHz()); err == nil {
			filtered = f
		}
	}

	squared := make([]float64, len(filtered))
	for i, v := range filtered {
		squared[i] = v * v
	}

	kernel := int(cfg.GetECGSmoothWindowSecs() * sampleRate)
	if kernel%2 == 0 {
		kernel++
	}
	smoothed := dsp.MedFilt(squared, kernel)

	var thresholds []float64
	if cfg.GetAdaptiveThreshold() {
		thresholds = adaptiveThresholds(smoothed, sampleRate)
	} else {
		t := dsp.Percentile(smoothed, 85)
		thresholds = make([]float64, len(smoothed))
		for i := range thresholds {
			thresholds[i] = t
		}
	}

	refractory := int(0.3 * sampleRate)
	var peaks []int
	for i := range smoothed {
		if smoothed[i] <= thresholds[i] {
			continue
		}
		if i > 0 && smoothed[i] <= smoothed[i-1] {
			continue
		}
		if i < len(smoothed)-1 && smoothed[i] <= smoothed[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < refractory {
			continue
		}
		peaks = append(peaks, i)
	}

	if cfg.GetValidatePeaks() && len(peaks) > 0 {
		floor := dsp.Median(x) + 0.1*dsp.PopStd(x)
		valid := peaks[:0]
		for _, p := range peaks {
			if x[p] > floor {
				valid = append(valid, p)
			}
		}
		peaks = valid
	}

	return peaks
}

// adaptiveThresholds fills a per-sample threshold array from the 85th
// percentile of 5-second windows with 50% overlap; later windows
// overwrite the overlapped half, tracking the local signal level.
func adaptiveThresholds(x []float64, sampleRate float64) []float64 {
	window := int(5 * sampleRate)
	out := make([]float64, len(x))

	if window < 1 || len(x) < window {
		t := dsp.Percentile(x, 85)
		for i := range out {
			out[i] = t
		}
		return out
	}

	step := window / 2
	if step < 1 {
		step = 1 // a one-sample window must still advance
	}
	for start := 0; start < len(x); start += step {
		end := start + window
		if end > len(x) {
			end = len(x)
		}
		t := dsp.Percentile(x[start:end], 85)
		for i := start; i < end; i++ {
			out[i] = t
		}
	}
	return out
}
