// Package resp estimates breathing rate from respiratory-effort/flow
// channels using complementary peak-based and spectral methods whose
// per-segment estimates are pooled and outlier-filtered.
package resp

import (
	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/dsp"
)

// RateEstimator produces breathing-rate estimates (breaths/min) from one
// preprocessed signal stretch. An empty result means the method could not
// extract enough data; the caller moves on to the next estimator.
type RateEstimator interface {
	Name() string
	Estimate(signal []float64, sampleRate float64) []float64
}

// estimators returns the configured estimator cascade in order.
func estimators(cfg *config.AnalysisConfig) []RateEstimator {
	list := []RateEstimator{peakEstimator{}}
	if cfg.GetSpectralEstimator() {
		list = append(list, spectralEstimator{lowHz: cfg.GetRespFilterLowHz()})
	}
	if cfg.GetSegmentedEstimator() {
		list = append(list, segmentedEstimator{windowSecs: cfg.GetSegmentedWindowSecs()})
	}
	return list
}

// peakEstimator derives one rate per breath-to-breath interval from
// detected inhalation peaks, retrying with relaxed prominence and height
// when the strict pass finds too few peaks.
type peakEstimator struct{}

func (peakEstimator) Name() string { return "peaks" }

func (peakEstimator) Estimate(signal []float64, sampleRate float64) []float64 {
	if len(signal) < int(sampleRate*20) {
		return nil
	}

	mean := dsp.Mean(signal)
	std := dsp.PopStd(signal)
	normalized := make([]float64, len(signal))
	for i, v := range signal {
		normalized[i] = (v - mean) / (std + 1e-8)
	}

	minDistance := int(0.6 * sampleRate)
	peaks := dsp.FindPeaks(normalized, dsp.PeakOptions{
		MinDistance:   minDistance,
		MinProminence: 0.05,
		MinHeight:     0.02,
		MinWidth:      0.2 * sampleRate,
		WLen:          int(2 * sampleRate),
	})

	if len(peaks) < 3 {
		// Relaxed retry: same refractory distance, no width constraint.
		peaks = dsp.FindPeaks(normalized, dsp.PeakOptions{
			MinDistance:   minDistance,
			MinProminence: 0.02,
			MinHeight:     0.01,
		})
	}
	if len(peaks) < 3 {
		return nil
	}

	var intervals []float64
	for i := 1; i < len(peaks); i++ {
		iv := float64(peaks[i]-peaks[i-1]) / sampleRate
		if iv >= 0.5 && iv <= 10.0 {
			intervals = append(intervals, iv)
		}
	}
	if len(intervals) < 2 {
		return nil
	}

	var rates []float64
	for _, iv := range intervals {
		r := 60.0 / iv
		if r >= 6 && r <= 60 {
			rates = append(rates, r)
		}
	}

	if len(rates) > 5 {
		rates = dsp.IQRFilter(rates)
	}
	return rates
}

// spectralEstimator picks the dominant frequency peak of the Welch power
// spectrum inside the respiratory band and converts it to breaths/min.
type spectralEstimator struct {
	lowHz float64
}

func (spectralEstimator) Name() string { return "spectral" }

// Upper edge of the spectral respiratory band. Narrower than the
// preprocessing band-pass so harmonics of fast breathing don't win.
const spectralHighHz = 0.7

func (e spectralEstimator) Estimate(signal []float64, sampleRate float64) []float64 {
	freqs, psd := dsp.Welch(signal, sampleRate, 1024)
	if len(psd) == 0 {
		return nil
	}

	var bandFreqs, bandPower []float64
	for i, f := range freqs {
		if f >= e.lowHz && f <= spectralHighHz {
			bandFreqs = append(bandFreqs, f)
			bandPower = append(bandPower, psd[i])
		}
	}
	if len(bandPower) == 0 {
		return nil
	}

	var maxPower float64
	for _, p := range bandPower {
		if p > maxPower {
			maxPower = p
		}
	}

	peaks := dsp.FindPeaks(bandPower, dsp.PeakOptions{MinHeight: maxPower * 0.1})
	if len(peaks) == 0 {
		return nil
	}

	rate := bandFreqs[peaks[0]] * 60
	if rate < 8 || rate > 40 {
		return nil
	}
	return []float64{rate}
}

// segmentedEstimator re-applies the peak method over fixed windows and
// keeps one median rate per window, catching rate drift the whole-segment
// pass smears out.
type segmentedEstimator struct {
	windowSecs float64
}

func (segmentedEstimator) Name() string { return "segmented" }

func (e segmentedEstimator) Estimate(signal []float64, sampleRate float64) []float64 {
	window := int(e.windowSecs * sampleRate)
	if window < 1 || len(signal) <= window {
		return nil
	}

	var rates []float64
	pe := peakEstimator{}
	for start := 0; start+window <= len(signal); start += window {
		windowRates := pe.Estimate(signal[start:start+window], sampleRate)
		if len(windowRates) < 2 {
			continue
		}
		r := dsp.Median(windowRates)
		if r >= 8 && r <= 40 {
			rates = append(rates, r)
		}
	}
	return rates
}
