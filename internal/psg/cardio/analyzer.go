package cardio

import (
	"strings"

	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/dsp"
	"github.com/somnolab/sleep.report/internal/monitoring"
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/artifact"
)

// Analysis methods recorded in the result so downstream consumers can see
// whether rates came from beat detection or the marker fallback.
const (
	MethodECG     = "ecg"
	MethodMarkers = "markers"
)

// Stats is the heart-rate analysis result. Rate statistics are nil when
// the signal could not support beat detection; episode counts are always
// populated (from detection or from annotation markers).
type Stats struct {
	AvgHeartRate         *float64
	MinHeartRate         *float64
	MaxHeartRate         *float64
	HeartRateVariability *float64 // std of RR-range-retained intervals, ms

	TachycardiaEvents int
	BradycardiaEvents int

	AnalysisMethod string
}

// minimum contiguous valid stretch worth running beat detection on
const minSegmentSeconds = 10

// Analyze runs heart-rate analysis over the recording. The mask (may be
// nil) restricts beat detection to valid stretches. When no ECG channel
// exists, or too few beats or valid rates are found, the analysis
// degrades to counting tachycardia/bradycardia annotation markers.
func Analyze(rec *psg.Recording, mask []bool, cfg *config.AnalysisConfig) Stats {
	if cfg == nil {
		cfg = config.Default()
	}

	ch := rec.FindChannel(psg.ECGKeywords)
	if ch == nil || len(ch.Samples) == 0 {
		return analyzeFromMarkers(rec)
	}

	peaks := detectOverSegments(ch, mask, rec.SampleRate, cfg)
	if len(peaks) <= 100 {
		monitoring.Logf("cardio: only %d beats detected on %q, falling back to markers", len(peaks), ch.Name)
		return analyzeFromMarkers(rec)
	}

	rates, rrIntervals := ratesFromPeaks(peaks, ch.SampleRate, cfg)
	if len(rates) <= 5 {
		monitoring.Logf("cardio: only %d valid rates on %q, falling back to markers", len(rates), ch.Name)
		return analyzeFromMarkers(rec)
	}

	avg := dsp.Median(rates)
	min := dsp.Percentile(rates, 5)
	max := dsp.Percentile(rates, 95)

	rrMillis := make([]float64, len(rrIntervals))
	for i, rr := range rrIntervals {
		rrMillis[i] = rr * 1000
	}
	hrv := dsp.PopStd(rrMillis)

	tachy, brady := detectEpisodes(rates, cfg)

	return Stats{
		AvgHeartRate:         &avg,
		MinHeartRate:         &min,
		MaxHeartRate:         &max,
		HeartRateVariability: &hrv,
		TachycardiaEvents:    tachy,
		BradycardiaEvents:    brady,
		AnalysisMethod:       MethodECG,
	}
}

// detectOverSegments runs beat detection on each maximal valid stretch
// and offsets the detected indices back into global sample coordinates.
// The reference-resolution mask is projected onto the channel's own grid
// first; without a usable mask the whole channel is analyzed at once.
func detectOverSegments(ch *psg.Channel, mask []bool, refRate float64, cfg *config.AnalysisConfig) []int {
	chMask := artifact.ForChannel(mask, refRate, ch)
	if chMask == nil {
		return DetectRPeaks(ch.Samples, ch.SampleRate, cfg)
	}

	minLen := int(minSegmentSeconds * ch.SampleRate)
	segments := artifact.ContiguousSegments(chMask, minLen)

	var all []int
	for _, seg := range segments {
		for _, p := range DetectRPeaks(ch.Samples[seg.Start:seg.End], ch.SampleRate, cfg) {
			all = append(all, p+seg.Start)
		}
	}
	return all
}

// ratesFromPeaks converts beat indices to retained heart rates and RR
// intervals. The RR-range filter retains intervals for variability; the
// HR band additionally gates which of them produce rates.
func ratesFromPeaks(peaks []int, sampleRate float64, cfg *config.AnalysisConfig) (rates, rrIntervals []float64) {
	rrMin := cfg.GetRRMinSeconds()
	rrMax := cfg.GetRRMaxSeconds()
	hrMin := cfg.GetHRMin()
	hrMax := cfg.GetHRMax()

	for i := 1; i < len(peaks); i++ {
		rr := float64(peaks[i]-peaks[i-1]) / sampleRate
		if rr <= rrMin || rr >= rrMax {
			continue
		}
		rrIntervals = append(rrIntervals, rr)
		hr := 60.0 / rr
		if hr < hrMin || hr > hrMax {
			continue
		}
		rates = append(rates, hr)
	}
	return rates, rrIntervals
}

// analyzeFromMarkers tallies tachycardia/bradycardia annotation markers.
// All rate statistics stay undefined on this path.
func analyzeFromMarkers(rec *psg.Recording) Stats {
	s := Stats{AnalysisMethod: MethodMarkers}
	for _, ev := range rec.Annotations {
		switch {
		case strings.Contains(ev.Description, psg.MarkerTachycardia):
			s.TachycardiaEvents++
		case strings.Contains(ev.Description, psg.MarkerBradycardia):
			s.BradycardiaEvents++
		}
	}
	return s
}
