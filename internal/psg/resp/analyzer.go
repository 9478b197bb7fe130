package resp

import (
	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/dsp"
	"github.com/somnolab/sleep.report/internal/monitoring"
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/artifact"
)

// Signal quality grades reported alongside the statistics.
const (
	QualityGood         = "good"
	QualityModerate     = "moderate"
	QualityNoChannel    = "no_channel"
	QualityNoSignal     = "no_signal"
	QualityInvalidRates = "invalid_rates"
)

// Stats is the breathing-rate analysis result (breaths/min). All three
// statistics are nil when no usable signal was found.
type Stats struct {
	AvgRespRate *float64
	MinRespRate *float64
	MaxRespRate *float64

	SignalQuality string
}

// Analyze estimates breathing rate from up to the configured number of
// role-matched respiratory channels, pooling per-channel, per-segment,
// per-method estimates before the final outlier rejection.
func Analyze(rec *psg.Recording, mask []bool, cfg *config.AnalysisConfig) Stats {
	if cfg == nil {
		cfg = config.Default()
	}

	channels := rec.FindChannels(psg.RespKeywords)
	if len(channels) == 0 {
		return Stats{SignalQuality: QualityNoChannel}
	}
	if max := cfg.GetRespMaxChannels(); len(channels) > max {
		channels = channels[:max]
	}

	var pooled []float64
	for _, ch := range channels {
		pooled = append(pooled, analyzeChannel(ch, mask, rec.SampleRate, cfg)...)
	}
	if len(pooled) == 0 {
		return Stats{SignalQuality: QualityNoSignal}
	}

	// Strict physiological band first, then the loose fallback band.
	rates := filterBand(pooled, cfg.GetRespRateMin(), cfg.GetRespRateMax())
	if len(rates) < 5 {
		rates = filterBand(pooled, cfg.GetRespRateLooseMin(), cfg.GetRespRateLooseMax())
	}
	if len(rates) == 0 {
		return Stats{SignalQuality: QualityInvalidRates}
	}

	final := rates
	if len(rates) > 5 {
		final = dsp.IQRFilter(rates)
		if len(final) < 3 {
			final = rates
		}
	}

	avg := dsp.Median(final)
	min := dsp.Percentile(final, 10)
	max := dsp.Percentile(final, 90)

	quality := QualityModerate
	if len(final) >= 10 {
		quality = QualityGood
	}

	return Stats{
		AvgRespRate:   &avg,
		MinRespRate:   &min,
		MaxRespRate:   &max,
		SignalQuality: quality,
	}
}

// analyzeChannel runs the estimator cascade over each valid stretch of
// one channel, falling back to the whole channel when the mask leaves
// nothing analyzable. The mask is projected from the reference grid onto
// the channel's own sample grid before segmenting.
func analyzeChannel(ch *psg.Channel, mask []bool, refRate float64, cfg *config.AnalysisConfig) []float64 {
	ests := estimators(cfg)

	if chMask := artifact.ForChannel(mask, refRate, ch); chMask != nil {
		minLen := int(ch.SampleRate * cfg.GetRespMinSegmentSecs())
		segments := artifact.ContiguousSegments(chMask, minLen)

		var rates []float64
		for _, seg := range segments {
			rates = append(rates, analyzeStretch(ch.Samples[seg.Start:seg.End], ch.SampleRate, cfg, ests)...)
		}
		if len(rates) > 0 {
			return rates
		}
	}

	return analyzeStretch(ch.Samples, ch.SampleRate, cfg, ests)
}

func analyzeStretch(signal []float64, sampleRate float64, cfg *config.AnalysisConfig, ests []RateEstimator) []float64 {
	clean, ok := preprocess(signal, sampleRate, cfg)
	if !ok {
		return nil
	}

	var rates []float64
	for _, est := range ests {
		rates = append(rates, est.Estimate(clean, sampleRate)...)
	}
	return rates
}

// preprocess removes the median baseline, normalizes by the standard
// deviation, and band-limits the result when the sampling rate supports
// the configured band. A near-flat signal is reported as unusable.
func preprocess(signal []float64, sampleRate float64, cfg *config.AnalysisConfig) ([]float64, bool) {
	if len(signal) == 0 {
		return nil, false
	}

	baseline := dsp.Median(signal)
	cleaned := make([]float64, len(signal))
	for i, v := range signal {
		cleaned[i] = v - baseline
	}

	std := dsp.PopStd(cleaned)
	if std < 1e-8 {
		return nil, false
	}
	for i := range cleaned {
		cleaned[i] /= std
	}

	low := cfg.GetRespFilterLowHz()
	high := cfg.GetRespFilterHighHz()
	if high >= sampleRate/2 || low <= 0 {
		return cleaned, true
	}

	filtered, err := dsp.Bandpass(cleaned, sampleRate, low, high)
	if err != nil {
		monitoring.Logf("resp: band-pass %g..%g Hz failed (%v), using unfiltered signal", low, high, err)
		return cleaned, true
	}
	return filtered, true
}

func filterBand(rates []float64, min, max float64) []float64 {
	out := make([]float64, 0, len(rates))
	for _, r := range rates {
		if r >= min && r <= max {
			out = append(out, r)
		}
	}
	return out
}
