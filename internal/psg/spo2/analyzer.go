// Package spo2 computes oxygen-saturation statistics and
// time-below-threshold estimates, artifact-aware.
package spo2

import (
	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/dsp"
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/artifact"
)

// Desaturation thresholds in percent saturation.
const (
	Threshold90 = 90.0
	Threshold85 = 85.0
)

// Stats is the oxygen-saturation analysis result. The statistics are nil
// when no in-range samples survive masking; the time-below fields are
// zero in that case.
type Stats struct {
	AvgSpO2      *float64
	MinSpO2      *float64
	SpO2Baseline *float64

	TimeBelow90Min int
	TimeBelow85Min int
}

// Analyze computes saturation statistics over the role-matched SpO2
// channel, restricted to physiologically valid raw values and, when a
// mask is supplied, to valid samples.
//
// Time below each threshold extrapolates the exceedance rate observed on
// the valid span over the full recording, scaled by the valid-sample
// fraction. This deliberately differs from a naive sample-count-to-time
// conversion and under some artifact distributions discounts masked time
// twice; the behaviour is kept as the reference statistics were defined.
func Analyze(rec *psg.Recording, mask []bool, cfg *config.AnalysisConfig) Stats {
	if cfg == nil {
		cfg = config.Default()
	}

	ch := rec.FindChannel(psg.SpO2Keywords)
	if ch == nil || len(ch.Samples) == 0 {
		return Stats{}
	}

	// SpO2 typically samples far below the reference rate; project the
	// mask onto this channel's grid before indexing with sample numbers.
	chMask := artifact.ForChannel(mask, rec.SampleRate, ch)

	minValid := cfg.GetSpO2MinValid()
	maxValid := cfg.GetSpO2MaxValid()

	usable := func(i int) bool {
		v := ch.Samples[i]
		if v < minValid || v > maxValid {
			return false
		}
		return chMask == nil || chMask[i]
	}

	var valid []float64
	for i := range ch.Samples {
		if usable(i) {
			valid = append(valid, ch.Samples[i])
		}
	}
	if len(valid) == 0 {
		return Stats{}
	}

	avg := dsp.Median(valid)
	min := dsp.Percentile(valid, 1)
	baseline := dsp.Percentile(valid, 90)
	s := Stats{AvgSpO2: &avg, MinSpO2: &min, SpO2Baseline: &baseline}

	if chMask == nil {
		return s
	}

	var totalValid, below90, below85 int
	for i := range ch.Samples {
		if chMask[i] {
			totalValid++
		}
		if !usable(i) {
			continue
		}
		if ch.Samples[i] < Threshold90 {
			below90++
		}
		if ch.Samples[i] < Threshold85 {
			below85++
		}
	}
	if totalValid == 0 {
		return s
	}

	// Monotonicity holds on the raw masked counts by construction (the
	// 85% set is a subset of the 90% set); the extrapolation preserves it
	// because both use the same scaling. All counts and the ratio are on
	// the channel's own grid so mixed-rate recordings stay consistent.
	durationMin := rec.Duration / 60
	validRatio := float64(totalValid) / float64(len(chMask))

	s.TimeBelow90Min = int(float64(below90) / float64(totalValid) * durationMin * validRatio)
	s.TimeBelow85Min = int(float64(below85) / float64(totalValid) * durationMin * validRatio)
	return s
}
