package spo2

import (
	"testing"

	"github.com/somnolab/sleep.report/internal/psg"
)

func spo2Recording(samples []float64) *psg.Recording {
	return &psg.Recording{
		Duration:   float64(len(samples)), // 1 Hz
		SampleRate: 1,
		Channels: []psg.Channel{
			{Name: "SpO2", SampleRate: 1, Samples: samples},
		},
	}
}

func constSamples(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func allValid(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func TestAnalyzeBasicStatistics(t *testing.T) {
	rec := spo2Recording(constSamples(96, 600))
	s := Analyze(rec, nil, nil)

	if s.AvgSpO2 == nil || *s.AvgSpO2 != 96 {
		t.Fatalf("AvgSpO2 = %v, want 96", s.AvgSpO2)
	}
	if *s.MinSpO2 != 96 || *s.SpO2Baseline != 96 {
		t.Errorf("min=%v baseline=%v, want 96", *s.MinSpO2, *s.SpO2Baseline)
	}
	// No mask: time-below fields stay zero.
	if s.TimeBelow90Min != 0 || s.TimeBelow85Min != 0 {
		t.Errorf("time below = %d/%d without a mask, want 0/0",
			s.TimeBelow90Min, s.TimeBelow85Min)
	}
}

func TestAnalyzeNoChannel(t *testing.T) {
	rec := &psg.Recording{Duration: 100, SampleRate: 1,
		Channels: []psg.Channel{{Name: "EEG"}}}
	s := Analyze(rec, nil, nil)
	if s.AvgSpO2 != nil {
		t.Error("statistics should be nil without an SpO2 channel")
	}
}

func TestAnalyzeIgnoresOutOfRangeValues(t *testing.T) {
	// 74 and 101 are outside the 75..100 validity range.
	samples := append(constSamples(95, 100), 74, 74, 101, 101)
	rec := spo2Recording(samples)
	s := Analyze(rec, nil, nil)
	if s.AvgSpO2 == nil || *s.AvgSpO2 != 95 {
		t.Errorf("AvgSpO2 = %v, want 95 (invalid samples excluded)", s.AvgSpO2)
	}
}

func TestAnalyzeAllInvalid(t *testing.T) {
	rec := spo2Recording(constSamples(40, 100))
	s := Analyze(rec, nil, nil)
	if s.AvgSpO2 != nil {
		t.Errorf("AvgSpO2 = %v, want nil when nothing is in range", *s.AvgSpO2)
	}
}

func TestTimeBelowThresholds(t *testing.T) {
	// 60 minutes at 1 Hz: 25% of samples at 88 (<90), 10% at 83 (<85).
	n := 3600
	samples := make([]float64, n)
	for i := range samples {
		switch {
		case i < n/10:
			samples[i] = 83
		case i < n/4:
			samples[i] = 88
		default:
			samples[i] = 95
		}
	}
	rec := spo2Recording(samples)
	s := Analyze(rec, allValid(n), nil)

	// Full validity: extrapolation reduces to the in-span fractions.
	if s.TimeBelow90Min != 15 {
		t.Errorf("TimeBelow90Min = %d, want 15", s.TimeBelow90Min)
	}
	if s.TimeBelow85Min != 6 {
		t.Errorf("TimeBelow85Min = %d, want 6", s.TimeBelow85Min)
	}
}

func TestTimeBelowMonotonic(t *testing.T) {
	// The sub-85 set is a subset of the sub-90 set, so the estimates
	// must never invert, whatever the mask.
	n := 1800
	samples := make([]float64, n)
	for i := range samples {
		switch {
		case i%7 == 0:
			samples[i] = 82
		case i%3 == 0:
			samples[i] = 87
		default:
			samples[i] = 93
		}
	}
	mask := allValid(n)
	for i := 0; i < n; i += 5 {
		mask[i] = false
	}

	s := Analyze(spo2Recording(samples), mask, nil)
	if s.TimeBelow85Min > s.TimeBelow90Min {
		t.Errorf("TimeBelow85 (%d) exceeds TimeBelow90 (%d)",
			s.TimeBelow85Min, s.TimeBelow90Min)
	}
}

func TestAnalyzeMixedRateMask(t *testing.T) {
	// The reference grid runs at 10 Hz while SpO2 samples at 1 Hz. An
	// artifact over the second half of the night must exclude the
	// desaturated half even though the mask is ten times denser than the
	// channel.
	const n = 600 // seconds
	samples := append(constSamples(95, n/2), constSamples(80, n/2)...)
	rec := &psg.Recording{
		Duration:   n,
		SampleRate: 10,
		Channels: []psg.Channel{
			{Name: "SpO2", SampleRate: 1, Samples: samples},
		},
	}
	mask := make([]bool, n*10)
	for i := range mask {
		mask[i] = i < n*10/2
	}

	s := Analyze(rec, mask, nil)
	if s.AvgSpO2 == nil || *s.AvgSpO2 != 95 {
		t.Fatalf("AvgSpO2 = %v, want 95 (masked half excluded)", s.AvgSpO2)
	}
	if s.TimeBelow90Min != 0 || s.TimeBelow85Min != 0 {
		t.Errorf("time below = %d/%d, want 0/0 (desaturation fully masked)",
			s.TimeBelow90Min, s.TimeBelow85Min)
	}
}

func TestTimeBelowMixedRateRatio(t *testing.T) {
	// Same mixed-rate layout with the desaturation inside the valid
	// half: 60 of the 300 valid channel samples are below 90, so the
	// extrapolation on the channel's own grid gives
	// 60/300 * 10min * 0.5 = 1 minute.
	const n = 600
	samples := constSamples(95, n)
	for i := 0; i < 60; i++ {
		samples[i] = 88
	}
	rec := &psg.Recording{
		Duration:   n,
		SampleRate: 10,
		Channels: []psg.Channel{
			{Name: "SpO2", SampleRate: 1, Samples: samples},
		},
	}
	mask := make([]bool, n*10)
	for i := range mask {
		mask[i] = i < n*10/2
	}

	s := Analyze(rec, mask, nil)
	if s.TimeBelow90Min != 1 {
		t.Errorf("TimeBelow90Min = %d, want 1", s.TimeBelow90Min)
	}
	if s.TimeBelow85Min != 0 {
		t.Errorf("TimeBelow85Min = %d, want 0", s.TimeBelow85Min)
	}
}

func TestAnalyzeMaskExcludesSamples(t *testing.T) {
	// Desaturated span is fully masked out: statistics come from the
	// valid 95s only.
	samples := append(constSamples(80, 300), constSamples(95, 300)...)
	mask := make([]bool, 600)
	for i := range mask {
		mask[i] = i >= 300
	}
	s := Analyze(spo2Recording(samples), mask, nil)
	if s.AvgSpO2 == nil || *s.AvgSpO2 != 95 {
		t.Fatalf("AvgSpO2 = %v, want 95", s.AvgSpO2)
	}
	if s.TimeBelow90Min != 0 {
		t.Errorf("TimeBelow90Min = %d, want 0 (desaturation was masked)", s.TimeBelow90Min)
	}
}
