// Package pipeline wires the analyzers into a single run over one
// recording and assembles the MetricBundle handed downstream.
package pipeline

import (
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/staging"
)

// MetricBundle is the engine's sole output artifact: the flat metric set
// plus the ordered epoch sequence and stage-transition counts. Optional
// values are nil when the producing analyzer degraded.
type MetricBundle struct {
	StudyID string

	// Sleep architecture and timing
	TotalSleepTimeMin   float64
	TotalBedTimeMin     float64
	SleepEfficiency     float64
	SleepLatencyMin     *float64
	WakeAfterSleepOnset float64
	N1Minutes           float64
	N2Minutes           float64
	N3Minutes           float64
	REMMinutes          float64
	N1Percentage        *float64
	N2Percentage        *float64
	N3Percentage        *float64
	REMPercentage       *float64

	// REM detail
	REMLatencyMin   *float64
	REMEpochs       int
	REMCycles       int
	REMEvents       int
	REMDensity      float64
	REMQualityScore int
	REMStatus       string

	// Respiratory events and indices
	TotalApneas          int
	ObstructiveApneas    int
	CentralApneas        int
	MixedApneas          int
	TotalHypopneas       int
	ObstructiveHypopneas int
	CentralHypopneas     int
	MixedHypopneas       int
	TotalDesaturations   int
	TotalSnores          int
	CheyneStokesEpisodes int
	AHI                  float64
	AHISeverity          string
	AHIObstructive       float64
	AHICentral           float64
	AHIMixed             float64
	ODI                  float64
	SnoreIndex           float64

	// Oxygen saturation
	AvgSpO2        *float64
	MinSpO2        *float64
	SpO2Baseline   *float64
	TimeBelow90Min int
	TimeBelow85Min int

	// Heart rate
	AvgHeartRate         *float64
	MinHeartRate         *float64
	MaxHeartRate         *float64
	HeartRateVariability *float64
	TachycardiaEvents    int
	BradycardiaEvents    int
	HRAnalysisMethod     string

	// Respiration
	AvgRespRate       *float64
	MinRespRate       *float64
	MaxRespRate       *float64
	RespSignalQuality string

	// Fragmentation
	TotalLimbMovements      int
	PeriodicLimbMovements   int
	PLMI                    float64
	BruxismEvents           int
	TotalArousals           int
	ArousalIndex            float64
	SleepFragmentationIndex float64

	// Composite
	OverallSleepQuality int
	SleepQualityStatus  string

	// Structure
	Epochs      []psg.Stage
	Hypnogram   staging.Hypnogram
	Transitions staging.Transitions

	// Artifacts
	ArtifactCount           int
	ArtifactDurationMinutes float64
}

// Field is one key/value pair of the flat metric mapping. Value is nil
// when the metric is undefined for this run.
type Field struct {
	Key   string
	Value interface{}
}

// Fields renders the bundle as the ordered flat key→value list consumed
// by the persistence and export formatters. Structure members (epochs,
// hypnogram, transitions) and artifact bookkeeping are not included;
// formatters pull those from the bundle directly.
func (m *MetricBundle) Fields() []Field {
	return []Field{
		{"total_sleep_time", int(m.TotalSleepTimeMin)},
		{"total_bed_time", int(m.TotalBedTimeMin)},
		{"sleep_efficiency", round2(m.SleepEfficiency)},
		{"sleep_latency", intOrZero(m.SleepLatencyMin)},
		{"wake_after_sleep_onset", int(m.WakeAfterSleepOnset)},
		{"n1_minutes", int(m.N1Minutes)},
		{"n2_minutes", int(m.N2Minutes)},
		{"n3_minutes", int(m.N3Minutes)},
		{"rem_minutes", int(m.REMMinutes)},
		{"n1_percentage", round2opt(m.N1Percentage)},
		{"n2_percentage", round2opt(m.N2Percentage)},
		{"n3_percentage", round2opt(m.N3Percentage)},
		{"rem_percentage", round2opt(m.REMPercentage)},
		{"rem_latency", intOrNil(m.REMLatencyMin)},
		{"rem_epochs", m.REMEpochs},
		{"rem_cycles", m.REMCycles},
		{"rem_events", m.REMEvents},
		{"rem_density", round2(m.REMDensity)},
		{"rem_quality_score", m.REMQualityScore},
		{"total_apneas", m.TotalApneas},
		{"obstructive_apneas", m.ObstructiveApneas},
		{"central_apneas", m.CentralApneas},
		{"mixed_apneas", m.MixedApneas},
		{"total_hypopneas", m.TotalHypopneas},
		{"obstructive_hypopneas", m.ObstructiveHypopneas},
		{"central_hypopneas", m.CentralHypopneas},
		{"mixed_hypopneas", m.MixedHypopneas},
		{"total_desaturations", m.TotalDesaturations},
		{"total_snores", m.TotalSnores},
		{"cheyne_stokes_episodes", m.CheyneStokesEpisodes},
		{"ahi", round2(m.AHI)},
		{"ahi_severity", m.AHISeverity},
		{"ahi_obstructive", round2(m.AHIObstructive)},
		{"ahi_central", round2(m.AHICentral)},
		{"ahi_mixed", round2(m.AHIMixed)},
		{"odi", round2(m.ODI)},
		{"snore_index", round2(m.SnoreIndex)},
		{"avg_spo2", round1opt(m.AvgSpO2)},
		{"min_spo2", round1opt(m.MinSpO2)},
		{"spo2_baseline", round1opt(m.SpO2Baseline)},
		{"time_below_spo2_90", m.TimeBelow90Min},
		{"time_below_spo2_85", m.TimeBelow85Min},
		{"avg_heart_rate", round2opt(m.AvgHeartRate)},
		{"min_heart_rate", round2opt(m.MinHeartRate)},
		{"max_heart_rate", round2opt(m.MaxHeartRate)},
		{"heart_rate_variability", round2opt(m.HeartRateVariability)},
		{"tachycardia_events", m.TachycardiaEvents},
		{"bradycardia_events", m.BradycardiaEvents},
		{"hr_analysis_method", m.HRAnalysisMethod},
		{"avg_resp_rate", round1opt(m.AvgRespRate)},
		{"min_resp_rate", round1opt(m.MinRespRate)},
		{"max_resp_rate", round1opt(m.MaxRespRate)},
		{"total_limb_movements", m.TotalLimbMovements},
		{"periodic_limb_movements", m.PeriodicLimbMovements},
		{"plmi", round2(m.PLMI)},
		{"bruxism_events", m.BruxismEvents},
		{"total_arousals", m.TotalArousals},
		{"arousal_index", round2(m.ArousalIndex)},
		{"sleep_fragmentation_index", round2(m.SleepFragmentationIndex)},
		{"overall_sleep_quality", m.OverallSleepQuality},
		{"sleep_quality_status", m.SleepQualityStatus},
	}
}

func round1(v float64) float64 { return roundTo(v, 10) }
func round2(v float64) float64 { return roundTo(v, 100) }

func roundTo(v float64, scale float64) float64 {
	if v < 0 {
		return float64(int(v*scale-0.5)) / scale
	}
	return float64(int(v*scale+0.5)) / scale
}

func round1opt(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return round1(*v)
}

func round2opt(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return round2(*v)
}

func intOrZero(v *float64) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

func intOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return int(*v)
}
