// Package config holds the analysis tuning parameters. Every threshold
// the analyzers use lives here so that pipeline variants (different
// tachycardia run lengths, different respiratory bands) are a config
// change, not a code change.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AnalysisConfig is the root tuning configuration. Fields are pointers so
// a partial JSON file only overrides what it names; the Get* accessors
// supply defaults for everything else.
type AnalysisConfig struct {
	// ECG / heart rate
	RRMinSeconds         *float64 `json:"rr_min_seconds,omitempty"`
	RRMaxSeconds         *float64 `json:"rr_max_seconds,omitempty"`
	HRMin                *float64 `json:"hr_min,omitempty"`
	HRMax                *float64 `json:"hr_max,omitempty"`
	TachycardiaThreshold *float64 `json:"tachycardia_threshold,omitempty"`
	BradycardiaThreshold *float64 `json:"bradycardia_threshold,omitempty"`
	MinConsecutiveRates  *int     `json:"min_consecutive_rates,omitempty"`
	ECGFilterLowHz       *float64 `json:"ecg_filter_low_hz,omitempty"`
	ECGFilterHighHz      *float64 `json:"ecg_filter_high_hz,omitempty"`
	ECGSmoothWindowSecs  *float64 `json:"ecg_smooth_window_secs,omitempty"`
	AdaptiveThreshold    *bool    `json:"adaptive_threshold,omitempty"`
	ValidatePeaks        *bool    `json:"validate_peaks,omitempty"`

	// Respiration
	RespRateMin          *float64 `json:"resp_rate_min,omitempty"`
	RespRateMax          *float64 `json:"resp_rate_max,omitempty"`
	RespRateLooseMin     *float64 `json:"resp_rate_loose_min,omitempty"`
	RespRateLooseMax     *float64 `json:"resp_rate_loose_max,omitempty"`
	RespFilterLowHz      *float64 `json:"resp_filter_low_hz,omitempty"`
	RespFilterHighHz     *float64 `json:"resp_filter_high_hz,omitempty"`
	RespMinSegmentSecs   *float64 `json:"resp_min_segment_secs,omitempty"`
	RespMaxChannels      *int     `json:"resp_max_channels,omitempty"`
	SpectralEstimator    *bool    `json:"spectral_estimator,omitempty"`
	SegmentedEstimator   *bool    `json:"segmented_estimator,omitempty"`
	SegmentedWindowSecs  *float64 `json:"segmented_window_secs,omitempty"`

	// SpO2
	SpO2MinValid *float64 `json:"spo2_min_valid,omitempty"`
	SpO2MaxValid *float64 `json:"spo2_max_valid,omitempty"`

	// Artifact / gap inference
	MaxMarkerGapSecs   *float64 `json:"max_marker_gap_secs,omitempty"`
	MinGapDurationSecs *float64 `json:"min_gap_duration_secs,omitempty"`

	// Sleep quality scoring
	N3PercentThreshold  *float64 `json:"n3_percent_threshold,omitempty"`
	REMPercentThreshold *float64 `json:"rem_percent_threshold,omitempty"`

	// Staging
	ClampREMLatency *bool `json:"clamp_rem_latency,omitempty"`
}

// Default returns an empty config; accessors return built-in defaults.
func Default() *AnalysisConfig { return &AnalysisConfig{} }

// Load reads an AnalysisConfig from a JSON file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field consistency of whatever is set.
func (c *AnalysisConfig) Validate() error {
	if c.RRMinSeconds != nil && c.RRMaxSeconds != nil && *c.RRMinSeconds >= *c.RRMaxSeconds {
		return fmt.Errorf("rr_min_seconds (%v) must be below rr_max_seconds (%v)", *c.RRMinSeconds, *c.RRMaxSeconds)
	}
	if c.HRMin != nil && c.HRMax != nil && *c.HRMin >= *c.HRMax {
		return fmt.Errorf("hr_min (%v) must be below hr_max (%v)", *c.HRMin, *c.HRMax)
	}
	if c.ECGFilterLowHz != nil && c.ECGFilterHighHz != nil && *c.ECGFilterLowHz >= *c.ECGFilterHighHz {
		return fmt.Errorf("ecg filter band is inverted: %v..%v Hz", *c.ECGFilterLowHz, *c.ECGFilterHighHz)
	}
	if c.RespFilterLowHz != nil && c.RespFilterHighHz != nil && *c.RespFilterLowHz >= *c.RespFilterHighHz {
		return fmt.Errorf("resp filter band is inverted: %v..%v Hz", *c.RespFilterLowHz, *c.RespFilterHighHz)
	}
	if c.SpO2MinValid != nil && (*c.SpO2MinValid < 0 || *c.SpO2MinValid > 100) {
		return fmt.Errorf("spo2_min_valid must be a percentage, got %v", *c.SpO2MinValid)
	}
	if c.MinConsecutiveRates != nil && *c.MinConsecutiveRates < 1 {
		return fmt.Errorf("min_consecutive_rates must be positive, got %d", *c.MinConsecutiveRates)
	}
	return nil
}

func (c *AnalysisConfig) GetRRMinSeconds() float64 {
	if c.RRMinSeconds == nil {
		return 0.3
	}
	return *c.RRMinSeconds
}

func (c *AnalysisConfig) GetRRMaxSeconds() float64 {
	if c.RRMaxSeconds == nil {
		return 2.0
	}
	return *c.RRMaxSeconds
}

func (c *AnalysisConfig) GetHRMin() float64 {
	if c.HRMin == nil {
		return 40
	}
	return *c.HRMin
}

func (c *AnalysisConfig) GetHRMax() float64 {
	if c.HRMax == nil {
		return 150
	}
	return *c.HRMax
}

func (c *AnalysisConfig) GetTachycardiaThreshold() float64 {
	if c.TachycardiaThreshold == nil {
		return 100
	}
	return *c.TachycardiaThreshold
}

func (c *AnalysisConfig) GetBradycardiaThreshold() float64 {
	if c.BradycardiaThreshold == nil {
		return 50
	}
	return *c.BradycardiaThreshold
}

func (c *AnalysisConfig) GetMinConsecutiveRates() int {
	if c.MinConsecutiveRates == nil {
		return 10
	}
	return *c.MinConsecutiveRates
}

func (c *AnalysisConfig) GetECGFilterLowHz() float64 {
	if c.ECGFilterLowHz == nil {
		return 5
	}
	return *c.ECGFilterLowHz
}

func (c *AnalysisConfig) GetECGFilterHighHz() float64 {
	if c.ECGFilterHighHz == nil {
		return 35
	}
	return *c.ECGFilterHighHz
}

func (c *AnalysisConfig) GetECGSmoothWindowSecs() float64 {
	if c.ECGSmoothWindowSecs == nil {
		return 0.12
	}
	return *c.ECGSmoothWindowSecs
}

func (c *AnalysisConfig) GetAdaptiveThreshold() bool {
	if c.AdaptiveThreshold == nil {
		return true
	}
	return *c.AdaptiveThreshold
}

func (c *AnalysisConfig) GetValidatePeaks() bool {
	if c.ValidatePeaks == nil {
		return true
	}
	return *c.ValidatePeaks
}

func (c *AnalysisConfig) GetRespRateMin() float64 {
	if c.RespRateMin == nil {
		return 8
	}
	return *c.RespRateMin
}

func (c *AnalysisConfig) GetRespRateMax() float64 {
	if c.RespRateMax == nil {
		return 25
	}
	return *c.RespRateMax
}

func (c *AnalysisConfig) GetRespRateLooseMin() float64 {
	if c.RespRateLooseMin == nil {
		return 6
	}
	return *c.RespRateLooseMin
}

func (c *AnalysisConfig) GetRespRateLooseMax() float64 {
	if c.RespRateLooseMax == nil {
		return 40
	}
	return *c.RespRateLooseMax
}

func (c *AnalysisConfig) GetRespFilterLowHz() float64 {
	if c.RespFilterLowHz == nil {
		return 0.1
	}
	return *c.RespFilterLowHz
}

func (c *AnalysisConfig) GetRespFilterHighHz() float64 {
	if c.RespFilterHighHz == nil {
		return 1.0
	}
	return *c.RespFilterHighHz
}

func (c *AnalysisConfig) GetRespMinSegmentSecs() float64 {
	if c.RespMinSegmentSecs == nil {
		return 30
	}
	return *c.RespMinSegmentSecs
}

func (c *AnalysisConfig) GetRespMaxChannels() int {
	if c.RespMaxChannels == nil {
		return 3
	}
	return *c.RespMaxChannels
}

func (c *AnalysisConfig) GetSpectralEstimator() bool {
	if c.SpectralEstimator == nil {
		return true
	}
	return *c.SpectralEstimator
}

func (c *AnalysisConfig) GetSegmentedEstimator() bool {
	if c.SegmentedEstimator == nil {
		return true
	}
	return *c.SegmentedEstimator
}

func (c *AnalysisConfig) GetSegmentedWindowSecs() float64 {
	if c.SegmentedWindowSecs == nil {
		return 30
	}
	return *c.SegmentedWindowSecs
}

func (c *AnalysisConfig) GetSpO2MinValid() float64 {
	if c.SpO2MinValid == nil {
		return 75
	}
	return *c.SpO2MinValid
}

func (c *AnalysisConfig) GetSpO2MaxValid() float64 {
	if c.SpO2MaxValid == nil {
		return 100
	}
	return *c.SpO2MaxValid
}

func (c *AnalysisConfig) GetMaxMarkerGapSecs() float64 {
	if c.MaxMarkerGapSecs == nil {
		return 5.0
	}
	return *c.MaxMarkerGapSecs
}

func (c *AnalysisConfig) GetMinGapDurationSecs() float64 {
	if c.MinGapDurationSecs == nil {
		return 10.0
	}
	return *c.MinGapDurationSecs
}

func (c *AnalysisConfig) GetN3PercentThreshold() float64 {
	if c.N3PercentThreshold == nil {
		return 15
	}
	return *c.N3PercentThreshold
}

func (c *AnalysisConfig) GetREMPercentThreshold() float64 {
	if c.REMPercentThreshold == nil {
		return 20
	}
	return *c.REMPercentThreshold
}

func (c *AnalysisConfig) GetClampREMLatency() bool {
	if c.ClampREMLatency == nil {
		return false
	}
	return *c.ClampREMLatency
}
