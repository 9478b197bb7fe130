// Package psg defines the data model for a decoded polysomnography
// recording: channels, the annotation stream, and the clinical
// annotation vocabulary the analysis engine keys on.
package psg

import "strings"

// Channel is one uniform-rate numeric signal from a recording.
type Channel struct {
	Name       string
	SampleRate float64 // samples per second
	Samples    []float64
}

// AnnotationEvent is one entry of the recording's discrete event stream.
// Onset and Duration are seconds from recording start; Duration may be
// zero for point events.
type AnnotationEvent struct {
	Onset       float64
	Duration    float64
	Description string
}

// Recording is a decoded overnight recording. It is immutable once
// loaded; a pipeline run owns it exclusively and only reads it.
type Recording struct {
	StudyID     string // opaque tag from the container header, may be empty
	Duration    float64
	SampleRate  float64 // reference sample rate (mask resolution)
	Channels    []Channel
	Annotations []AnnotationEvent
}

// TotalSamples returns the sample count of the reference channel grid.
func (r *Recording) TotalSamples() int {
	return int(r.Duration * r.SampleRate)
}

// Channel role keyword sets. Matching is best-effort: case-insensitive
// substring against the channel name, in channel order.
var (
	ECGKeywords  = []string{"ecg", "ekg", "electrocardiogram", "экг", "кардиограмма"}
	RespKeywords = []string{"resp", "breath", "дыхание", "thorax", "chest", "abdomen", "flow", "rip", "pleth"}
	SpO2Keywords = []string{"spo2", "sao2", "sat"}
)

// FindChannels returns the channels whose names match any of the role
// keywords, preserving recording order. May return zero channels.
func (r *Recording) FindChannels(keywords []string) []*Channel {
	var out []*Channel
	for i := range r.Channels {
		name := strings.ToLower(r.Channels[i].Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				out = append(out, &r.Channels[i])
				break
			}
		}
	}
	return out
}

// FindChannel returns the first role match, or nil.
func (r *Recording) FindChannel(keywords []string) *Channel {
	if chs := r.FindChannels(keywords); len(chs) > 0 {
		return chs[0]
	}
	return nil
}
