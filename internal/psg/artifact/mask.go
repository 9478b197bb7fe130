// Package artifact builds per-sample validity masks from annotated
// artifact blocks and from sensor-dropout gaps inferred from a sparse
// reference-event stream.
package artifact

import (
	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/psg"
)

// Region describes one masked-out span of the recording.
type Region struct {
	StartTime float64
	EndTime   float64
	Duration  float64
	Kind      string // "artifact" or "heartbeat_gap"
}

const (
	KindArtifact     = "artifact"
	KindHeartbeatGap = "heartbeat_gap"
)

// Builder derives validity masks for a recording. Masks are recomputed on
// every call; callers get value-identical results for the same input but
// must not assume slice identity across calls.
type Builder struct {
	cfg *config.AnalysisConfig
}

// NewBuilder returns a Builder using the given analysis config.
func NewBuilder(cfg *config.AnalysisConfig) *Builder {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Builder{cfg: cfg}
}

// Mask returns the validity mask (true = usable sample) at the reference
// sample resolution, plus the masked-out regions. A recording with no
// annotations yields (nil, nil).
func (b *Builder) Mask(rec *psg.Recording) ([]bool, []Region) {
	if rec == nil || len(rec.Annotations) == 0 {
		return nil, nil
	}

	total := rec.TotalSamples()
	if total <= 0 {
		return nil, nil
	}

	mask := make([]bool, total)
	for i := range mask {
		mask[i] = true
	}

	var regions []Region
	for _, ev := range rec.Annotations {
		if ev.Description != psg.LabelArtifactBlock {
			continue
		}
		start := int(ev.Onset * rec.SampleRate)
		end := int((ev.Onset + ev.Duration) * rec.SampleRate)
		if end > total {
			end = total
		}
		if start >= total {
			continue
		}
		for i := start; i < end; i++ {
			mask[i] = false
		}
		regions = append(regions, Region{
			StartTime: ev.Onset,
			EndTime:   ev.Onset + ev.Duration,
			Duration:  ev.Duration,
			Kind:      KindArtifact,
		})
	}

	gapMask, gapRegions := b.heartbeatGaps(rec, total)
	if gapMask != nil {
		for i := range mask {
			if gapMask[i] {
				mask[i] = false
			}
		}
		regions = append(regions, gapRegions...)
	}

	return mask, regions
}

// heartbeatGaps infers sensor-dropout spans from the illumination-sensor
// marker stream: a gap between consecutive markers longer than the
// max-gap threshold and at least the minimum duration is treated as a
// dropout. Fewer than two markers means gaps cannot be computed.
func (b *Builder) heartbeatGaps(rec *psg.Recording, total int) ([]bool, []Region) {
	var onsets []float64
	for _, ev := range rec.Annotations {
		if ev.Description == psg.LabelIlluminationSensor {
			onsets = append(onsets, ev.Onset)
		}
	}
	if len(onsets) < 2 {
		return nil, nil
	}

	maxGap := b.cfg.GetMaxMarkerGapSecs()
	minDur := b.cfg.GetMinGapDurationSecs()

	var mask []bool
	var regions []Region
	for i := 1; i < len(onsets); i++ {
		gap := onsets[i] - onsets[i-1]
		if gap <= maxGap || gap < minDur {
			continue
		}
		start := int(onsets[i-1] * rec.SampleRate)
		end := int(onsets[i] * rec.SampleRate)
		if end > total {
			end = total
		}
		if start >= total {
			continue
		}
		if mask == nil {
			mask = make([]bool, total)
		}
		for j := start; j < end; j++ {
			mask[j] = true
		}
		regions = append(regions, Region{
			StartTime: onsets[i-1],
			EndTime:   onsets[i],
			Duration:  gap,
			Kind:      KindHeartbeatGap,
		})
	}
	return mask, regions
}

// ForChannel projects a reference-resolution mask onto one channel's
// sample grid: channel sample i is valid when the reference sample
// covering the same instant is valid. Channels already on the reference
// grid get the mask truncated to their length; an empty mask or an
// unusable rate yields nil, meaning "no mask".
func ForChannel(mask []bool, refRate float64, ch *psg.Channel) []bool {
	if len(mask) == 0 || ch == nil || refRate <= 0 || ch.SampleRate <= 0 {
		return nil
	}
	if ch.SampleRate == refRate && len(mask) >= len(ch.Samples) {
		return mask[:len(ch.Samples)]
	}

	ratio := refRate / ch.SampleRate
	out := make([]bool, len(ch.Samples))
	for i := range out {
		j := int(float64(i) * ratio)
		if j >= len(mask) {
			j = len(mask) - 1
		}
		out[i] = mask[j]
	}
	return out
}

// Segment is one maximal run of valid samples.
type Segment struct {
	Start int // inclusive
	End   int // exclusive
}

// ContiguousSegments returns the maximal true runs of mask that are at
// least minLen samples long.
func ContiguousSegments(mask []bool, minLen int) []Segment {
	if minLen < 1 {
		minLen = 1
	}
	var segs []Segment
	start := -1
	for i, v := range mask {
		if v && start < 0 {
			start = i
		} else if !v && start >= 0 {
			if i-start >= minLen {
				segs = append(segs, Segment{Start: start, End: i})
			}
			start = -1
		}
	}
	if start >= 0 && len(mask)-start >= minLen {
		segs = append(segs, Segment{Start: start, End: len(mask)})
	}
	return segs
}

// Apply returns the samples of x whose mask entry is true. The mask is
// truncated or x is truncated to the shorter of the two.
func Apply(x []float64, mask []bool) []float64 {
	n := len(x)
	if len(mask) < n {
		n = len(mask)
	}
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if mask[i] {
			out = append(out, x[i])
		}
	}
	return out
}
