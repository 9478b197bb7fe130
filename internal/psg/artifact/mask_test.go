package artifact

import (
	"reflect"
	"testing"

	"github.com/somnolab/sleep.report/internal/psg"
)

func markerStream(times ...float64) []psg.AnnotationEvent {
	events := make([]psg.AnnotationEvent, len(times))
	for i, t := range times {
		events[i] = psg.AnnotationEvent{Onset: t, Description: psg.LabelIlluminationSensor}
	}
	return events
}

func TestMaskNoAnnotations(t *testing.T) {
	rec := &psg.Recording{Duration: 60, SampleRate: 10}
	mask, regions := NewBuilder(nil).Mask(rec)
	if mask != nil || regions != nil {
		t.Errorf("Mask without annotations = %v, %v, want nil, nil", mask, regions)
	}
}

func TestMaskZeroSamples(t *testing.T) {
	rec := &psg.Recording{
		Annotations: []psg.AnnotationEvent{{Description: psg.LabelArtifactBlock, Duration: 5}},
	}
	if mask, _ := NewBuilder(nil).Mask(rec); mask != nil {
		t.Error("Mask with zero reference samples should be nil")
	}
}

func TestMaskArtifactBlock(t *testing.T) {
	rec := &psg.Recording{
		Duration:   10,
		SampleRate: 10,
		Annotations: []psg.AnnotationEvent{
			{Onset: 2, Duration: 3, Description: psg.LabelArtifactBlock},
		},
	}
	mask, regions := NewBuilder(nil).Mask(rec)
	if len(mask) != 100 {
		t.Fatalf("mask length = %d, want 100", len(mask))
	}
	for i, v := range mask {
		inBlock := i >= 20 && i < 50
		if v == inBlock {
			t.Fatalf("mask[%d] = %v, inBlock = %v", i, v, inBlock)
		}
	}
	if len(regions) != 1 || regions[0].Kind != KindArtifact || regions[0].Duration != 3 {
		t.Errorf("regions = %+v", regions)
	}
}

func TestMaskHeartbeatGap(t *testing.T) {
	// Markers every second, then silence from t=10 to t=30.
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 30, 31, 32}
	rec := &psg.Recording{
		Duration:    40,
		SampleRate:  10,
		Annotations: markerStream(times...),
	}

	mask, regions := NewBuilder(nil).Mask(rec)
	if len(regions) != 1 {
		t.Fatalf("regions = %+v, want one heartbeat gap", regions)
	}
	r := regions[0]
	if r.Kind != KindHeartbeatGap || r.StartTime != 10 || r.EndTime != 30 {
		t.Errorf("gap region = %+v", r)
	}
	if mask[150] {
		t.Error("sample inside the gap should be masked out")
	}
	if !mask[50] || !mask[330] {
		t.Error("samples outside the gap should stay valid")
	}
}

func TestMaskShortGapIgnored(t *testing.T) {
	// 7s between markers exceeds the 5s max gap but is under the 10s
	// minimum dropout duration, so nothing is masked.
	rec := &psg.Recording{
		Duration:    20,
		SampleRate:  10,
		Annotations: markerStream(0, 1, 2, 9, 10),
	}
	mask, regions := NewBuilder(nil).Mask(rec)
	if len(regions) != 0 {
		t.Errorf("regions = %+v, want none", regions)
	}
	for i, v := range mask {
		if !v {
			t.Fatalf("mask[%d] = false, want all valid", i)
		}
	}
}

func TestMaskSingleMarkerNoGaps(t *testing.T) {
	rec := &psg.Recording{
		Duration:    20,
		SampleRate:  10,
		Annotations: markerStream(5),
	}
	_, regions := NewBuilder(nil).Mask(rec)
	if len(regions) != 0 {
		t.Errorf("one marker cannot define a gap, got %+v", regions)
	}
}

func TestContiguousSegments(t *testing.T) {
	mask := []bool{true, true, false, true, true, true, false, true}
	got := ContiguousSegments(mask, 2)
	want := []Segment{{Start: 0, End: 2}, {Start: 3, End: 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContiguousSegments = %v, want %v", got, want)
	}

	// trailing run reaching the end is included
	got = ContiguousSegments(mask, 1)
	if len(got) != 3 || got[2] != (Segment{Start: 7, End: 8}) {
		t.Errorf("ContiguousSegments(minLen=1) = %v", got)
	}
}

func TestForChannelDownsamples(t *testing.T) {
	// Reference grid 10 Hz over 10s, second half masked out; a 1 Hz
	// channel must see the same split on its own grid.
	mask := make([]bool, 100)
	for i := range mask {
		mask[i] = i < 50
	}
	ch := &psg.Channel{SampleRate: 1, Samples: make([]float64, 10)}

	got := ForChannel(mask, 10, ch)
	if len(got) != 10 {
		t.Fatalf("projected mask length = %d, want 10", len(got))
	}
	for i, v := range got {
		if want := i < 5; v != want {
			t.Errorf("projected[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestForChannelUpsamples(t *testing.T) {
	// A channel running faster than the reference grid: each pair of
	// 20 Hz samples shares one 10 Hz reference sample.
	mask := []bool{true, false, true}
	ch := &psg.Channel{SampleRate: 20, Samples: make([]float64, 6)}

	got := ForChannel(mask, 10, ch)
	want := []bool{true, true, false, false, true, true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("projected = %v, want %v", got, want)
	}
}

func TestForChannelSameRateTruncates(t *testing.T) {
	mask := []bool{true, false, true, true}
	ch := &psg.Channel{SampleRate: 10, Samples: make([]float64, 3)}

	got := ForChannel(mask, 10, ch)
	if !reflect.DeepEqual(got, []bool{true, false, true}) {
		t.Errorf("projected = %v", got)
	}
}

func TestForChannelNoMask(t *testing.T) {
	ch := &psg.Channel{SampleRate: 1, Samples: make([]float64, 5)}
	if got := ForChannel(nil, 10, ch); got != nil {
		t.Errorf("nil mask projected to %v, want nil", got)
	}
	if got := ForChannel([]bool{true}, 0, ch); got != nil {
		t.Errorf("zero reference rate projected to %v, want nil", got)
	}
	ch.SampleRate = 0
	if got := ForChannel([]bool{true}, 10, ch); got != nil {
		t.Errorf("zero channel rate projected to %v, want nil", got)
	}
}

func TestApply(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	mask := []bool{true, false, true, false}
	got := Apply(x, mask)
	want := []float64{1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}

	// mask shorter than x truncates
	got = Apply(x, []bool{true, true})
	if !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("Apply with short mask = %v", got)
	}
}
