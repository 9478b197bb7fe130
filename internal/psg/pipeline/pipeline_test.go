package pipeline

import (
	"testing"

	"github.com/somnolab/sleep.report/internal/psg"
)

func n2Night(epochs int) *psg.Recording {
	events := make([]psg.AnnotationEvent, epochs)
	for i := range events {
		events[i] = psg.AnnotationEvent{
			Onset:       float64(i) * 30,
			Duration:    30,
			Description: psg.LabelStageN2,
		}
	}
	return &psg.Recording{
		StudyID:     "b6f2a7a0-0000-4000-8000-000000000001",
		Duration:    float64(epochs) * 30,
		SampleRate:  1,
		Annotations: events,
	}
}

func TestAnalyzeUninterruptedN2Night(t *testing.T) {
	// 480 N2 epochs = 4 hours of uninterrupted sleep.
	m := Analyze(n2Night(480), nil)

	if m.TotalSleepTimeMin != 240 || m.TotalBedTimeMin != 240 {
		t.Fatalf("TST = %v, TBT = %v, want 240, 240", m.TotalSleepTimeMin, m.TotalBedTimeMin)
	}
	if m.SleepEfficiency != 100 {
		t.Errorf("efficiency = %v, want 100", m.SleepEfficiency)
	}
	if m.OverallSleepQuality != 70 {
		t.Errorf("overall quality = %d, want 70", m.OverallSleepQuality)
	}
	if m.SleepQualityStatus != "хорошее" {
		t.Errorf("status = %q, want хорошее", m.SleepQualityStatus)
	}
	if m.N2Minutes != 240 || m.N2Percentage == nil || *m.N2Percentage != 100 {
		t.Errorf("N2 = %v min, %v%%", m.N2Minutes, m.N2Percentage)
	}
	if m.AHI != 0 || m.ArousalIndex != 0 {
		t.Errorf("AHI = %v, arousal index = %v, want 0, 0", m.AHI, m.ArousalIndex)
	}
	if m.Hypnogram.EpochCount != 480 {
		t.Errorf("hypnogram epochs = %d, want 480", m.Hypnogram.EpochCount)
	}
	if m.Transitions.Total != 0 {
		t.Errorf("transitions = %d, want 0 in a single-stage night", m.Transitions.Total)
	}
}

func TestAnalyzeEmptyRecordingStillProducesBundle(t *testing.T) {
	rec := &psg.Recording{StudyID: "empty", Duration: 0, SampleRate: 0}
	m := Analyze(rec, nil)
	if m == nil {
		t.Fatal("bundle must always be produced")
	}
	if m.SleepEfficiency != 0 || m.OverallSleepQuality < 0 {
		t.Errorf("zero night: efficiency = %v, quality = %d",
			m.SleepEfficiency, m.OverallSleepQuality)
	}
	if m.N1Percentage != nil {
		t.Error("percentages must be nil when TST is 0")
	}
	if m.AHI != 0 {
		t.Errorf("AHI = %v, want 0 when TST is 0", m.AHI)
	}
}

func TestAnalyzeEventIndices(t *testing.T) {
	rec := n2Night(480) // 4h TST
	for i := 0; i < 20; i++ {
		rec.Annotations = append(rec.Annotations, psg.AnnotationEvent{
			Onset: float64(i * 60), Description: psg.LabelObstructiveApnea,
		})
	}
	for i := 0; i < 8; i++ {
		rec.Annotations = append(rec.Annotations, psg.AnnotationEvent{
			Onset: float64(i * 100), Description: psg.LabelActivation,
		})
	}

	m := Analyze(rec, nil)
	if m.TotalApneas != 20 || m.ObstructiveApneas != 20 {
		t.Errorf("apneas = %d/%d, want 20/20", m.TotalApneas, m.ObstructiveApneas)
	}
	if m.AHI != 5 {
		t.Errorf("AHI = %v, want 5 (20 events / 4h)", m.AHI)
	}
	if m.AHISeverity != "легкая" {
		t.Errorf("AHISeverity = %q, want легкая at AHI 5", m.AHISeverity)
	}
	if m.ArousalIndex != 2 {
		t.Errorf("arousal index = %v, want 2 (8 / 4h)", m.ArousalIndex)
	}
	if m.TotalArousals != 8 {
		t.Errorf("arousals = %d, want 8", m.TotalArousals)
	}
}

func TestFieldsRenderingAndOrder(t *testing.T) {
	m := Analyze(n2Night(480), nil)
	fields := m.Fields()

	if fields[0].Key != "total_sleep_time" {
		t.Errorf("first field = %q, want total_sleep_time", fields[0].Key)
	}
	if v, ok := fields[0].Value.(int); !ok || v != 240 {
		t.Errorf("total_sleep_time = %v, want int 240", fields[0].Value)
	}

	byKey := map[string]interface{}{}
	for _, f := range fields {
		if _, dup := byKey[f.Key]; dup {
			t.Fatalf("duplicate field key %q", f.Key)
		}
		byKey[f.Key] = f.Value
	}

	// Undefined metrics render as nil, not zero.
	if v := byKey["avg_heart_rate"]; v != nil {
		t.Errorf("avg_heart_rate = %v, want nil (no ECG channel)", v)
	}
	if v := byKey["rem_latency"]; v != nil {
		t.Errorf("rem_latency = %v, want nil (no REM)", v)
	}
	if v := byKey["sleep_quality_status"]; v != "хорошее" {
		t.Errorf("sleep_quality_status = %v", v)
	}
	if v := byKey["ahi_severity"]; v != "норма" {
		t.Errorf("ahi_severity = %v, want норма for an event-free night", v)
	}
	if v := byKey["sleep_efficiency"]; v != 100.0 {
		t.Errorf("sleep_efficiency = %v, want 100", v)
	}
}

func TestRounding(t *testing.T) {
	if got := round2(3.14159); got != 3.14 {
		t.Errorf("round2 = %v, want 3.14", got)
	}
	if got := round1(-1.25); got != -1.3 {
		t.Errorf("round1(-1.25) = %v, want -1.3", got)
	}
	if got := intOrZero(nil); got != 0 {
		t.Errorf("intOrZero(nil) = %v, want 0", got)
	}
	v := 7.9
	if got := intOrNil(&v); got != 7 {
		t.Errorf("intOrNil(7.9) = %v, want 7 (truncated)", got)
	}
}
