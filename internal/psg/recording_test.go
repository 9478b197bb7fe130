package psg

import "testing"

func TestIsEpochDuration(t *testing.T) {
	cases := []struct {
		d    float64
		want bool
	}{
		{30, true},
		{29.5, true},
		{30.5, true},
		{29.000001, true},
		{31, false}, // tolerance is exclusive
		{29, false},
		{0, false},
		{60, false},
	}
	for _, c := range cases {
		if got := IsEpochDuration(c.d); got != c.want {
			t.Errorf("IsEpochDuration(%v) = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestStagePredicates(t *testing.T) {
	for _, s := range []Stage{StageN1, StageN2, StageN3} {
		if !s.IsNREM() || !s.IsSleep() {
			t.Errorf("%s should be NREM and sleep", s)
		}
	}
	if StageREM.IsNREM() {
		t.Error("REM is not NREM")
	}
	if !StageREM.IsSleep() {
		t.Error("REM counts as sleep")
	}
	if StageWake.IsSleep() || StageUnknown.IsSleep() {
		t.Error("Wake/Unknown must not count as sleep")
	}
}

func TestFindChannels(t *testing.T) {
	rec := &Recording{
		Channels: []Channel{
			{Name: "EEG Fpz-Cz"},
			{Name: "ECG II"},
			{Name: "Resp Thorax"},
			{Name: "Resp Abdomen"},
			{Name: "SpO2"},
		},
	}

	if ch := rec.FindChannel(ECGKeywords); ch == nil || ch.Name != "ECG II" {
		t.Errorf("FindChannel(ECG) = %v", ch)
	}
	if got := rec.FindChannels(RespKeywords); len(got) != 2 {
		t.Errorf("FindChannels(Resp) returned %d channels, want 2", len(got))
	}
	if ch := rec.FindChannel(SpO2Keywords); ch == nil || ch.Name != "SpO2" {
		t.Errorf("FindChannel(SpO2) = %v", ch)
	}
	if ch := rec.FindChannel([]string{"emg"}); ch != nil {
		t.Errorf("FindChannel(emg) = %v, want nil", ch)
	}
}

func TestFindChannelCaseAndCyrillic(t *testing.T) {
	rec := &Recording{
		Channels: []Channel{
			{Name: "ЭКГ"},
			{Name: "PLETH"},
		},
	}
	if ch := rec.FindChannel(ECGKeywords); ch == nil || ch.Name != "ЭКГ" {
		t.Errorf("Cyrillic ECG channel not matched: %v", ch)
	}
	if ch := rec.FindChannel(RespKeywords); ch == nil || ch.Name != "PLETH" {
		t.Errorf("case-insensitive pleth not matched: %v", ch)
	}
}

func TestTotalSamples(t *testing.T) {
	rec := &Recording{Duration: 120, SampleRate: 250}
	if got := rec.TotalSamples(); got != 30000 {
		t.Errorf("TotalSamples = %d, want 30000", got)
	}
}
