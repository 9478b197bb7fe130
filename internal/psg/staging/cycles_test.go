package staging

import (
	"testing"

	"github.com/somnolab/sleep.report/internal/psg"
)

func TestCountREMCycles(t *testing.T) {
	w, n1, n2, n3, r := psg.StageWake, psg.StageN1, psg.StageN2, psg.StageN3, psg.StageREM

	cases := []struct {
		name string
		seq  []psg.Stage
		want int
	}{
		{"empty", nil, 0},
		{"no rem", []psg.Stage{n1, n2, n3, n2, n1}, 0},
		{"rem never closed", []psg.Stage{n2, r, r, r}, 0},
		{"single complete cycle", []psg.Stage{n2, r, r, n2}, 1},
		{"two cycles", []psg.Stage{n2, r, n2, n3, r, r, n1}, 2},
		{"wake does not open a cycle", []psg.Stage{w, r, r, n2}, 0},
		{"rem at start has no nrem before", []psg.Stage{r, r, n2}, 0},
		// A single REM epoch between NREM epochs opens and closes in the
		// same step.
		{"single-epoch cycles with wake interruption", []psg.Stage{n2, r, n2, r, w, r, n2}, 1},
		{"wake resets an open cycle", []psg.Stage{n2, r, w, n2, r, n3}, 1},
		{"four cycles", []psg.Stage{n2, r, n2, r, n2, r, n2, r, n2}, 4},
	}

	for _, c := range cases {
		if got := countREMCycles(c.seq); got != c.want {
			t.Errorf("%s: countREMCycles(%v) = %d, want %d", c.name, c.seq, got, c.want)
		}
	}
}

func TestCountREMCyclesIdempotent(t *testing.T) {
	seq := []psg.Stage{
		psg.StageN2, psg.StageREM, psg.StageN2,
		psg.StageREM, psg.StageWake, psg.StageREM, psg.StageN2,
	}
	first := countREMCycles(seq)
	second := countREMCycles(seq)
	if first != second {
		t.Errorf("repeat runs disagree: %d then %d", first, second)
	}
}
