package staging

import "github.com/somnolab/sleep.report/internal/psg"

// cycleState is the REM-cycle scanner state.
type cycleState int

const (
	cycleIdle cycleState = iota // not inside a candidate cycle
	cycleInREM                  // a REM period entered from NREM is open
)

// countREMCycles scans a three-epoch sliding window over the stage
// sequence. A cycle opens when a REM epoch follows NREM and closes —
// incrementing the counter — when a REM epoch is followed by NREM. Both
// transitions are evaluated for the same epoch, so a single REM epoch
// flanked by NREM opens and closes one cycle in one step. Any Wake epoch
// while a cycle is open aborts it without counting. A cycle still open
// at the end of the sequence is not counted.
func countREMCycles(seq []psg.Stage) int {
	state := cycleIdle
	cycles := 0

	for i := 1; i < len(seq)-1; i++ {
		cur, prev, next := seq[i], seq[i-1], seq[i+1]

		if state == cycleIdle && cur == psg.StageREM && prev.IsNREM() {
			state = cycleInREM
		}
		if state == cycleInREM && cur == psg.StageREM && next.IsNREM() {
			cycles++
			state = cycleIdle
			continue
		}
		if state == cycleInREM && cur == psg.StageWake {
			state = cycleIdle
		}
	}
	return cycles
}
