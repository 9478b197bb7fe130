// Package staging converts the annotation stream into 30-second-epoch
// sleep stages and the timing metrics derived from them: efficiency,
// latencies, architecture percentages, REM cycles and REM quality.
package staging

import (
	"fmt"

	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/psg"
)

// StageTotal accumulates one stage's qualifying epochs.
type StageTotal struct {
	Count   int
	Minutes float64
}

// Architecture holds each sleep stage's share of total sleep time.
type Architecture struct {
	N1Percent  float64
	N2Percent  float64
	N3Percent  float64
	REMPercent float64
}

// REMQuality scores the REM portion of the night from its duration and
// the density of rapid-eye-movement point events.
type REMQuality struct {
	Score   int
	Minutes float64
	Events  int
	Density float64
	Status  string
}

// Hypnogram is the compact stage-code export: epoch count, epoch length
// in seconds, and one code per epoch.
type Hypnogram struct {
	EpochCount   int      `json:"e"`
	EpochSeconds int      `json:"d"`
	Codes        []string `json:"s"`
}

// Transitions counts stage changes between consecutive epochs, keyed
// "From->To". Same-stage pairs are not counted.
type Transitions struct {
	Total  int
	Counts map[string]int
}

// Result is everything the stager derives from one annotation stream.
type Result struct {
	Stages   map[psg.Stage]StageTotal
	Sequence []psg.Stage // qualifying epochs of the five scorable stages, in stream order

	TotalSleepMinutes float64
	TotalBedMinutes   float64
	SleepEfficiency   float64 // percent, 0 when bed time is 0
	WASOMinutes       float64 // total Wake minutes (deliberate simplification)

	SleepOnsetLatencyMin *float64 // minutes, nil if the night never reaches sleep
	REMLatencyMin        *float64 // minutes from sleep onset to first REM epoch

	Architecture *Architecture // nil when total sleep time is 0

	REMCycles  int
	REMQuality REMQuality

	Hypnogram   Hypnogram
	Transitions Transitions
	LongestRuns map[psg.Stage]int // longest consecutive-epoch run per stage
}

// Stage runs the full staging pass over the annotation stream. Events are
// consumed in their native order; the stream is assumed chronological.
func Stage(annotations []psg.AnnotationEvent, cfg *config.AnalysisConfig) *Result {
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Result{
		Stages: map[psg.Stage]StageTotal{
			psg.StageWake: {}, psg.StageN1: {}, psg.StageN2: {},
			psg.StageN3: {}, psg.StageREM: {}, psg.StageUnknown: {},
		},
	}

	for _, ev := range annotations {
		stage, ok := psg.StageLabels[ev.Description]
		if !ok || !psg.IsEpochDuration(ev.Duration) {
			continue
		}
		t := r.Stages[stage]
		t.Count++
		t.Minutes += 0.5
		r.Stages[stage] = t
		if stage != psg.StageUnknown {
			r.Sequence = append(r.Sequence, stage)
		}
	}

	r.computeEfficiency()
	r.computeLatencies(annotations, cfg)
	r.computeArchitecture()
	r.REMCycles = countREMCycles(r.Sequence)
	r.REMQuality = remQuality(annotations)
	r.buildHypnogram()
	r.countTransitions()
	return r
}

func (r *Result) computeEfficiency() {
	for stage, t := range r.Stages {
		r.TotalBedMinutes += t.Minutes
		if stage.IsSleep() {
			r.TotalSleepMinutes += t.Minutes
		}
	}
	if r.TotalBedMinutes > 0 {
		r.SleepEfficiency = r.TotalSleepMinutes / r.TotalBedMinutes * 100
	}
	r.WASOMinutes = r.Stages[psg.StageWake].Minutes
}

// computeLatencies scans the event stream accumulating elapsed time.
// Sleep-onset latency is the elapsed time at the first qualifying sleep
// epoch (zero is a valid latency: the recording may begin asleep). REM
// latency is measured from sleep onset; since REM itself qualifies as
// sleep onset it cannot be negative under chronological input, but the
// clamp flag nils it out should an unordered stream produce one.
func (r *Result) computeLatencies(annotations []psg.AnnotationEvent, cfg *config.AnalysisConfig) {
	var firstSleep, firstREM *float64
	var elapsed float64

	for _, ev := range annotations {
		stage, ok := psg.StageLabels[ev.Description]
		if ok && psg.IsEpochDuration(ev.Duration) {
			if firstSleep == nil && stage.IsSleep() {
				v := elapsed
				firstSleep = &v
			}
			if firstREM == nil && stage == psg.StageREM {
				v := elapsed
				firstREM = &v
			}
		}
		elapsed += ev.Duration
	}

	if firstSleep != nil {
		v := *firstSleep / 60
		r.SleepOnsetLatencyMin = &v
	}
	if firstSleep != nil && firstREM != nil {
		v := (*firstREM - *firstSleep) / 60
		if v < 0 && cfg.GetClampREMLatency() {
			return
		}
		r.REMLatencyMin = &v
	}
}

func (r *Result) computeArchitecture() {
	if r.TotalSleepMinutes == 0 {
		return
	}
	r.Architecture = &Architecture{
		N1Percent:  r.Stages[psg.StageN1].Minutes / r.TotalSleepMinutes * 100,
		N2Percent:  r.Stages[psg.StageN2].Minutes / r.TotalSleepMinutes * 100,
		N3Percent:  r.Stages[psg.StageN3].Minutes / r.TotalSleepMinutes * 100,
		REMPercent: r.Stages[psg.StageREM].Minutes / r.TotalSleepMinutes * 100,
	}
}

func remQuality(annotations []psg.AnnotationEvent) REMQuality {
	var epochs, events int
	for _, ev := range annotations {
		switch {
		case ev.Description == psg.LabelStageREM && psg.IsEpochDuration(ev.Duration):
			epochs++
		case ev.Description == psg.LabelREMEvent:
			events++
		}
	}

	q := REMQuality{Minutes: float64(epochs) * 0.5, Events: events}
	if q.Minutes > 0 {
		q.Density = float64(events) / q.Minutes
	}

	var timeScore, densityScore int
	switch {
	case q.Minutes >= 15:
		timeScore = 40
	case q.Minutes >= 5:
		timeScore = 20
	}
	switch {
	case q.Density >= 1.5:
		densityScore = 60
	case q.Density >= 0.5:
		densityScore = 30
	}

	q.Score = timeScore + densityScore
	if q.Score > 100 {
		q.Score = 100
	}

	switch {
	case q.Score >= 80:
		q.Status = "отлично"
	case q.Score >= 60:
		q.Status = "хорошо"
	case q.Score >= 40:
		q.Status = "удовлетворительно"
	default:
		q.Status = "низкое"
	}
	return q
}

func (r *Result) buildHypnogram() {
	codes := make([]string, 0, len(r.Sequence))
	for _, stage := range r.Sequence {
		codes = append(codes, psg.HypnogramCodes[stage])
	}
	r.Hypnogram = Hypnogram{
		EpochCount:   len(codes),
		EpochSeconds: int(psg.EpochSeconds),
		Codes:        codes,
	}
}

func (r *Result) countTransitions() {
	r.Transitions.Counts = map[string]int{}
	r.LongestRuns = map[psg.Stage]int{}

	run := 0
	for i, cur := range r.Sequence {
		if i > 0 && r.Sequence[i-1] != cur {
			r.Transitions.Total++
			r.Transitions.Counts[fmt.Sprintf("%s->%s", r.Sequence[i-1], cur)]++
			run = 0
		}
		run++
		if run > r.LongestRuns[cur] {
			r.LongestRuns[cur] = run
		}
	}
}
