package cardio

import "github.com/somnolab/sleep.report/internal/config"

// episodeState tracks one direction (tachycardia or bradycardia) of the
// episode detector.
type episodeState int

const (
	episodeClosed episodeState = iota // below the run-length requirement
	episodeOpen                       // an episode has been counted and is ongoing
)

// episodeDetector is a hysteresis state machine over the chronological
// rate sequence. A run of minRun consecutive exceeding samples opens one
// episode; any non-exceeding sample closes it and resets the run. Only
// episode onsets are counted, not durations.
type episodeDetector struct {
	minRun int
	exceed func(rate float64) bool

	state    episodeState
	run      int
	episodes int
}

func (d *episodeDetector) observe(rate float64) {
	if !d.exceed(rate) {
		d.run = 0
		d.state = episodeClosed
		return
	}
	d.run++
	if d.run >= d.minRun && d.state == episodeClosed {
		d.episodes++
		d.state = episodeOpen
	}
}

// detectEpisodes counts tachycardia and bradycardia episode onsets in the
// rate sequence.
func detectEpisodes(rates []float64, cfg *config.AnalysisConfig) (tachycardia, bradycardia int) {
	tachyThreshold := cfg.GetTachycardiaThreshold()
	bradyThreshold := cfg.GetBradycardiaThreshold()
	minRun := cfg.GetMinConsecutiveRates()

	tachy := episodeDetector{minRun: minRun, exceed: func(r float64) bool { return r > tachyThreshold }}
	brady := episodeDetector{minRun: minRun, exceed: func(r float64) bool { return r < bradyThreshold }}

	for _, r := range rates {
		tachy.observe(r)
		brady.observe(r)
	}
	return tachy.episodes, brady.episodes
}
