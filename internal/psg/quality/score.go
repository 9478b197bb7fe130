package quality

import "github.com/somnolab/sleep.report/internal/config"

// ScoreInput is everything the composite score weighs.
type ScoreInput struct {
	SleepEfficiency float64
	N3Percent       float64
	REMPercent      float64
	AHI             float64
	ArousalIndex    float64
	REMQualityScore int
	Tachycardia     int
	Bradycardia     int
	REMCycles       int
}

// Score is the composite sleep-quality result.
type Score struct {
	Overall int
	Status  string
}

// tier returns the points of the first threshold the value reaches.
type tier struct {
	threshold float64
	points    float64
}

func tierAtLeast(v float64, tiers []tier) float64 {
	for _, t := range tiers {
		if v >= t.threshold {
			return t.points
		}
	}
	return 0
}

func tierBelow(v float64, tiers []tier) float64 {
	for _, t := range tiers {
		if v < t.threshold {
			return t.points
		}
	}
	return 0
}

// ComputeScore builds the composite score: tiered efficiency points, deep
// sleep and REM share bonuses, inverted AHI and arousal tiers, a scaled
// REM-quality contribution, a cardiac-episode penalty and a REM-cycle
// bonus, clamped to [0,100] and bucketed into four status tiers.
func ComputeScore(in ScoreInput, cfg *config.AnalysisConfig) Score {
	if cfg == nil {
		cfg = config.Default()
	}

	score := tierAtLeast(in.SleepEfficiency, []tier{{85, 25}, {70, 20}, {50, 10}})

	if in.N3Percent >= cfg.GetN3PercentThreshold() {
		score += 15
	}
	if in.REMPercent >= cfg.GetREMPercentThreshold() {
		score += 15
	}

	score += tierBelow(in.AHI, []tier{{5, 30}, {15, 20}, {30, 10}})
	score += tierBelow(in.ArousalIndex, []tier{{10, 15}, {20, 10}})

	score += float64(in.REMQualityScore) * 0.15

	switch {
	case in.Tachycardia > 10 || in.Bradycardia > 10:
		score -= 15
	case in.Tachycardia > 5 || in.Bradycardia > 5:
		score -= 10
	case in.Tachycardia > 0 || in.Bradycardia > 0:
		score -= 5
	}

	switch {
	case in.REMCycles >= 4:
		score += 10
	case in.REMCycles >= 3:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	overall := int(score)
	var status string
	switch {
	case overall >= 85:
		status = "отличное"
	case overall >= 70:
		status = "хорошее"
	case overall >= 50:
		status = "удовлетворительное"
	default:
		status = "плохое"
	}

	return Score{Overall: overall, Status: status}
}
