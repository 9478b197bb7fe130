// Package quality aggregates stage, respiratory-event, fragmentation,
// REM and cardiac data into per-hour indices and the composite
// sleep-quality score.
package quality

import "github.com/somnolab/sleep.report/internal/psg"

// RespiratoryEvents tallies the discrete respiratory annotations, split
// by obstruction sub-type.
type RespiratoryEvents struct {
	ObstructiveApneas    int
	CentralApneas        int
	MixedApneas          int
	ObstructiveHypopneas int
	CentralHypopneas     int
	MixedHypopneas       int
	Desaturations        int
	Snores               int
	CheyneStokes         int
}

// Apneas is the total across apnea sub-types.
func (e RespiratoryEvents) Apneas() int {
	return e.ObstructiveApneas + e.CentralApneas + e.MixedApneas
}

// Hypopneas is the total across hypopnea sub-types.
func (e RespiratoryEvents) Hypopneas() int {
	return e.ObstructiveHypopneas + e.CentralHypopneas + e.MixedHypopneas
}

// CountRespiratoryEvents tallies respiratory event annotations by label.
func CountRespiratoryEvents(annotations []psg.AnnotationEvent) RespiratoryEvents {
	var e RespiratoryEvents
	for _, ev := range annotations {
		switch ev.Description {
		case psg.LabelObstructiveApnea:
			e.ObstructiveApneas++
		case psg.LabelCentralApnea:
			e.CentralApneas++
		case psg.LabelMixedApnea:
			e.MixedApneas++
		case psg.LabelObstructiveHypopnea:
			e.ObstructiveHypopneas++
		case psg.LabelCentralHypopnea:
			e.CentralHypopneas++
		case psg.LabelMixedHypopnea:
			e.MixedHypopneas++
		case psg.LabelDesaturation:
			e.Desaturations++
		case psg.LabelSnore:
			e.Snores++
		case psg.LabelCheyneStokes:
			e.CheyneStokes++
		}
	}
	return e
}

// Fragmentation tallies arousal and movement annotations and their
// per-sleep-hour indices.
type Fragmentation struct {
	Activations           int
	LimbMovements         int
	PeriodicLimbMovements int
	BruxismEvents         int

	FragmentationIndex float64 // (activations + movements) per sleep hour
	ArousalIndex       float64 // activations per sleep hour
}

// TotalLimbMovements is single plus periodic limb movements.
func (f Fragmentation) TotalLimbMovements() int {
	return f.LimbMovements + f.PeriodicLimbMovements
}

// CountFragmentation tallies fragmentation annotations; indices are 0
// when total sleep time is 0.
func CountFragmentation(annotations []psg.AnnotationEvent, totalSleepMinutes float64) Fragmentation {
	var f Fragmentation
	for _, ev := range annotations {
		switch ev.Description {
		case psg.LabelActivation:
			f.Activations++
		case psg.LabelLimbMovement:
			f.LimbMovements++
		case psg.LabelPeriodicMovements:
			f.PeriodicLimbMovements++
		case psg.LabelBruxism:
			f.BruxismEvents++
		}
	}

	if totalSleepMinutes > 0 {
		hours := totalSleepMinutes / 60
		f.FragmentationIndex = float64(f.Activations+f.TotalLimbMovements()) / hours
		f.ArousalIndex = float64(f.Activations) / hours
	}
	return f
}

// Indices are the per-sleep-hour respiratory and movement indices. All
// are 0, never NaN or an error, when total sleep time is 0.
type Indices struct {
	AHI            float64
	AHISeverity    string // clinical severity bucket, empty when TST is 0
	AHIObstructive float64
	AHICentral     float64
	AHIMixed       float64
	ODI            float64
	SnoreIndex     float64
	PLMI           float64
}

// AHISeverity buckets an apnea-hypopnea index at the clinical 5/15/30
// thresholds.
func AHISeverity(ahi float64) string {
	switch {
	case ahi < 5:
		return "норма"
	case ahi < 15:
		return "легкая"
	case ahi < 30:
		return "средняя"
	default:
		return "тяжелая"
	}
}

// ComputeIndices normalizes the event tallies by total sleep hours.
func ComputeIndices(events RespiratoryEvents, frag Fragmentation, totalSleepMinutes float64) Indices {
	if totalSleepMinutes <= 0 {
		return Indices{}
	}
	hours := totalSleepMinutes / 60
	ahi := float64(events.Apneas()+events.Hypopneas()) / hours
	return Indices{
		AHI:         ahi,
		AHISeverity: AHISeverity(ahi),
		AHIObstructive: float64(events.ObstructiveApneas+events.ObstructiveHypopneas) / hours,
		AHICentral:     float64(events.CentralApneas+events.CentralHypopneas) / hours,
		AHIMixed:       float64(events.MixedApneas+events.MixedHypopneas) / hours,
		ODI:            float64(events.Desaturations) / hours,
		SnoreIndex:     float64(events.Snores) / hours,
		PLMI:           float64(frag.PeriodicLimbMovements) / hours,
	}
}
