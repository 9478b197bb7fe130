package pipeline

import (
	"sync"

	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/monitoring"
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/artifact"
	"github.com/somnolab/sleep.report/internal/psg/cardio"
	"github.com/somnolab/sleep.report/internal/psg/quality"
	"github.com/somnolab/sleep.report/internal/psg/resp"
	"github.com/somnolab/sleep.report/internal/psg/spo2"
	"github.com/somnolab/sleep.report/internal/psg/staging"
)

// Analyze runs the full metric pass over one recording: artifact mask,
// stage-derived metrics, then the three signal analyzers concurrently,
// and finally the event indices and composite score. A bundle is always
// produced; analyzers that find nothing usable leave their optional
// fields nil, and a panicking analyzer is contained to its own zeroed
// section.
func Analyze(rec *psg.Recording, cfg *config.AnalysisConfig) *MetricBundle {
	if cfg == nil {
		cfg = config.Default()
	}

	mask, regions := artifact.NewBuilder(cfg).Mask(rec)
	stages := staging.Stage(rec.Annotations, cfg)

	var (
		wg          sync.WaitGroup
		cardioStats cardio.Stats
		respStats   resp.Stats
		spo2Stats   spo2.Stats
	)
	wg.Add(3)
	go contain("cardio", &wg, func() { cardioStats = cardio.Analyze(rec, mask, cfg) })
	go contain("resp", &wg, func() { respStats = resp.Analyze(rec, mask, cfg) })
	go contain("spo2", &wg, func() { spo2Stats = spo2.Analyze(rec, mask, cfg) })
	wg.Wait()

	events := quality.CountRespiratoryEvents(rec.Annotations)
	frag := quality.CountFragmentation(rec.Annotations, stages.TotalSleepMinutes)
	indices := quality.ComputeIndices(events, frag, stages.TotalSleepMinutes)

	var arch staging.Architecture
	if stages.Architecture != nil {
		arch = *stages.Architecture
	}
	score := quality.ComputeScore(quality.ScoreInput{
		SleepEfficiency: stages.SleepEfficiency,
		N3Percent:       arch.N3Percent,
		REMPercent:      arch.REMPercent,
		AHI:             indices.AHI,
		ArousalIndex:    frag.ArousalIndex,
		REMQualityScore: stages.REMQuality.Score,
		Tachycardia:     cardioStats.TachycardiaEvents,
		Bradycardia:     cardioStats.BradycardiaEvents,
		REMCycles:       stages.REMCycles,
	}, cfg)

	return assemble(rec, stages, cardioStats, respStats, spo2Stats,
		events, frag, indices, score, regions)
}

// contain runs one analyzer, converting a panic into a logged
// degradation so the remaining sections of the bundle still populate.
func contain(name string, wg *sync.WaitGroup, fn func()) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("pipeline: %s analyzer panicked: %v", name, r)
		}
	}()
	fn()
}

func assemble(rec *psg.Recording, stages *staging.Result,
	cardioStats cardio.Stats, respStats resp.Stats, spo2Stats spo2.Stats,
	events quality.RespiratoryEvents, frag quality.Fragmentation,
	indices quality.Indices, score quality.Score, regions []artifact.Region) *MetricBundle {

	m := &MetricBundle{
		StudyID: rec.StudyID,

		TotalSleepTimeMin:   stages.TotalSleepMinutes,
		TotalBedTimeMin:     stages.TotalBedMinutes,
		SleepEfficiency:     stages.SleepEfficiency,
		SleepLatencyMin:     stages.SleepOnsetLatencyMin,
		WakeAfterSleepOnset: stages.WASOMinutes,
		N1Minutes:           stages.Stages[psg.StageN1].Minutes,
		N2Minutes:           stages.Stages[psg.StageN2].Minutes,
		N3Minutes:           stages.Stages[psg.StageN3].Minutes,
		REMMinutes:          stages.Stages[psg.StageREM].Minutes,

		REMLatencyMin:   stages.REMLatencyMin,
		REMEpochs:       stages.Stages[psg.StageREM].Count,
		REMCycles:       stages.REMCycles,
		REMEvents:       stages.REMQuality.Events,
		REMDensity:      stages.REMQuality.Density,
		REMQualityScore: stages.REMQuality.Score,
		REMStatus:       stages.REMQuality.Status,

		TotalApneas:          events.Apneas(),
		ObstructiveApneas:    events.ObstructiveApneas,
		CentralApneas:        events.CentralApneas,
		MixedApneas:          events.MixedApneas,
		TotalHypopneas:       events.Hypopneas(),
		ObstructiveHypopneas: events.ObstructiveHypopneas,
		CentralHypopneas:     events.CentralHypopneas,
		MixedHypopneas:       events.MixedHypopneas,
		TotalDesaturations:   events.Desaturations,
		TotalSnores:          events.Snores,
		CheyneStokesEpisodes: events.CheyneStokes,
		AHI:                  indices.AHI,
		AHISeverity:          indices.AHISeverity,
		AHIObstructive:       indices.AHIObstructive,
		AHICentral:           indices.AHICentral,
		AHIMixed:             indices.AHIMixed,
		ODI:                  indices.ODI,
		SnoreIndex:           indices.SnoreIndex,

		AvgSpO2:        spo2Stats.AvgSpO2,
		MinSpO2:        spo2Stats.MinSpO2,
		SpO2Baseline:   spo2Stats.SpO2Baseline,
		TimeBelow90Min: spo2Stats.TimeBelow90Min,
		TimeBelow85Min: spo2Stats.TimeBelow85Min,

		AvgHeartRate:         cardioStats.AvgHeartRate,
		MinHeartRate:         cardioStats.MinHeartRate,
		MaxHeartRate:         cardioStats.MaxHeartRate,
		HeartRateVariability: cardioStats.HeartRateVariability,
		TachycardiaEvents:    cardioStats.TachycardiaEvents,
		BradycardiaEvents:    cardioStats.BradycardiaEvents,
		HRAnalysisMethod:     cardioStats.AnalysisMethod,

		AvgRespRate:       respStats.AvgRespRate,
		MinRespRate:       respStats.MinRespRate,
		MaxRespRate:       respStats.MaxRespRate,
		RespSignalQuality: respStats.SignalQuality,

		TotalLimbMovements:      frag.TotalLimbMovements(),
		PeriodicLimbMovements:   frag.PeriodicLimbMovements,
		PLMI:                    indices.PLMI,
		BruxismEvents:           frag.BruxismEvents,
		TotalArousals:           frag.Activations,
		ArousalIndex:            frag.ArousalIndex,
		SleepFragmentationIndex: frag.FragmentationIndex,

		OverallSleepQuality: score.Overall,
		SleepQualityStatus:  score.Status,

		Epochs:      stages.Sequence,
		Hypnogram:   stages.Hypnogram,
		Transitions: stages.Transitions,
	}

	if stages.Architecture != nil {
		m.N1Percentage = &stages.Architecture.N1Percent
		m.N2Percentage = &stages.Architecture.N2Percent
		m.N3Percentage = &stages.Architecture.N3Percent
		m.REMPercentage = &stages.Architecture.REMPercent
	}

	m.ArtifactCount = len(regions)
	for _, reg := range regions {
		m.ArtifactDurationMinutes += reg.Duration / 60
	}
	return m
}
