package psg

// Annotation labels used by the scoring software that produces the
// recordings. The Cyrillic strings are data, not UI: they are matched
// verbatim against the annotation stream.
const (
	LabelStageWake    = "Sleep stage W(eventUnknown)"
	LabelStageN1      = "Sleep stage 1(eventUnknown)"
	LabelStageN2      = "Sleep stage 2(eventUnknown)"
	LabelStageN3      = "Sleep stage 3(eventUnknown)"
	LabelStageREM     = "Sleep stage R(eventUnknown)"
	LabelStageUnknown = "Sleep stage Unknown(eventUnknown)"

	LabelArtifactBlock      = "Артефакт(blockArtefact)"
	LabelIlluminationSensor = "pointIlluminationSensorValue"

	LabelREMEvent = "БДГ(pointPolySomnographyREM)"

	LabelActivation        = "Активация(pointPolySomnographyActivation)"
	LabelLimbMovement      = "Движение конечностей(pointPolySomnographyLegsMovements)"
	LabelPeriodicMovements = "Периодические движения конечностей(pointPolySomnographyPeriodicalLegsMovements)"
	LabelBruxism           = "Бруксизм(pointBruxism)"

	LabelObstructiveApnea    = "Обструктивное апноэ(pointPolySomnographyObstructiveApnea)"
	LabelCentralApnea        = "Центральное апноэ(pointPolySomnographyCentralApnea)"
	LabelMixedApnea          = "Смешанное апноэ(pointPolySomnographyMixedApnea)"
	LabelObstructiveHypopnea = "Обструктивное гипопноэ(pointPolySomnographyHypopnea)"
	LabelCentralHypopnea     = "Центральное гипопноэ(pointPolySomnographyCentralHypopnea)"
	LabelMixedHypopnea       = "Смешанное гипопноэ(pointPolySomnographyMixedHypopnea)"
	LabelDesaturation        = "Десатурация(pointPolySomnographyDesaturation)"
	LabelSnore               = "Храп(pointPolySomnographySnore)"
	LabelCheyneStokes        = "Дыхание Чейна-Стокса(pointPolySomnographyCheyneStokesRespiration)"

	// Tachycardia/bradycardia markers are matched by substring because the
	// scorer emits several variants of each.
	MarkerTachycardia = "Тахикардия"
	MarkerBradycardia = "Брадикардия"
)

// Stage is a 30-second-epoch sleep stage label.
type Stage string

const (
	StageWake    Stage = "Wake"
	StageN1      Stage = "N1"
	StageN2      Stage = "N2"
	StageN3      Stage = "N3"
	StageREM     Stage = "REM"
	StageUnknown Stage = "Unknown"
)

// StageLabels maps annotation descriptions to stages.
var StageLabels = map[string]Stage{
	LabelStageWake:    StageWake,
	LabelStageN1:      StageN1,
	LabelStageN2:      StageN2,
	LabelStageN3:      StageN3,
	LabelStageREM:     StageREM,
	LabelStageUnknown: StageUnknown,
}

// HypnogramCodes maps stages to the single-character codes used in the
// compact hypnogram export.
var HypnogramCodes = map[Stage]string{
	StageWake: "W",
	StageN1:   "1",
	StageN2:   "2",
	StageN3:   "3",
	StageREM:  "R",
}

// IsNREM reports whether s is one of the three NREM stages.
func (s Stage) IsNREM() bool {
	return s == StageN1 || s == StageN2 || s == StageN3
}

// IsSleep reports whether s counts toward total sleep time.
func (s Stage) IsSleep() bool {
	return s.IsNREM() || s == StageREM
}

// EpochSeconds is the fixed scoring interval; EpochTolerance is how far a
// stage event's duration may deviate from it and still produce an epoch.
const (
	EpochSeconds   = 30.0
	EpochTolerance = 1.0
)

// IsEpochDuration reports whether d qualifies as one scoring epoch.
func IsEpochDuration(d float64) bool {
	diff := d - EpochSeconds
	if diff < 0 {
		diff = -diff
	}
	return diff < EpochTolerance
}
