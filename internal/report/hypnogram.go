package report

import (
	"encoding/json"

	"github.com/somnolab/sleep.report/internal/psg/pipeline"
)

// HypnogramJSON renders the compact hypnogram export: epoch count, epoch
// seconds, and the per-epoch stage codes under short keys.
func HypnogramJSON(m *pipeline.MetricBundle) (string, error) {
	b, err := json.Marshal(m.Hypnogram)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TransitionsJSON renders the stage-transition counts keyed "From->To".
func TransitionsJSON(m *pipeline.MetricBundle) (string, error) {
	counts := m.Transitions.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
