// Package report renders analysis bundles into the export formats the
// downstream systems consume: SQL update scripts for the clinical
// database and CSV for ad-hoc review.
package report

import (
	"fmt"
	"strings"

	"github.com/somnolab/sleep.report/internal/psg/pipeline"
)

// SQLUpdate renders one study's bundle as an UPDATE against the clinical
// schema, keyed by the study UUID. The target dialect is MySQL (the
// clinical database), hence the JOIN-update form.
func SQLUpdate(m *pipeline.MetricBundle) (string, error) {
	hypnogram, err := HypnogramJSON(m)
	if err != nil {
		return "", err
	}
	transitions, err := TransitionsJSON(m)
	if err != nil {
		return "", err
	}

	var sets []string
	for _, f := range m.Fields() {
		sets = append(sets, fmt.Sprintf("ss.%s = %s", f.Key, sqlLiteral(f.Value)))
	}
	sets = append(sets,
		fmt.Sprintf("ss.hypnogram = %s", sqlLiteral(hypnogram)),
		fmt.Sprintf("ss.stage_transitions = %s", sqlLiteral(transitions)),
	)

	var b strings.Builder
	b.WriteString("UPDATE sleep_statistics ss\n")
	b.WriteString("JOIN psg_studies ps ON ss.study_id = ps.id\n")
	b.WriteString("SET " + strings.Join(sets, ",\n    ") + "\n")
	fmt.Fprintf(&b, "WHERE ps.edf_uuid = %s;\n", sqlLiteral(m.StudyID))
	return b.String(), nil
}

// sqlLiteral renders a field value as a SQL literal. nil becomes NULL;
// strings are single-quoted with embedded quotes doubled.
func sqlLiteral(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case float64:
		return formatFloat(t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatFloat renders a float without trailing zero noise.
func formatFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
