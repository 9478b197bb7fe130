package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/somnolab/sleep.report/internal/psg/pipeline"
)

// CSVWriter streams one summary row per analyzed study.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write appends the bundle as one row, emitting the header first on the
// initial call. Undefined metrics render as empty cells.
func (c *CSVWriter) Write(m *pipeline.MetricBundle) error {
	fields := m.Fields()

	if !c.wroteHeader {
		header := make([]string, 0, len(fields)+1)
		header = append(header, "study_uuid")
		for _, f := range fields {
			header = append(header, f.Key)
		}
		if err := c.w.Write(header); err != nil {
			return err
		}
		c.wroteHeader = true
	}

	row := make([]string, 0, len(fields)+1)
	row = append(row, m.StudyID)
	for _, f := range fields {
		row = append(row, csvCell(f.Value))
	}
	return c.w.Write(row)
}

// Flush writes buffered rows through and reports any accumulated error.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func csvCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
