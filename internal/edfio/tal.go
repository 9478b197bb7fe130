package edfio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/somnolab/sleep.report/internal/psg"
)

// TAL framing bytes per the EDF+ specification.
const (
	talFieldSep = '\x14' // separates onset/duration from descriptions
	talDurSep   = '\x15' // separates onset from duration
)

// readAnnotations extracts the event stream from the annotation signal.
// Each data record carries a sequence of NUL-terminated TALs; the first
// TAL of each record is timekeeping only (empty description) and is
// dropped, as are other description-less entries.
func readAnnotations(r io.ReadSeeker, hdr *fileHeader, signalIndex int) ([]psg.AnnotationEvent, error) {
	recordSize := 0
	signalOffset := 0
	for i, n := range hdr.samplesPerRec {
		if i < signalIndex {
			signalOffset += n * 2
		}
		recordSize += n * 2
	}
	chunk := hdr.samplesPerRec[signalIndex] * 2

	var events []psg.AnnotationEvent
	buf := make([]byte, chunk)
	for rec := 0; rec < hdr.dataRecords; rec++ {
		pos := int64(hdr.headerBytes) + int64(rec)*int64(recordSize) + int64(signalOffset)
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		parsed, err := parseTALs(buf)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec, err)
		}
		events = append(events, parsed...)
	}
	return events, nil
}

// parseTALs decodes one record's annotation bytes. Malformed trailing
// fragments (padding) are ignored; a TAL with an unparsable onset is an
// error since it breaks the time base.
func parseTALs(b []byte) ([]psg.AnnotationEvent, error) {
	var events []psg.AnnotationEvent
	for _, tal := range strings.Split(string(b), "\x00") {
		if tal == "" {
			continue
		}
		sep := strings.IndexByte(tal, talFieldSep)
		if sep < 0 {
			continue
		}

		timing := tal[:sep]
		duration := 0.0
		if d := strings.IndexByte(timing, talDurSep); d >= 0 {
			v, err := strconv.ParseFloat(timing[d+1:], 64)
			if err != nil {
				return nil, fmt.Errorf("duration %q: %w", timing[d+1:], err)
			}
			duration = v
			timing = timing[:d]
		}
		onset, err := strconv.ParseFloat(timing, 64)
		if err != nil {
			return nil, fmt.Errorf("onset %q: %w", timing, err)
		}

		for _, desc := range strings.Split(tal[sep+1:], string(talFieldSep)) {
			desc = strings.TrimSpace(desc)
			if desc == "" {
				continue
			}
			events = append(events, psg.AnnotationEvent{
				Onset:       onset,
				Duration:    duration,
				Description: desc,
			})
		}
	}
	return events, nil
}
