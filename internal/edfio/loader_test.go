package edfio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildEDF assembles a minimal two-signal EDF+ file: one 1 Hz numeric
// signal plus the annotation signal, dataRecords records of
// recordSeconds each.
func buildEDF(t *testing.T, patientID string, dataRecords int, annotations [][]byte) []byte {
	t.Helper()

	const (
		recordSeconds = 10
		samplesPerRec = 10 // 1 Hz numeric signal
		annSamplesRec = 32 // 64 bytes of TAL space per record
		signalCount   = 2
	)
	headerBytes := 256 + signalCount*256

	pad := func(s string, width int) []byte {
		if len(s) > width {
			t.Fatalf("header field %q exceeds %d bytes", s, width)
		}
		return []byte(s + string(bytes.Repeat([]byte{' '}, width-len(s))))
	}

	var buf bytes.Buffer
	buf.Write(pad("0", 8))
	buf.Write(pad(patientID, 80))
	buf.Write(pad("somnolab recording", 80))
	buf.Write(pad("01.01.24", 8))
	buf.Write(pad("22.00.00", 8))
	buf.Write(pad(fmt.Sprintf("%d", headerBytes), 8))
	buf.Write(pad("EDF+C", 44))
	buf.Write(pad(fmt.Sprintf("%d", dataRecords), 8))
	buf.Write(pad(fmt.Sprintf("%d", recordSeconds), 8))
	buf.Write(pad(fmt.Sprintf("%d", signalCount), 4))

	// Per-signal headers, field by field across all signals.
	writeAll := func(width int, values ...string) {
		for _, v := range values {
			buf.Write(pad(v, width))
		}
	}
	writeAll(16, "ECG II", "EDF Annotations")
	writeAll(80, "", "")       // transducer
	writeAll(8, "mV", "")      // dimension
	writeAll(8, "0", "-1")     // physical min
	writeAll(8, "100", "1")    // physical max
	writeAll(8, "0", "-32768") // digital min
	writeAll(8, "100", "32767")
	writeAll(80, "", "") // prefiltering
	writeAll(8, fmt.Sprintf("%d", samplesPerRec), fmt.Sprintf("%d", annSamplesRec))
	writeAll(32, "", "") // reserved

	if buf.Len() != headerBytes {
		t.Fatalf("header is %d bytes, want %d", buf.Len(), headerBytes)
	}

	for rec := 0; rec < dataRecords; rec++ {
		// Numeric signal: digital values equal to the sample index, so
		// physical values are 0..9 under the 0..100 identity calibration.
		for i := 0; i < samplesPerRec; i++ {
			var sample [2]byte
			binary.LittleEndian.PutUint16(sample[:], uint16(int16(i)))
			buf.Write(sample[:])
		}

		tal := make([]byte, annSamplesRec*2)
		if rec < len(annotations) {
			copy(tal, annotations[rec])
		}
		buf.Write(tal)
	}
	return buf.Bytes()
}

func writeEDF(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRecording(t *testing.T) {
	const studyUUID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	annotations := [][]byte{
		[]byte("+0\x14\x14\x00+2\x153\x14Событие\x14\x00"),
		[]byte("+10\x14\x14\x00+15\x14Вторая\x14\x00"),
	}
	data := buildEDF(t, "X X X "+studyUUID, 2, annotations)
	path := writeEDF(t, "night.edf", data)

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if rec.StudyID != studyUUID {
		t.Errorf("StudyID = %q, want the header UUID", rec.StudyID)
	}
	if rec.Duration != 20 {
		t.Errorf("Duration = %v, want 20 (2 records x 10s)", rec.Duration)
	}
	if len(rec.Channels) != 1 {
		t.Fatalf("channels = %d, want 1 (annotation signal excluded)", len(rec.Channels))
	}

	ch := rec.Channels[0]
	if ch.Name != "ECG II" || ch.SampleRate != 1 {
		t.Errorf("channel = %q at %v Hz", ch.Name, ch.SampleRate)
	}
	if len(ch.Samples) != 20 {
		t.Fatalf("samples = %d, want 20", len(ch.Samples))
	}
	// Identity calibration: digital 0..9 maps to physical 0..9.
	for i := 0; i < 10; i++ {
		if math.Abs(ch.Samples[i]-float64(i)) > 1e-9 {
			t.Fatalf("sample[%d] = %v, want %d", i, ch.Samples[i], i)
		}
	}

	if len(rec.Annotations) != 2 {
		t.Fatalf("annotations = %+v, want 2 events", rec.Annotations)
	}
	first := rec.Annotations[0]
	if first.Onset != 2 || first.Duration != 3 || first.Description != "Событие" {
		t.Errorf("first event = %+v", first)
	}
	second := rec.Annotations[1]
	if second.Onset != 15 || second.Description != "Вторая" {
		t.Errorf("second event = %+v", second)
	}

	if rec.SampleRate != 1 {
		t.Errorf("reference sample rate = %v, want 1", rec.SampleRate)
	}
}

func TestLoadStudyIDFromFilename(t *testing.T) {
	const studyUUID = "c0ffee00-1234-4abc-8def-000000000042"
	data := buildEDF(t, "anonymous", 1, nil)
	path := writeEDF(t, "export_"+studyUUID+".edf", data)

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.StudyID != studyUUID {
		t.Errorf("StudyID = %q, want UUID from the file name", rec.StudyID)
	}
}

func TestLoadStudyIDFallsBackToBaseName(t *testing.T) {
	data := buildEDF(t, "anonymous", 1, nil)
	path := writeEDF(t, "patient7.edf", data)

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.StudyID != "patient7" {
		t.Errorf("StudyID = %q, want base name fallback", rec.StudyID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.edf")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadTruncatedHeader(t *testing.T) {
	path := writeEDF(t, "broken.edf", []byte("0       too short"))
	if _, err := Load(path); err == nil {
		t.Error("expected error for a truncated header")
	}
}
