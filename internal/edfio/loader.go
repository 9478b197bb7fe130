// Package edfio loads EDF/EDF+ recordings into the engine's data model.
// Signal decoding and calibration go through github.com/OpenPSG/edf; the
// annotation signal (EDF+ TALs) is decoded locally because the library
// only exposes physical-value reads.
package edfio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenPSG/edf"
	"github.com/google/uuid"

	"github.com/somnolab/sleep.report/internal/psg"
)

// annotationLabel marks the EDF+ annotation signal.
const annotationLabel = "EDF Annotations"

var uuidPattern = regexp.MustCompile(`[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}`)

// fileHeader is the subset of the EDF header the loader needs beyond
// what the decoding library exposes: signal layout for raw annotation
// reads and the identification fields for study-ID extraction.
type fileHeader struct {
	patientID   string
	recordingID string

	headerBytes    int
	dataRecords    int
	recordDuration float64 // seconds
	labels         []string
	samplesPerRec  []int
}

// Load reads one EDF/EDF+ file into a Recording. Ordinary signals become
// channels; the annotation signal becomes the event stream. The study ID
// is the first UUID found in the patient field, the recording field, or
// the file name, in that order.
func Load(path string) (*psg.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("edfio: %w", err)
	}
	defer f.Close()

	hdr, err := parseHeader(f)
	if err != nil {
		return nil, fmt.Errorf("edfio: %s: %w", filepath.Base(path), err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("edfio: %w", err)
	}
	reader, err := edf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("edfio: %s: %w", filepath.Base(path), err)
	}

	rec := &psg.Recording{
		StudyID:  studyID(hdr, path),
		Duration: float64(hdr.dataRecords) * hdr.recordDuration,
	}

	for i, label := range hdr.labels {
		if label == annotationLabel {
			events, err := readAnnotations(f, hdr, i)
			if err != nil {
				return nil, fmt.Errorf("edfio: %s: annotations: %w", filepath.Base(path), err)
			}
			rec.Annotations = append(rec.Annotations, events...)
			continue
		}

		total := hdr.dataRecords * hdr.samplesPerRec[i]
		if total <= 0 {
			continue
		}
		sr, err := reader.Signal(i)
		if err != nil {
			return nil, fmt.Errorf("edfio: %s: signal %d: %w", filepath.Base(path), i, err)
		}
		samples := make([]float64, total)
		n, err := sr.Read(samples)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("edfio: %s: signal %q: %w", filepath.Base(path), label, err)
		}
		rate := 0.0
		if hdr.recordDuration > 0 {
			rate = float64(hdr.samplesPerRec[i]) / hdr.recordDuration
		}
		rec.Channels = append(rec.Channels, psg.Channel{
			Name:       label,
			SampleRate: rate,
			Samples:    samples[:n],
		})
	}

	for _, ch := range rec.Channels {
		if ch.SampleRate > rec.SampleRate {
			rec.SampleRate = ch.SampleRate
		}
	}
	return rec, nil
}

func studyID(hdr *fileHeader, path string) string {
	for _, field := range []string{hdr.patientID, hdr.recordingID, filepath.Base(path)} {
		if m := uuidPattern.FindString(field); m != "" {
			if id, err := uuid.Parse(m); err == nil {
				return id.String()
			}
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// parseHeader reads the fixed and per-signal header fields needed for
// annotation offsets and identification. Field layout follows the EDF
// specification's fixed-width ASCII records.
func parseHeader(r io.Reader) (*fileHeader, error) {
	b := make([]byte, 256)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	hdr := &fileHeader{
		patientID:   strings.TrimSpace(string(b[8:88])),
		recordingID: strings.TrimSpace(string(b[88:168])),
	}

	var err error
	if hdr.headerBytes, err = headerInt(b[184:192]); err != nil {
		return nil, fmt.Errorf("header bytes: %w", err)
	}
	if hdr.dataRecords, err = headerInt(b[236:244]); err != nil {
		return nil, fmt.Errorf("record count: %w", err)
	}
	if hdr.dataRecords < 0 {
		return nil, fmt.Errorf("unknown record count")
	}
	if hdr.recordDuration, err = headerFloat(b[244:252]); err != nil {
		return nil, fmt.Errorf("record duration: %w", err)
	}
	signalCount, err := headerInt(b[252:256])
	if err != nil {
		return nil, fmt.Errorf("signal count: %w", err)
	}

	hdr.labels = make([]string, signalCount)
	sb := make([]byte, 16)
	for i := 0; i < signalCount; i++ {
		if _, err := io.ReadFull(r, sb); err != nil {
			return nil, fmt.Errorf("signal labels: %w", err)
		}
		hdr.labels[i] = strings.TrimSpace(string(sb))
	}

	// Skip transducer(80), dimension(8), phys min/max(8+8), digital
	// min/max(8+8), prefiltering(80) to reach samples-per-record.
	if _, err := io.CopyN(io.Discard, r, int64(signalCount)*(80+8+8+8+8+8+80)); err != nil {
		return nil, fmt.Errorf("signal headers: %w", err)
	}

	hdr.samplesPerRec = make([]int, signalCount)
	nb := make([]byte, 8)
	for i := 0; i < signalCount; i++ {
		if _, err := io.ReadFull(r, nb); err != nil {
			return nil, fmt.Errorf("samples per record: %w", err)
		}
		if hdr.samplesPerRec[i], err = headerInt(nb); err != nil {
			return nil, fmt.Errorf("samples per record: %w", err)
		}
	}
	return hdr, nil
}

func headerInt(b []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

func headerFloat(b []byte) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}
