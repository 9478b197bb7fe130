// Package db persists analysis results to SQLite: one row per study in
// psg_studies, one statistics row per study in sleep_statistics. Schema
// lifecycle is handled by embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/somnolab/sleep.report/internal/psg/pipeline"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the connection pragmas. It does not run migrations; call MigrateUp.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := sqlDB.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	return &DB{sqlDB}, nil
}

// EnsureStudy returns the row id for the study UUID, inserting it on
// first sight.
func (db *DB) EnsureStudy(edfUUID, sourceFile string) (int64, error) {
	_, err := db.Exec(
		`INSERT INTO psg_studies (edf_uuid, source_file) VALUES (?, ?)
		 ON CONFLICT (edf_uuid) DO NOTHING`,
		edfUUID, sourceFile,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting study %s: %w", edfUUID, err)
	}

	var id int64
	if err := db.QueryRow(
		`SELECT id FROM psg_studies WHERE edf_uuid = ?`, edfUUID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up study %s: %w", edfUUID, err)
	}
	return id, nil
}

// UpsertStatistics writes the bundle's flat metrics plus the hypnogram,
// transition and artifact extras as the study's statistics row, replacing
// any previous row for the study.
func (db *DB) UpsertStatistics(studyID int64, m *pipeline.MetricBundle) error {
	hypnogram, err := json.Marshal(m.Hypnogram)
	if err != nil {
		return fmt.Errorf("encoding hypnogram: %w", err)
	}
	transitions, err := json.Marshal(m.Transitions.Counts)
	if err != nil {
		return fmt.Errorf("encoding transitions: %w", err)
	}

	fields := m.Fields()
	cols := make([]string, 0, len(fields)+6)
	args := make([]interface{}, 0, len(fields)+6)
	for _, f := range fields {
		cols = append(cols, f.Key)
		args = append(args, f.Value)
	}
	cols = append(cols,
		"resp_signal_quality", "hypnogram", "stage_transitions",
		"artifact_count", "artifact_minutes", "study_id")
	args = append(args,
		m.RespSignalQuality, string(hypnogram), string(transitions),
		m.ArtifactCount, m.ArtifactDurationMinutes, studyID)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(
		`INSERT INTO sleep_statistics (%s) VALUES (%s)
		 ON CONFLICT (study_id) DO UPDATE SET %s, updated_at = CURRENT_TIMESTAMP`,
		strings.Join(cols, ", "), placeholders, excludedSet(cols))

	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("upserting statistics for study %d: %w", studyID, err)
	}
	return nil
}

// excludedSet renders "col = excluded.col" pairs for every column except
// the conflict key.
func excludedSet(cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "study_id" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return strings.Join(parts, ", ")
}

// StatisticsRow is the readback shape used by reporting and tests.
type StatisticsRow struct {
	StudyUUID           string
	SleepEfficiency     float64
	OverallSleepQuality int
	SleepQualityStatus  string
	Hypnogram           string
}

// Statistics returns the stored rows joined to their study UUIDs, newest
// first.
func (db *DB) Statistics() ([]StatisticsRow, error) {
	rows, err := db.Query(`
		SELECT s.edf_uuid, st.sleep_efficiency, st.overall_sleep_quality,
		       st.sleep_quality_status, st.hypnogram
		FROM sleep_statistics st
		JOIN psg_studies s ON s.id = st.study_id
		ORDER BY st.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatisticsRow
	for rows.Next() {
		var r StatisticsRow
		if err := rows.Scan(&r.StudyUUID, &r.SleepEfficiency,
			&r.OverallSleepQuality, &r.SleepQualityStatus, &r.Hypnogram); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
