package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/db"
	"github.com/somnolab/sleep.report/internal/edfio"
	"github.com/somnolab/sleep.report/internal/psg/pipeline"
	"github.com/somnolab/sleep.report/internal/report"
)

var (
	inDir      = flag.String("in", ".", "Directory scanned for *.edf recordings")
	outSQL     = flag.String("out", "sleep_statistics_update.sql", "Output SQL update script (empty to skip)")
	csvPath    = flag.String("csv", "", "Optional CSV summary output")
	dbPath     = flag.String("db", "", "Optional SQLite results database")
	configPath = flag.String("config", "", "Optional analysis config JSON")
	workers    = flag.Int("workers", 10, "Concurrent recordings processed")
)

// sinks serializes writes from the worker pool into the enabled outputs.
type sinks struct {
	mu      sync.Mutex
	sqlFile *os.File
	csv     *report.CSVWriter
	store   *db.DB
}

func (s *sinks) write(path string, m *pipeline.MetricBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sqlFile != nil {
		stmt, err := report.SQLUpdate(m)
		if err != nil {
			return fmt.Errorf("rendering SQL: %w", err)
		}
		if _, err := s.sqlFile.WriteString(stmt + "\n"); err != nil {
			return fmt.Errorf("writing SQL: %w", err)
		}
	}
	if s.csv != nil {
		if err := s.csv.Write(m); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
	}
	if s.store != nil {
		id, err := s.store.EnsureStudy(m.StudyID, filepath.Base(path))
		if err != nil {
			return err
		}
		if err := s.store.UpsertStatistics(id, m); err != nil {
			return err
		}
	}
	return nil
}

// processFile loads and analyzes one recording. A panic anywhere in the
// analysis is contained to the file so the batch keeps going.
func processFile(path string, cfg *config.AnalysisConfig) (m *pipeline.MetricBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("panic analyzing %s: %v", filepath.Base(path), r)
		}
	}()

	rec, err := edfio.Load(path)
	if err != nil {
		return nil, err
	}
	return pipeline.Analyze(rec, cfg), nil
}

func findRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".edf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	paths, err := findRecordings(*inDir)
	if err != nil {
		log.Fatalf("scanning %s: %v", *inDir, err)
	}
	if len(paths) == 0 {
		log.Fatalf("no .edf recordings found in %s", *inDir)
	}
	log.Printf("found %d recordings in %s", len(paths), *inDir)

	var out sinks
	if *outSQL != "" {
		f, err := os.Create(*outSQL)
		if err != nil {
			log.Fatalf("creating %s: %v", *outSQL, err)
		}
		defer f.Close()
		out.sqlFile = f
	}
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatalf("creating %s: %v", *csvPath, err)
		}
		defer f.Close()
		out.csv = report.NewCSVWriter(f)
		defer func() {
			if err := out.csv.Flush(); err != nil {
				log.Printf("flushing CSV: %v", err)
			}
		}()
	}
	if *dbPath != "" {
		store, err := db.Open(*dbPath)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(); err != nil {
			log.Fatalf("migrating database: %v", err)
		}
		out.store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := make(chan string)
	var wg sync.WaitGroup
	var okCount, failCount int64
	var countMu sync.Mutex

	n := *workers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				m, err := processFile(path, cfg)
				if err == nil {
					err = out.write(path, m)
				}
				countMu.Lock()
				if err != nil {
					failCount++
					log.Printf("FAIL %s: %v", filepath.Base(path), err)
				} else {
					okCount++
					log.Printf("ok %s: quality %d (%s), efficiency %.1f%%",
						filepath.Base(path), m.OverallSleepQuality,
						m.SleepQualityStatus, m.SleepEfficiency)
				}
				countMu.Unlock()
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
			log.Printf("interrupted, draining workers")
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("done: %d processed, %d failed", okCount, failCount)
	if failCount > 0 {
		os.Exit(1)
	}
}
