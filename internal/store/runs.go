package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IngestRun records the outcome of one file extraction: which source
// file fed which table, how many rows landed, and how many points were
// filtered out, so data loss stays observable after the logs are gone.
type IngestRun struct {
	RunID       string
	Source      string
	OutputTable string
	RowsWritten int64
	RowsDropped int64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// BeginRun opens a run row for the given source file and output table
// under a fresh UUID.
func (s *Store) BeginRun(source, outputTable string) (*IngestRun, error) {
	run := &IngestRun{
		RunID:       uuid.New().String(),
		Source:      source,
		OutputTable: outputTable,
		StartedAt:   s.clock.Now().UTC(),
	}
	err := s.retryOnBusy(func() error {
		_, err := s.Exec(
			`INSERT INTO ingest_runs (run_id, source, output_table, started_at) VALUES (?, ?, ?, ?)`,
			run.RunID, run.Source, run.OutputTable, run.StartedAt,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("begin ingest run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run with its final counters.
func (s *Store) FinishRun(run *IngestRun, rowsWritten, rowsDropped int64) error {
	run.RowsWritten = rowsWritten
	run.RowsDropped = rowsDropped
	run.FinishedAt = s.clock.Now().UTC()

	return s.retryOnBusy(func() error {
		_, err := s.Exec(
			`UPDATE ingest_runs SET rows_written = ?, rows_dropped = ?, finished_at = ? WHERE run_id = ?`,
			run.RowsWritten, run.RowsDropped, run.FinishedAt, run.RunID,
		)
		return err
	})
}

// GetRun returns a run row by ID. A run that has not finished reports
// zero counters and its start time as the finish time.
func (s *Store) GetRun(runID string) (*IngestRun, error) {
	var (
		run              IngestRun
		written, dropped sql.NullInt64
		finished         sql.NullTime
	)
	err := s.QueryRow(
		`SELECT run_id, source, output_table, rows_written, rows_dropped, started_at, finished_at
		 FROM ingest_runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.Source, &run.OutputTable,
		&written, &dropped, &run.StartedAt, &finished)
	if err != nil {
		return nil, fmt.Errorf("ingest run %s: %w", runID, err)
	}
	run.RowsWritten = written.Int64
	run.RowsDropped = dropped.Int64
	run.FinishedAt = run.StartedAt
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
