// Package store provides the SQLite-backed table sink that the
// extractors and the waveform pipeline write into.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pjdon/cveureka/internal/l1b"
	"github.com/pjdon/cveureka/internal/timeutil"
)

// Store wraps the SQLite handle. One Store is exclusively owned by one
// extraction at a time; writes from two extractions to the same table
// are not supported.
type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the SQLite database at path and
// ensures the run-bookkeeping table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_runs (
			run_id        TEXT PRIMARY KEY,
			source        TEXT,
			output_table  TEXT,
			rows_written  BIGINT,
			rows_dropped  BIGINT,
			started_at    TIMESTAMP,
			finished_at   TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create ingest_runs: %w", err)
	}

	return &Store{DB: db, clock: timeutil.RealClock{}}, nil
}

// columnType maps a declared column to a SQLite column type. Array
// columns of any element type are stored as JSON-encoded TEXT.
func columnType(c l1b.Column) string {
	if c.Count > 1 {
		return "TEXT"
	}
	return c.Type
}

// DeclareTable creates table with an implicit integer primary key
// followed by the declared columns, in order.
func (s *Store) DeclareTable(table string, cols []l1b.Column) error {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, "id INTEGER PRIMARY KEY")
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", c.Name, columnType(c)))
	}

	_, err := s.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", ")))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// BulkInsert appends rows to table inside one transaction, so a batch
// lands whole or not at all. Array values are JSON-encoded.
func (s *Store) BulkInsert(table string, rows []l1b.DecodedRecord, targetCols []string) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(targetCols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(targetCols, ", "), placeholders)

	return s.retryOnBusy(func() error {
		tx, err := s.Begin()
		if err != nil {
			return fmt.Errorf("begin insert into %s: %w", table, err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("prepare insert into %s: %w", table, err)
		}
		defer stmt.Close()

		args := make([]any, len(targetCols))
		for _, row := range rows {
			if len(row) != len(targetCols) {
				return fmt.Errorf("insert into %s: row has %d values for %d columns", table, len(row), len(targetCols))
			}
			for i, v := range row {
				bound, err := bindValue(v)
				if err != nil {
					return fmt.Errorf("insert into %s column %s: %w", table, targetCols[i], err)
				}
				args[i] = bound
			}
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		return tx.Commit()
	})
}

// bindValue converts a decoded value into a driver-compatible one.
func bindValue(v any) (any, error) {
	switch v.(type) {
	case nil, int64, float64, string, bool:
		return v, nil
	case []int64, []float64:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode array: %w", err)
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// TableExists reports whether a table of that name exists.
func (s *Store) TableExists(table string) (bool, error) {
	var n int
	err := s.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

// isSQLiteBusy reports whether err is a transient lock/busy error.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

// retryOnBusy runs fn, retrying with linear backoff while it fails
// with a transient SQLite busy error.
func (s *Store) retryOnBusy(fn func() error) error {
	const maxRetries = 5
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = fn(); !isSQLiteBusy(err) {
			return err
		}
		s.clock.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}
