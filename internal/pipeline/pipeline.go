// Package pipeline sequences the loading and processing steps of one
// survey campaign: L1b file extraction into source tables, then
// waveform processing into derived tables. Every step skips itself
// when its output table already exists, so a rerun resumes where the
// previous run stopped.
package pipeline

import (
	"fmt"
	"os"

	"github.com/pjdon/cveureka/internal/l1b"
	"github.com/pjdon/cveureka/internal/logging"
	"github.com/pjdon/cveureka/internal/store"
	"github.com/pjdon/cveureka/internal/waveform"
)

// Output table names.
const (
	TableAsirasSource  = "asr_src"
	TableAlsSource     = "als_src"
	TableRetracked     = "asr_tfmra"
	TableWaveformShape = "asr_wshape"
	TableScaledEchoes  = "asr_wscaled"
)

// Pipeline drives the loading steps against one store.
type Pipeline struct {
	Store  *store.Store
	Params waveform.Params

	// Buffer overrides for the extractors; zero keeps the defaults.
	BlocksToBuffer int
	LinesToBuffer  int
}

// New returns a pipeline writing into st with the given processing
// parameters.
func New(st *store.Store, params waveform.Params) *Pipeline {
	return &Pipeline{Store: st, Params: params}
}

// LoadAsiras extracts the ASIRAS L1b file at path into the ASIRAS
// source table, recording an ingest run.
func (p *Pipeline) LoadAsiras(path string) error {
	exists, err := p.Store.TableExists(TableAsirasSource)
	if err != nil {
		return err
	}
	if exists {
		logging.Logf("pipeline: table %s already exists, skipping ASIRAS load", TableAsirasSource)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ASIRAS file: %w", err)
	}
	defer f.Close()

	run, err := p.Store.BeginRun(path, TableAsirasSource)
	if err != nil {
		return err
	}

	ext := l1b.NewAsirasExtractor()
	if p.BlocksToBuffer > 0 {
		ext.BlocksToBuffer = p.BlocksToBuffer
	}
	sum, err := ext.Extract(f, p.Store, TableAsirasSource)
	if err != nil {
		return fmt.Errorf("extract ASIRAS: %w", err)
	}
	return p.Store.FinishRun(run, int64(sum.RowsWritten), 0)
}

// LoadAls extracts the ALS scanner file at path into the ALS point
// table, recording an ingest run with the NaN-dropped point count.
func (p *Pipeline) LoadAls(path string) error {
	exists, err := p.Store.TableExists(TableAlsSource)
	if err != nil {
		return err
	}
	if exists {
		logging.Logf("pipeline: table %s already exists, skipping ALS load", TableAlsSource)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ALS file: %w", err)
	}
	defer f.Close()

	run, err := p.Store.BeginRun(path, TableAlsSource)
	if err != nil {
		return err
	}

	ext := l1b.NewAlsExtractor()
	if p.LinesToBuffer > 0 {
		ext.LinesToBuffer = p.LinesToBuffer
	}
	sum, err := ext.Extract(f, p.Store, TableAlsSource)
	if err != nil {
		return fmt.Errorf("extract ALS: %w", err)
	}
	return p.Store.FinishRun(run, int64(sum.PointsWritten), int64(sum.PointsDropped))
}

// Run executes the full sequence: ASIRAS load, ALS load, waveform
// processing.
func (p *Pipeline) Run(asirasPath, alsPath string) error {
	if err := p.LoadAsiras(asirasPath); err != nil {
		return err
	}
	if err := p.LoadAls(alsPath); err != nil {
		return err
	}
	return p.ProcessWaveforms()
}
