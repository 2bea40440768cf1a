package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/pjdon/cveureka/internal/l1b"
	"github.com/pjdon/cveureka/internal/logging"
	"github.com/pjdon/cveureka/internal/waveform"
)

// waveformInputs are the index-aligned columns read back from the
// ASIRAS source table: one entry per observation row, in id order.
type waveformInputs struct {
	ids         []int64
	linFactor   []float64
	pow2Factor  []float64
	windowDelay []float64
	sensorElvtn []float64
	echoes      [][]float64
}

// ProcessWaveforms computes the three derived waveform tables from the
// ASIRAS source table: retracked elevations, shape descriptors and
// scaled echoes. Skipped entirely when all three already exist.
func (p *Pipeline) ProcessWaveforms() error {
	outputs := []string{TableRetracked, TableWaveformShape, TableScaledEchoes}
	allExist := true
	for _, t := range outputs {
		exists, err := p.Store.TableExists(t)
		if err != nil {
			return err
		}
		allExist = allExist && exists
	}
	if allExist {
		logging.Logf("pipeline: all waveform output tables exist, skipping processing")
		return nil
	}

	in, err := p.readWaveformInputs()
	if err != nil {
		return err
	}
	if len(in.ids) == 0 {
		return fmt.Errorf("waveform processing: no rows in %s", TableAsirasSource)
	}
	numBins := len(in.echoes[0])

	logging.Logf("pipeline: processing %d waveforms of %d bins", len(in.ids), numBins)

	scaled := waveform.ScaleEchoes(in.echoes, in.linFactor, in.pow2Factor)
	firstBin := waveform.FirstBinElevation(p.Params, in.windowDelay, in.sensorElvtn, numBins)

	if err := p.writeRetracked(in.ids, scaled, firstBin); err != nil {
		return err
	}
	if err := p.writeShapes(in.ids, scaled); err != nil {
		return err
	}
	return p.writeScaled(in.ids, scaled)
}

func (p *Pipeline) readWaveformInputs() (*waveformInputs, error) {
	rows, err := p.Store.Query(fmt.Sprintf(
		`SELECT id, linear_scale_factor, power2_scale_factor, window_delay, altitude, ml_power_echo
		 FROM %s ORDER BY id`, TableAsirasSource))
	if err != nil {
		return nil, fmt.Errorf("read waveform inputs: %w", err)
	}
	defer rows.Close()

	var in waveformInputs
	for rows.Next() {
		var (
			id        int64
			lin, pow2 float64
			delay     float64
			elvtn     float64
			echoJSON  string
		)
		if err := rows.Scan(&id, &lin, &pow2, &delay, &elvtn, &echoJSON); err != nil {
			return nil, fmt.Errorf("scan waveform input row: %w", err)
		}
		var echo []float64
		if err := json.Unmarshal([]byte(echoJSON), &echo); err != nil {
			return nil, fmt.Errorf("decode echo array for id %d: %w", id, err)
		}
		in.ids = append(in.ids, id)
		in.linFactor = append(in.linFactor, lin)
		in.pow2Factor = append(in.pow2Factor, pow2)
		in.windowDelay = append(in.windowDelay, delay)
		in.sensorElvtn = append(in.sensorElvtn, elvtn)
		in.echoes = append(in.echoes, echo)
	}
	return &in, rows.Err()
}

// asValue maps an undefined result to a SQL NULL.
func asValue(v waveform.Value) any {
	if !v.OK {
		return nil
	}
	return v.V
}

func (p *Pipeline) writeRetracked(ids []int64, scaled [][]float64, firstBin []float64) error {
	exists, err := p.Store.TableExists(TableRetracked)
	if err != nil {
		return err
	}
	if exists {
		logging.Logf("pipeline: table %s already exists, skipping", TableRetracked)
		return nil
	}

	cols := []l1b.Column{
		{Name: "id_asr", Type: l1b.WriteInt, Count: 1},
		{Name: "tfmra_threshold", Type: l1b.WriteFloat, Count: 1},
		{Name: "tfmra_elvtn", Type: l1b.WriteFloat, Count: 1},
	}
	if err := p.Store.DeclareTable(TableRetracked, cols); err != nil {
		return err
	}

	results := waveform.Retrack(p.Params, scaled, firstBin)

	missing := 0
	records := make([]l1b.DecodedRecord, 0, len(ids)*len(p.Params.RetrackerThresholds))
	for i, rowResults := range results {
		for _, r := range rowResults {
			if !r.Elevation.OK {
				missing++
			}
			records = append(records, l1b.DecodedRecord{ids[i], r.Threshold, asValue(r.Elevation)})
		}
	}
	if err := p.Store.BulkInsert(TableRetracked, records, l1b.ColumnNames(cols)); err != nil {
		return err
	}

	logging.Logf("pipeline: wrote %d retracked elevations to %s (%d without a threshold crossing)",
		len(records), TableRetracked, missing)
	return nil
}

func (p *Pipeline) writeShapes(ids []int64, scaled [][]float64) error {
	exists, err := p.Store.TableExists(TableWaveformShape)
	if err != nil {
		return err
	}
	if exists {
		logging.Logf("pipeline: table %s already exists, skipping", TableWaveformShape)
		return nil
	}

	cols := []l1b.Column{
		{Name: "id_asr", Type: l1b.WriteInt, Count: 1},
		{Name: "rwidth", Type: l1b.WriteFloat, Count: 1},
		{Name: "rwidth_left", Type: l1b.WriteFloat, Count: 1},
		{Name: "rwidth_right", Type: l1b.WriteFloat, Count: 1},
		{Name: "ppeak", Type: l1b.WriteFloat, Count: 1},
		{Name: "ppeak_left", Type: l1b.WriteFloat, Count: 1},
		{Name: "ppeak_right", Type: l1b.WriteFloat, Count: 1},
	}
	if err := p.Store.DeclareTable(TableWaveformShape, cols); err != nil {
		return err
	}

	shapes := waveform.Shapes(p.Params, scaled)

	undefined := 0
	records := make([]l1b.DecodedRecord, len(shapes))
	for i, s := range shapes {
		for _, v := range []waveform.Value{s.RWidth, s.PPeak, s.PPeakLeft, s.PPeakRight} {
			if !v.OK {
				undefined++
			}
		}
		records[i] = l1b.DecodedRecord{
			ids[i],
			asValue(s.RWidth), asValue(s.RWidthLeft), asValue(s.RWidthRight),
			asValue(s.PPeak), asValue(s.PPeakLeft), asValue(s.PPeakRight),
		}
	}
	if err := p.Store.BulkInsert(TableWaveformShape, records, l1b.ColumnNames(cols)); err != nil {
		return err
	}

	logging.Logf("pipeline: wrote %d waveform shapes to %s (%d undefined descriptor values)",
		len(records), TableWaveformShape, undefined)
	return nil
}

func (p *Pipeline) writeScaled(ids []int64, scaled [][]float64) error {
	exists, err := p.Store.TableExists(TableScaledEchoes)
	if err != nil {
		return err
	}
	if exists {
		logging.Logf("pipeline: table %s already exists, skipping", TableScaledEchoes)
		return nil
	}

	cols := []l1b.Column{
		{Name: "id_asr", Type: l1b.WriteInt, Count: 1},
		{Name: "waveform_scaled", Type: l1b.WriteFloat, Count: len(scaled[0])},
	}
	if err := p.Store.DeclareTable(TableScaledEchoes, cols); err != nil {
		return err
	}

	records := make([]l1b.DecodedRecord, len(ids))
	for i := range ids {
		records[i] = l1b.DecodedRecord{ids[i], scaled[i]}
	}
	if err := p.Store.BulkInsert(TableScaledEchoes, records, l1b.ColumnNames(cols)); err != nil {
		return err
	}

	logging.Logf("pipeline: wrote %d scaled waveforms to %s", len(records), TableScaledEchoes)
	return nil
}
