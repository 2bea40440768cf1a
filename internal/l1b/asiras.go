package l1b

import (
	"fmt"
	"io"

	"github.com/pjdon/cveureka/internal/logging"
)

// AsirasExtractor streams an ASIRAS L1b measurement file into a sink
// table in bounded memory. Decode is single-threaded and file-
// sequential: record boundaries exist only as byte offsets derived
// from the headers and prior record widths.
type AsirasExtractor struct {
	timeOrbit   Group
	measurement Group
	multilooked Group

	// BlocksToBuffer is the number of data blocks accumulated before a
	// batch is flushed to the sink.
	BlocksToBuffer int
}

// AsirasSummary reports the cumulative counters of one extraction.
type AsirasSummary struct {
	BlocksWritten int
	RowsWritten   int
	ExpectedRows  int
}

// NewAsirasExtractor returns an extractor with the standard ASIRAS
// group layout and default buffering.
func NewAsirasExtractor() *AsirasExtractor {
	return &AsirasExtractor{
		timeOrbit:      TimeOrbitGroup(),
		measurement:    MeasurementGroup(),
		multilooked:    MultilookedGroup(),
		BlocksToBuffer: 100,
	}
}

// Columns returns the flattened output column list for the ASIRAS
// table, in group order, filler fields excluded.
func (e *AsirasExtractor) Columns() []Column {
	return Columns(e.timeOrbit, e.measurement, e.multilooked)
}

// Extract decodes the whole file from r and streams its records to
// sink table. The reader must be positioned at the start of the file
// and must support seeking (payload location comes from the dataset
// table). Structural errors are fatal and abort the extraction.
func (e *AsirasExtractor) Extract(r io.ReadSeeker, sink Sink, table string) (AsirasSummary, error) {
	var sum AsirasSummary

	// Declare the output table before any header work so a structural
	// failure never leaves rows behind in an undeclared table.
	cols := e.Columns()
	if err := sink.DeclareTable(table, cols); err != nil {
		return sum, fmt.Errorf("declare table %s: %w", table, err)
	}
	targetCols := ColumnNames(cols)

	dec := NewDecoder(r)

	// Main product header.
	mphBlock, err := dec.fill(asirasMPHBytes)
	if err != nil {
		return sum, fmt.Errorf("read main product header: %w", err)
	}
	mph, err := ParseHeader(mphBlock)
	if err != nil {
		return sum, fmt.Errorf("main product header: %w", err)
	}

	// Specific product header: only its byte length matters.
	if err := dec.Skip(asirasSPHBytes); err != nil {
		return sum, fmt.Errorf("skip specific product header: %w", err)
	}

	// Dataset descriptor table, entry count from the main header.
	dsdCount, err := mph.Int(asirasDSDCountKey)
	if err != nil {
		return sum, err
	}
	descriptors := make([]DatasetDescriptor, 0, dsdCount)
	for i := 0; i < dsdCount; i++ {
		block, err := dec.fill(asirasDSDBytes)
		if err != nil {
			return sum, fmt.Errorf("read dataset descriptor %d: %w", i, err)
		}
		dsh, err := ParseHeader(block)
		if err != nil {
			return sum, fmt.Errorf("dataset descriptor %d: %w", i, err)
		}
		name, ok := dsh.Get(asirasNameKey)
		if !ok {
			return sum, fmt.Errorf("%w: %s in dataset descriptor %d", ErrMissingKey, asirasNameKey, i)
		}
		blocks, err := dsh.Int(asirasBlocksKey)
		if err != nil {
			return sum, err
		}
		offset, err := dsh.Int(asirasOffsetKey)
		if err != nil {
			return sum, err
		}
		descriptors = append(descriptors, DatasetDescriptor{
			Name:    name,
			Records: blocks,
			Offset:  int64(offset),
		})
	}

	dataset, err := SelectDataset(descriptors, asirasNamePrefix)
	if err != nil {
		return sum, err
	}
	numBlocks := dataset.Records
	sum.ExpectedRows = numBlocks * asirasRowsPerBlock

	if _, err := r.Seek(dataset.Offset, io.SeekStart); err != nil {
		return sum, fmt.Errorf("seek to dataset %s at %d: %w", dataset.Name, dataset.Offset, err)
	}

	logging.Logf("asiras: streaming %d blocks of dataset %s to table %s", numBlocks, dataset.Name, table)

	skipBytes := asirasCorrectionsBytes + asirasAvgWaveformBytes

	buffer := make([]DecodedRecord, 0, e.BlocksToBuffer*asirasRowsPerBlock)
	blocksBuffered := 0
	blocksWritten := 0
	rowsWritten := 0

	for blockNum := 1; blockNum <= numBlocks; blockNum++ {
		tog, err := e.decodeGroupRows(dec, e.timeOrbit)
		if err != nil {
			return sum, fmt.Errorf("block %d time/orbit: %w", blockNum, err)
		}
		mg, err := e.decodeGroupRows(dec, e.measurement)
		if err != nil {
			return sum, fmt.Errorf("block %d measurement: %w", blockNum, err)
		}

		// Corrections and average-waveform groups are not needed.
		if err := dec.Skip(skipBytes); err != nil {
			return sum, fmt.Errorf("block %d skip groups: %w", blockNum, err)
		}

		mwg, err := e.decodeGroupRows(dec, e.multilooked)
		if err != nil {
			return sum, fmt.Errorf("block %d multilooked: %w", blockNum, err)
		}

		// Interleave the three groups' rows positionally into flat
		// records, in source order.
		for i := 0; i < asirasRowsPerBlock; i++ {
			row := make(DecodedRecord, 0, len(tog[i])+len(mg[i])+len(mwg[i]))
			row = append(row, tog[i]...)
			row = append(row, mg[i]...)
			row = append(row, mwg[i]...)
			buffer = append(buffer, row)
		}
		blocksBuffered++

		if blocksBuffered >= e.BlocksToBuffer || blockNum >= numBlocks {
			if err := sink.BulkInsert(table, buffer, targetCols); err != nil {
				return sum, fmt.Errorf("insert into %s: %w", table, err)
			}
			blocksWritten += blocksBuffered
			rowsWritten += blocksBuffered * asirasRowsPerBlock
			blocksBuffered = 0
			buffer = buffer[:0]

			logging.Logf("asiras: %d/%d blocks written", blocksWritten, numBlocks)
		}
	}

	sum.BlocksWritten = blocksWritten
	sum.RowsWritten = rowsWritten

	logging.Logf("asiras: finished streaming: %d/%d blocks, %d/%d rows",
		blocksWritten, numBlocks, rowsWritten, sum.ExpectedRows)
	return sum, nil
}

// decodeGroupRows decodes the rowsPerBlock consecutive records of one
// group within a block.
func (e *AsirasExtractor) decodeGroupRows(dec *Decoder, g Group) ([]DecodedRecord, error) {
	rows := make([]DecodedRecord, asirasRowsPerBlock)
	for i := range rows {
		rec, err := dec.DecodeRecord(g.Fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = rec
	}
	return rows, nil
}
