package l1b

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pjdon/cveureka/internal/logging"
)

// ALS scanner format layout.
//
// Full binary format specification in PDF document:
//	REF: CS-LI-ESA-GS-0371
//	Issue: 2.6.1
//	Name: cryovex airborne data descriptions
//	Section: 3.2.12
//
// Fixed header: header byte length, number of scan lines, points per
// line, each a big-endian i32. A per-line timestamp table (4 bytes per
// line) follows the header and is skipped. Each line block is five
// parallel float64 arrays of points-per-line values: seconds,
// microseconds, latitude, longitude, elevation. The two time arrays
// are skipped by byte-seek.
const (
	alsHeaderFieldBytes = 4 // each of the three header values
	alsTimestampBytes   = 4 // per-line timestamp table entry
	alsPointBytes       = 8 // one float64 value
	alsTimeArrays       = 2 // seconds + microseconds, skipped
)

// AlsExtractor streams an ALS laser scanner file into a sink table.
// Points carrying a NaN in any of elevation, longitude or latitude are
// dropped (never inserted) and counted, so data loss is observable.
type AlsExtractor struct {
	// LinesToBuffer is the number of scan lines accumulated before a
	// batch is flushed to the sink.
	LinesToBuffer int
}

// AlsSummary reports the cumulative counters of one extraction.
type AlsSummary struct {
	LinesWritten   int
	PointsWritten  int
	PointsDropped  int
	ExpectedPoints int
}

// NewAlsExtractor returns an extractor with default buffering.
func NewAlsExtractor() *AlsExtractor {
	return &AlsExtractor{LinesToBuffer: 5000}
}

// Columns returns the output column list for the ALS point table:
// elevation, longitude, latitude, in insertion order.
func (e *AlsExtractor) Columns() []Column {
	return []Column{
		{Name: "snow_elvtn", Type: WriteFloat, Count: 1},
		{Name: "longitude", Type: WriteFloat, Count: 1},
		{Name: "latitude", Type: WriteFloat, Count: 1},
	}
}

// Extract decodes the whole file from r and streams its points to sink
// table.
func (e *AlsExtractor) Extract(r io.ReadSeeker, sink Sink, table string) (AlsSummary, error) {
	var sum AlsSummary

	cols := e.Columns()
	if err := sink.DeclareTable(table, cols); err != nil {
		return sum, fmt.Errorf("declare table %s: %w", table, err)
	}
	targetCols := ColumnNames(cols)

	var header [3 * alsHeaderFieldBytes]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return sum, fmt.Errorf("%w: file header: %v", ErrTruncatedRecord, err)
	}
	headerBytes := int(int32(binary.BigEndian.Uint32(header[0:4])))
	numLines := int(int32(binary.BigEndian.Uint32(header[4:8])))
	pointsPerLine := int(int32(binary.BigEndian.Uint32(header[8:12])))
	if headerBytes < len(header) || numLines < 0 || pointsPerLine <= 0 {
		return sum, fmt.Errorf("%w: implausible header (%d bytes, %d lines, %d points/line)",
			ErrMalformedHeader, headerBytes, numLines, pointsPerLine)
	}
	sum.ExpectedPoints = numLines * pointsPerLine

	// Jump past the remaining header and the timestamp table to the
	// start of the line data.
	dataStart := int64(headerBytes + alsTimestampBytes*numLines)
	if _, err := r.Seek(dataStart, io.SeekStart); err != nil {
		return sum, fmt.Errorf("seek to line data at %d: %w", dataStart, err)
	}

	logging.Logf("als: streaming %d lines of %d points to table %s", numLines, pointsPerLine, table)

	arrayBytes := pointsPerLine * alsPointBytes
	raw := make([]byte, arrayBytes)
	lat := make([]float64, pointsPerLine)
	lon := make([]float64, pointsPerLine)
	elv := make([]float64, pointsPerLine)

	buffer := make([]DecodedRecord, 0, e.LinesToBuffer*pointsPerLine)
	linesBuffered := 0
	linesWritten := 0
	pointsBuffered := 0
	pointsWritten := 0
	pointsDropped := 0

	readArray := func(dst []float64) error {
		if _, err := io.ReadFull(r, raw); err != nil {
			return fmt.Errorf("%w: field array: %v", ErrTruncatedRecord, err)
		}
		for i := range dst {
			dst[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*alsPointBytes:]))
		}
		return nil
	}

	for lineNum := 0; lineNum < numLines; lineNum++ {
		// Skip the two time arrays in one seek.
		if _, err := r.Seek(int64(alsTimeArrays*arrayBytes), io.SeekCurrent); err != nil {
			return sum, fmt.Errorf("line %d: skip time arrays: %w", lineNum, err)
		}
		if err := readArray(lat); err != nil {
			return sum, fmt.Errorf("line %d latitude: %w", lineNum, err)
		}
		if err := readArray(lon); err != nil {
			return sum, fmt.Errorf("line %d longitude: %w", lineNum, err)
		}
		if err := readArray(elv); err != nil {
			return sum, fmt.Errorf("line %d elevation: %w", lineNum, err)
		}

		for i := 0; i < pointsPerLine; i++ {
			if math.IsNaN(elv[i]) || math.IsNaN(lon[i]) || math.IsNaN(lat[i]) {
				pointsDropped++
				continue
			}
			buffer = append(buffer, DecodedRecord{elv[i], lon[i], lat[i]})
			pointsBuffered++
		}
		linesBuffered++

		if linesBuffered >= e.LinesToBuffer || lineNum >= numLines-1 {
			if err := sink.BulkInsert(table, buffer, targetCols); err != nil {
				return sum, fmt.Errorf("insert into %s: %w", table, err)
			}
			buffer = buffer[:0]
			linesWritten += linesBuffered
			linesBuffered = 0
			pointsWritten += pointsBuffered
			pointsBuffered = 0

			logging.Logf("als: %d/%d lines written", linesWritten, numLines)
		}
	}

	sum.LinesWritten = linesWritten
	sum.PointsWritten = pointsWritten
	sum.PointsDropped = pointsDropped

	logging.Logf("als: finished streaming: %d/%d lines, %d/%d points, %d dropped for NaN fields",
		linesWritten, numLines, pointsWritten, sum.ExpectedPoints, pointsDropped)
	return sum, nil
}
