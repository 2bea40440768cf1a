package l1b

// captureSink records every declaration and insert batch it receives,
// for asserting extractor output without a database.
type captureSink struct {
	declaredTable string
	declaredCols  []Column
	targetCols    []string
	batches       [][]DecodedRecord
}

func (s *captureSink) DeclareTable(table string, cols []Column) error {
	s.declaredTable = table
	s.declaredCols = cols
	return nil
}

func (s *captureSink) BulkInsert(table string, records []DecodedRecord, targetCols []string) error {
	s.targetCols = targetCols
	batch := make([]DecodedRecord, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureSink) allRecords() []DecodedRecord {
	var all []DecodedRecord
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}
