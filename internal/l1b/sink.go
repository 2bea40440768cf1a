package l1b

// Sink receives extracted records. Both calls are synchronous and
// atomic per call; a bulk insert either lands whole or fails. The sink
// connection is exclusively owned by one extractor for the duration of
// one file's decode.
type Sink interface {
	// DeclareTable creates the output table with the given ordered
	// column list. Called once, before the first batch is written.
	DeclareTable(table string, cols []Column) error

	// BulkInsert appends rows to the table. Each row's values align
	// positionally with targetCols.
	BulkInsert(table string, rows []DecodedRecord, targetCols []string) error
}
