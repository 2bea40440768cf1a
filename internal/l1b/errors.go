package l1b

import "errors"

// Structural decode errors. All of these abort the extraction of the
// current file: the output table is declared before the first row is
// written, so no partial batch is ever flushed after one of these.
var (
	// ErrMalformedHeader indicates a header block that could not be
	// decoded as ASCII text.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrMissingKey indicates a required header key that is absent, or
	// non-numeric where a number is required.
	ErrMissingKey = errors.New("missing header key")

	// ErrDatasetNotFound indicates that no dataset descriptor matched
	// the required name prefix.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrTruncatedRecord indicates that fewer bytes remained in the
	// file than a field's declared width.
	ErrTruncatedRecord = errors.New("truncated record")
)
