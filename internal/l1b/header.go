package l1b

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// headerPattern matches one key="value" line of an L1b product header.
// Values may carry a trailing <unit> annotation which is discarded.
var headerPattern = regexp.MustCompile(`(?i)([a-z_]+)="?([^\n<>"]+)(?:<[^\n<>]+>)?"?` + "\n")

// HeaderMap holds the parsed key/value pairs of one product header
// block. Key lookup is case-insensitive.
type HeaderMap map[string]string

// ParseHeader decodes a fixed-size textual header block into a
// HeaderMap. The block must be ASCII; any byte outside the 7-bit range
// fails with ErrMalformedHeader.
func ParseHeader(block []byte) (HeaderMap, error) {
	for i, b := range block {
		if b > 0x7f {
			return nil, fmt.Errorf("%w: non-ASCII byte 0x%02x at offset %d", ErrMalformedHeader, b, i)
		}
	}

	h := make(HeaderMap)
	for _, m := range headerPattern.FindAllStringSubmatch(string(block), -1) {
		h[strings.ToUpper(m[1])] = strings.TrimSpace(m[2])
	}
	return h, nil
}

// Get returns the value for key, matching case-insensitively.
func (h HeaderMap) Get(key string) (string, bool) {
	v, ok := h[strings.ToUpper(key)]
	return v, ok
}

// Int returns the value for key parsed as an integer. A missing or
// non-numeric value fails with ErrMissingKey: every key an extractor
// queries must exist, or decoding the file cannot proceed.
func (h HeaderMap) Int(key string) (int, error) {
	v, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not numeric (%q)", ErrMissingKey, key, v)
	}
	return n, nil
}

// DatasetDescriptor is one entry of the dataset-table section: a named
// data segment with its record count and byte offset into the file.
type DatasetDescriptor struct {
	Name    string
	Records int
	Offset  int64
}

// SelectDataset returns the first descriptor in table order whose name
// starts with prefix. Order is file order, not lexicographic. With no
// match it fails with ErrDatasetNotFound, which is fatal for the whole
// extraction.
func SelectDataset(descriptors []DatasetDescriptor, prefix string) (DatasetDescriptor, error) {
	for _, d := range descriptors {
		if strings.HasPrefix(d.Name, prefix) {
			return d, nil
		}
	}
	return DatasetDescriptor{}, fmt.Errorf("%w: no dataset name with prefix %q", ErrDatasetNotFound, prefix)
}
