package l1b

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DecodedRecord is the ordered tuple of values produced from one
// record: one scalar or fixed-length array per non-filler field, in
// group order. Records are transient; they live only until the batch
// holding them is flushed.
type DecodedRecord []any

// Decoder reads fixed-size records from a byte stream according to
// FieldSpec groups. It owns a scratch buffer sized to the widest field
// seen so far, so steady-state decoding does not allocate per field.
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder wraps r for record decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 64)}
}

func (d *Decoder) fill(n int) ([]byte, error) {
	if n > len(d.buf) {
		d.buf = make([]byte, n)
	}
	b := d.buf[:n]
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, fmt.Errorf("%w: need %d bytes: %v", ErrTruncatedRecord, n, err)
	}
	return b, nil
}

// Skip advances the cursor by n bytes without producing output.
func (d *Decoder) Skip(n int) error {
	if s, ok := d.r.(io.Seeker); ok {
		if _, err := s.Seek(int64(n), io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: seek %d bytes: %v", ErrTruncatedRecord, n, err)
		}
		return nil
	}
	if _, err := io.CopyN(io.Discard, d.r, int64(n)); err != nil {
		return fmt.Errorf("%w: skip %d bytes: %v", ErrTruncatedRecord, n, err)
	}
	return nil
}

// DecodeRecord decodes one record laid out by fields. For each field in
// order it reads exactly the field's declared byte width; filler fields
// only advance the cursor. Cursor advancement equals the declared
// width regardless of whether output is produced, so positioning stays
// deterministic even for malformed-but-well-sized input.
func (d *Decoder) DecodeRecord(fields []FieldSpec) (DecodedRecord, error) {
	record := make(DecodedRecord, 0, len(fields))
	for _, f := range fields {
		if f.Skip() {
			if err := d.Skip(f.ByteWidth()); err != nil {
				return nil, err
			}
			continue
		}

		b, err := d.fill(f.ByteWidth())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		v, err := decodeField(b, f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		record = append(record, v)
	}
	return record, nil
}

// decodeField interprets the raw bytes of one field. Scale is applied
// strictly after the raw decode, in floating point; scale == 1 is a
// fast path that keeps integer-typed fields as integers.
func decodeField(b []byte, f FieldSpec) (any, error) {
	if f.Disk == TypeFloat64 {
		if f.Count > 1 {
			vals := make([]float64, f.Count)
			for i := range vals {
				vals[i] = decodeFloat(b[i*8 : (i+1)*8])
				if f.Scale != 1 {
					vals[i] *= f.Scale
				}
			}
			return vals, nil
		}
		v := decodeFloat(b)
		if f.Scale != 1 {
			v *= f.Scale
		}
		return v, nil
	}

	if f.Count > 1 {
		w := f.Disk.Width()
		if f.Scale != 1 {
			vals := make([]float64, f.Count)
			for i := range vals {
				vals[i] = float64(decodeInt(b[i*w:(i+1)*w], f.Disk)) * f.Scale
			}
			return vals, nil
		}
		vals := make([]int64, f.Count)
		for i := range vals {
			vals[i] = decodeInt(b[i*w:(i+1)*w], f.Disk)
		}
		return vals, nil
	}

	raw := decodeInt(b, f.Disk)
	if f.Scale != 1 {
		return float64(raw) * f.Scale, nil
	}
	return raw, nil
}

func decodeInt(b []byte, t DiskType) int64 {
	switch t {
	case TypeInt16:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case TypeUint16:
		return int64(binary.BigEndian.Uint16(b))
	case TypeInt32:
		return int64(int32(binary.BigEndian.Uint32(b)))
	case TypeUint32:
		return int64(binary.BigEndian.Uint32(b))
	case TypeInt64:
		return int64(binary.BigEndian.Uint64(b))
	default:
		panic(fmt.Sprintf("l1b: not an integer disk type: %d", t))
	}
}

func decodeFloat(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
