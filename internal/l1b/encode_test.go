package l1b

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// Test-side encoders for building synthetic files in the declared
// binary layouts.

// encodeRawField appends the big-endian encoding of raw integer values
// for one field; filler fields append zero bytes of the declared
// width. raw must hold f.Count values for non-filler fields.
func encodeRawField(t *testing.T, buf *bytes.Buffer, f FieldSpec, raw []int64) {
	t.Helper()
	if f.Skip() {
		buf.Write(make([]byte, f.ByteWidth()))
		return
	}
	if len(raw) != f.Count {
		t.Fatalf("field %s: got %d raw values, want %d", f.Name, len(raw), f.Count)
	}
	for _, v := range raw {
		switch f.Disk {
		case TypeInt16:
			binary.Write(buf, binary.BigEndian, int16(v))
		case TypeUint16:
			binary.Write(buf, binary.BigEndian, uint16(v))
		case TypeInt32:
			binary.Write(buf, binary.BigEndian, int32(v))
		case TypeUint32:
			binary.Write(buf, binary.BigEndian, uint32(v))
		case TypeInt64:
			binary.Write(buf, binary.BigEndian, v)
		case TypeFloat64:
			binary.Write(buf, binary.BigEndian, math.Float64bits(float64(v)))
		default:
			t.Fatalf("field %s: cannot encode disk type %d", f.Name, f.Disk)
		}
	}
}

// rawForField returns a deterministic raw value for a field position,
// kept small enough to fit every integer width in the layouts.
func rawForField(fieldIdx, elemIdx int) int64 {
	return int64(fieldIdx*7+elemIdx+1) % 1000
}

// encodeGroupRecord appends one record of the group with deterministic
// raw values and returns the record that decoding it must produce.
func encodeGroupRecord(t *testing.T, buf *bytes.Buffer, g Group) DecodedRecord {
	t.Helper()
	var want DecodedRecord
	for fi, f := range g.Fields {
		if f.Skip() {
			encodeRawField(t, buf, f, nil)
			continue
		}
		raw := make([]int64, f.Count)
		for ei := range raw {
			raw[ei] = rawForField(fi, ei)
		}
		encodeRawField(t, buf, f, raw)
		want = append(want, expectedValue(f, raw))
	}
	return want
}

// expectedValue mirrors the decoder's scaling contract for raw values.
func expectedValue(f FieldSpec, raw []int64) any {
	if f.Count > 1 {
		if f.Scale != 1 || f.Disk == TypeFloat64 {
			out := make([]float64, len(raw))
			for i, v := range raw {
				out[i] = float64(v) * f.Scale
			}
			return out
		}
		out := make([]int64, len(raw))
		copy(out, raw)
		return out
	}
	if f.Disk == TypeFloat64 {
		v := float64(raw[0])
		if f.Scale != 1 {
			v *= f.Scale
		}
		return v
	}
	if f.Scale != 1 {
		return float64(raw[0]) * f.Scale
	}
	return raw[0]
}
