package l1b

import "fmt"

// DiskType identifies the on-disk encoding of a single field value.
// All multi-byte types are big-endian on disk.
type DiskType int

const (
	TypePad     DiskType = iota // filler byte, never materialized
	TypeInt16                   // signed 16-bit
	TypeUint16                  // unsigned 16-bit
	TypeInt32                   // signed 32-bit
	TypeUint32                  // unsigned 32-bit
	TypeInt64                   // signed 64-bit
	TypeFloat64                 // IEEE 754 double
)

// Width returns the on-disk byte width of a single value of this type.
func (t DiskType) Width() int {
	switch t {
	case TypePad:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32:
		return 4
	case TypeInt64, TypeFloat64:
		return 8
	default:
		panic(fmt.Sprintf("l1b: unknown disk type %d", t))
	}
}

// SQL write types for declared output columns. The store maps these to
// its own storage classes; array columns carry their fixed length.
const (
	WriteInt    = "BIGINT"
	WriteFloat  = "DOUBLE"
	WriteInt32  = "INTEGER"
	WriteTextID = "INTEGER PRIMARY KEY"
)

// FieldSpec describes one field of a fixed-size binary record: its
// output column name, on-disk type, declared SQL write type, the scale
// factor applied after decode, and a repeat count (Count > 1 marks a
// fixed-length array field). A field named SkipField is filler: the
// cursor advances over it but no value is produced.
type FieldSpec struct {
	Name      string
	Disk      DiskType
	WriteType string
	Scale     float64
	Count     int
}

// SkipField is the sentinel name marking filler fields.
const SkipField = "~"

// Skip reports whether the field is filler.
func (f FieldSpec) Skip() bool { return f.Name == SkipField }

// ByteWidth returns the total on-disk width of the field.
func (f FieldSpec) ByteWidth() int { return f.Disk.Width() * f.Count }

// Group is an ordered list of fields that together define one complete
// record's byte layout for a named section of the format.
type Group struct {
	Name   string
	Fields []FieldSpec
}

// Stride returns the fixed record stride of the group: the sum of all
// fields' on-disk widths, computed without reading any data.
func (g Group) Stride() int {
	total := 0
	for _, f := range g.Fields {
		total += f.ByteWidth()
	}
	return total
}

// Column is one declared output column.
type Column struct {
	Name string
	Type string
	// Count > 1 marks a fixed-length array column of that many elements.
	Count int
}

// Columns flattens the groups into the ordered output column list,
// excluding filler fields. Array fields keep their fixed count so the
// sink can annotate the column type.
func Columns(groups ...Group) []Column {
	var cols []Column
	for _, g := range groups {
		for _, f := range g.Fields {
			if f.Skip() {
				continue
			}
			cols = append(cols, Column{Name: f.Name, Type: f.WriteType, Count: f.Count})
		}
	}
	return cols
}

// ColumnNames returns just the names from a column list.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
