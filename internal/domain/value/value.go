// Package value implements the tagged union of field values stored in
// documents, with the total order, equality and canonical encoding that
// query matching and document comparison are built on.
package value

import (
	"math"
	"time"

	"github.com/laminadb/lamina/internal/domain/path"
)

// Kind identifies the concrete variant held by a Value. The zero Kind is
// invalid and marks the zero Value.
type Kind uint8

const (
	KindNull Kind = iota + 1
	KindBoolean
	KindInteger
	KindDouble
	KindTimestamp
	KindString
	KindBytes
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

// canonicalNaNBits is the single NaN representative every NaN double is
// normalized to.
const canonicalNaNBits = 0x7ff8000000000000

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// MapEntry is one field of a map value. Insertion order is preserved for
// iteration and irrelevant for equality and ordering.
type MapEntry struct {
	Key   string
	Value Value
}

// Value is one field value: exactly one of the eleven variants. Values are
// immutable by convention; use Clone before handing one to code that
// mutates through ObjectValue.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	t       time.Time
	s       string // string and reference variants
	blob    []byte
	geo     GeoPoint
	arr     []Value
	entries []MapEntry
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Double returns a double value. NaNs are normalized to the canonical NaN
// bit pattern.
func Double(f float64) Value {
	if math.IsNaN(f) {
		f = math.Float64frombits(canonicalNaNBits)
	}
	return Value{kind: KindDouble, f: f}
}

// NaN returns the canonical NaN double.
func NaN() Value { return Double(math.NaN()) }

// Timestamp returns a timestamp value truncated to microsecond precision.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, t: t.UTC().Truncate(time.Microsecond)}
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a bytes value holding a copy of b.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, blob: append([]byte(nil), b...)}
}

// Reference returns a reference value from a full document resource name.
func Reference(name string) Value { return Value{kind: KindReference, s: name} }

// ReferenceTo returns a reference value addressing key within db.
func ReferenceTo(db path.DatabaseID, key path.DocumentKey) Value {
	return Reference(db.ResourceName(key))
}

// Geo returns a geo-point value.
func Geo(latitude, longitude float64) Value {
	return Value{kind: KindGeoPoint, geo: GeoPoint{Latitude: latitude, Longitude: longitude}}
}

// Array returns an array value of the given elements.
func Array(elements ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), elements...)}
}

// Map returns a map value of the given entries. Keys must be unique.
func Map(entries ...MapEntry) Value {
	return Value{kind: KindMap, entries: append([]MapEntry(nil), entries...)}
}

// EmptyMap returns a map value with no fields.
func EmptyMap() Value { return Value{kind: KindMap, entries: []MapEntry{}} }

// Kind returns the variant tag. Zero for the zero Value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the zero (absent) Value.
func (v Value) IsZero() bool { return v.kind == 0 }

// BooleanValue returns the boolean payload.
func (v Value) BooleanValue() bool { return v.b }

// IntegerValue returns the integer payload.
func (v Value) IntegerValue() int64 { return v.i }

// DoubleValue returns the double payload.
func (v Value) DoubleValue() float64 { return v.f }

// NumberValue returns the numeric payload of an integer or double as a
// float64.
func (v Value) NumberValue() float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// TimestampValue returns the timestamp payload.
func (v Value) TimestampValue() time.Time { return v.t }

// StringValue returns the string payload.
func (v Value) StringValue() string { return v.s }

// BytesValue returns the bytes payload. Callers must not mutate it.
func (v Value) BytesValue() []byte { return v.blob }

// ReferenceValue returns the full resource name of a reference.
func (v Value) ReferenceValue() string { return v.s }

// ReferenceKey parses the document key out of a reference value.
func (v Value) ReferenceKey() (path.DocumentKey, error) {
	return path.KeyFromResourceName(v.s)
}

// GeoPointValue returns the geo-point payload.
func (v Value) GeoPointValue() GeoPoint { return v.geo }

// ArrayValues returns the array elements. Callers must not mutate them.
func (v Value) ArrayValues() []Value { return v.arr }

// ArrayLen returns the number of array elements.
func (v Value) ArrayLen() int { return len(v.arr) }

// MapEntries returns the map fields in iteration order. Callers must not
// mutate them.
func (v Value) MapEntries() []MapEntry { return v.entries }

// MapLen returns the number of map fields.
func (v Value) MapLen() int { return len(v.entries) }

// MapGet returns the value of the named field.
func (v Value) MapGet(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v is an integer or a double.
func (v Value) IsNumber() bool { return v.kind == KindInteger || v.kind == KindDouble }

// IsInteger reports whether v is an integer.
func (v Value) IsInteger() bool { return v.kind == KindInteger }

// IsDouble reports whether v is a double.
func (v Value) IsDouble() bool { return v.kind == KindDouble }

// IsNaN reports whether v is the NaN double.
func (v Value) IsNaN() bool { return v.kind == KindDouble && math.IsNaN(v.f) }

// IsArray reports whether v is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsMap reports whether v is a map.
func (v Value) IsMap() bool { return v.kind == KindMap }

// Clone returns a deep copy sharing no mutable state with v.
func (v Value) Clone() Value {
	out := v
	switch v.kind {
	case KindBytes:
		out.blob = append([]byte(nil), v.blob...)
	case KindArray:
		out.arr = make([]Value, len(v.arr))
		for i, e := range v.arr {
			out.arr[i] = e.Clone()
		}
	case KindMap:
		out.entries = make([]MapEntry, len(v.entries))
		for i, e := range v.entries {
			out.entries[i] = MapEntry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return out
}

// String returns the canonical id, which doubles as the debug form.
func (v Value) String() string { return CanonicalID(v) }
