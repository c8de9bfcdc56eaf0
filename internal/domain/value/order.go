package value

import (
	"bytes"
	"math"
	"sort"
	"strings"
)

// TypeOrder is the ordering category of a value. Cross-category comparisons
// are decided solely by this order.
type TypeOrder int

const (
	TypeOrderNull TypeOrder = iota
	TypeOrderBoolean
	TypeOrderNumber
	TypeOrderTimestamp
	TypeOrderServerTimestamp
	TypeOrderString
	TypeOrderBytes
	TypeOrderReference
	TypeOrderGeoPoint
	TypeOrderArray
	TypeOrderMap
)

// GetTypeOrder maps a value to its ordering category. Integers and doubles
// share the number category; server-timestamp sentinels order between
// timestamps and strings.
func GetTypeOrder(v Value) TypeOrder {
	switch v.kind {
	case KindNull:
		return TypeOrderNull
	case KindBoolean:
		return TypeOrderBoolean
	case KindInteger, KindDouble:
		return TypeOrderNumber
	case KindTimestamp:
		return TypeOrderTimestamp
	case KindString:
		return TypeOrderString
	case KindBytes:
		return TypeOrderBytes
	case KindReference:
		return TypeOrderReference
	case KindGeoPoint:
		return TypeOrderGeoPoint
	case KindArray:
		return TypeOrderArray
	case KindMap:
		if IsServerTimestamp(v) {
			return TypeOrderServerTimestamp
		}
		return TypeOrderMap
	default:
		panic("value: type order of zero value")
	}
}

// Compare returns -1, 0 or +1 ordering a before b. The order is total over
// well-formed values: category first, then the per-category rules.
func Compare(a, b Value) int {
	leftOrder, rightOrder := GetTypeOrder(a), GetTypeOrder(b)
	if leftOrder != rightOrder {
		return compareInts(int(leftOrder), int(rightOrder))
	}

	switch leftOrder {
	case TypeOrderNull:
		return 0
	case TypeOrderBoolean:
		return compareBools(a.b, b.b)
	case TypeOrderNumber:
		return compareNumbers(a, b)
	case TypeOrderTimestamp:
		return a.t.Compare(b.t)
	case TypeOrderServerTimestamp:
		return LocalWriteTime(a).Compare(LocalWriteTime(b))
	case TypeOrderString:
		return strings.Compare(a.s, b.s)
	case TypeOrderBytes:
		return bytes.Compare(a.blob, b.blob)
	case TypeOrderReference:
		return compareReferences(a.s, b.s)
	case TypeOrderGeoPoint:
		if c := compareDoubles(a.geo.Latitude, b.geo.Latitude); c != 0 {
			return c
		}
		return compareDoubles(a.geo.Longitude, b.geo.Longitude)
	case TypeOrderArray:
		return compareArrays(a.arr, b.arr)
	case TypeOrderMap:
		return compareMaps(a.entries, b.entries)
	default:
		panic("value: unhandled type order")
	}
}

// Equals reports structural equality, consistent with Compare returning 0:
// an integer equals a numerically equal double, and NaN equals NaN.
func Equals(a, b Value) bool {
	if a.kind == 0 || b.kind == 0 {
		return a.kind == b.kind
	}
	return Compare(a, b) == 0
}

// Contains reports whether any element of the array value equals v.
func Contains(array Value, v Value) bool {
	for _, e := range array.arr {
		if Equals(e, v) {
			return true
		}
	}
	return false
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case !a && b:
		return -1
	case a && !b:
		return +1
	}
	return 0
}

// compareDoubles orders doubles with NaN first and -0 equal to +0.
func compareDoubles(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return +1
	case a < b:
		return -1
	case a > b:
		return +1
	}
	return 0
}

func compareInt64s(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	}
	return 0
}

// compareIntDouble compares an int64 to a double without converting the
// integer to float64, which would lose precision above 2^53.
func compareIntDouble(i int64, d float64) int {
	switch {
	case math.IsNaN(d):
		return +1
	case d >= maxInt64AsDouble:
		return -1
	case d < minInt64AsDouble:
		return +1
	}
	truncated := math.Trunc(d)
	whole := int64(truncated)
	if c := compareInt64s(i, whole); c != 0 {
		return c
	}
	// Same whole part: the fractional remainder decides.
	switch {
	case d > truncated:
		return -1
	case d < truncated:
		return +1
	}
	return 0
}

const (
	// 2^63 is exactly representable as a float64; int64 values are all
	// strictly below it.
	maxInt64AsDouble = 9223372036854775808.0
	minInt64AsDouble = -9223372036854775808.0
)

func compareNumbers(a, b Value) int {
	switch {
	case a.kind == KindInteger && b.kind == KindInteger:
		return compareInt64s(a.i, b.i)
	case a.kind == KindDouble && b.kind == KindDouble:
		return compareDoubles(a.f, b.f)
	case a.kind == KindInteger:
		return compareIntDouble(a.i, b.f)
	default:
		return -compareIntDouble(b.i, a.f)
	}
}

func compareReferences(a, b string) int {
	// Segment-wise comparison covers the database id segments and the
	// document path alike.
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return compareInts(len(as), len(bs))
}

func compareArrays(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInts(len(a), len(b))
}

func compareMaps(a, b []MapEntry) int {
	as, bs := sortedEntries(a), sortedEntries(b)
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(as[i].Key, bs[i].Key); c != 0 {
			return c
		}
		if c := Compare(as[i].Value, bs[i].Value); c != 0 {
			return c
		}
	}
	return compareInts(len(as), len(bs))
}

func sortedEntries(entries []MapEntry) []MapEntry {
	out := append([]MapEntry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
