package value

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// CanonicalID returns a deterministic string encoding of v, usable as a
// stable cache or index key. Equal values always produce identical ids;
// values with different ids are never equal. Numbers are encoded
// numerically, so an integer and the numerically equal double share one id.
func CanonicalID(v Value) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInteger:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindDouble:
		b.WriteString(canonicalNumber(v.f))
	case KindTimestamp:
		b.WriteString("time(")
		b.WriteString(strconv.FormatInt(v.t.Unix(), 10))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(v.t.Nanosecond()))
		b.WriteByte(')')
	case KindString:
		b.WriteString(v.s)
	case KindBytes:
		b.WriteString(hex.EncodeToString(v.blob))
	case KindReference:
		b.WriteString(v.s)
	case KindGeoPoint:
		b.WriteString("geo(")
		b.WriteString(canonicalNumber(v.geo.Latitude))
		b.WriteByte(',')
		b.WriteString(canonicalNumber(v.geo.Longitude))
		b.WriteByte(')')
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range sortedEntries(v.entries) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(e.Key)
			b.WriteByte(':')
			writeCanonical(b, e.Value)
		}
		b.WriteByte('}')
	default:
		b.WriteString("<invalid>")
	}
}

// canonicalNumber encodes a double numerically: NaN collapses to one form,
// negative zero to "0", and integral doubles to their integer form so that
// equal numbers of either variant share an encoding.
func canonicalNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && f >= minInt64AsDouble && f < maxInt64AsDouble:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
