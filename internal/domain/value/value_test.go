package value

import (
	"math"
	"testing"
	"time"
)

// orderedGroups lists values in strictly ascending order; values within one
// group compare equal. The cross-group pairs exercise the full type-order
// table and the per-category rules.
func orderedGroups() [][]Value {
	t0 := time.Date(2016, 5, 20, 10, 20, 0, 0, time.UTC)
	t1 := time.Date(2016, 10, 21, 15, 32, 0, 0, time.UTC)

	return [][]Value{
		{Null(), Null()},
		{Boolean(false)},
		{Boolean(true)},
		{NaN(), Double(math.Float64frombits(0x7fff000000000000))},
		{Double(math.Inf(-1))},
		{Integer(math.MinInt64)},
		{Double(-1.1)},
		{Integer(-1), Double(-1.0)},
		{Double(-0.1)},
		{Integer(0), Double(0.0), Double(math.Copysign(0, -1))},
		{Double(0.1)},
		{Integer(1), Double(1.0)},
		{Double(1.1)},
		{Integer(42)},
		{Integer(math.MaxInt64)},
		{Double(math.Inf(+1))},
		{Timestamp(t0)},
		{Timestamp(t1)},
		{ServerTimestamp(t0, Value{})},
		{ServerTimestamp(t1, Value{})},
		{String("")},
		{String("a")},
		{String("abc")},
		{String("b")},
		{Bytes(nil)},
		{Bytes([]byte{0})},
		{Bytes([]byte{0, 1})},
		{Bytes([]byte{1})},
		{Reference("projects/p1/databases/d1/documents/c1/doc1")},
		{Reference("projects/p1/databases/d1/documents/c1/doc2")},
		{Reference("projects/p1/databases/d1/documents/c10/doc1")},
		{Reference("projects/p1/databases/d2/documents/c1/doc1")},
		{Reference("projects/p2/databases/d1/documents/c1/doc1")},
		{Geo(-90, -180)},
		{Geo(-90, 0)},
		{Geo(0, -180)},
		{Geo(0, 0)},
		{Geo(1, 2)},
		{Geo(2, 1)},
		{Array()},
		{Array(String("bar"))},
		{Array(String("foo"), Integer(1))},
		{Array(String("foo"), Integer(2))},
		{Array(String("foo"), String("0"))},
		{Map()},
		{Map(MapEntry{Key: "bar", Value: Integer(0)})},
		{Map(MapEntry{Key: "bar", Value: Integer(0)}, MapEntry{Key: "foo", Value: Integer(1)}),
			Map(MapEntry{Key: "foo", Value: Integer(1)}, MapEntry{Key: "bar", Value: Integer(0)})},
		{Map(MapEntry{Key: "bar", Value: Integer(1)})},
		{Map(MapEntry{Key: "bar", Value: Integer(2)})},
		{Map(MapEntry{Key: "bar", Value: String("0")})},
	}
}

func TestCompareIsTotalOrder(t *testing.T) {
	groups := orderedGroups()
	for i, gi := range groups {
		for j, gj := range groups {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = +1
			}
			for _, a := range gi {
				for _, b := range gj {
					if got := Compare(a, b); got != want {
						t.Errorf("Compare(%s, %s) = %d, want %d", a, b, got, want)
					}
					if gotEq, wantEq := Equals(a, b), want == 0; gotEq != wantEq {
						t.Errorf("Equals(%s, %s) = %v, want %v", a, b, gotEq, wantEq)
					}
				}
			}
		}
	}
}

func TestTypeOrder(t *testing.T) {
	tests := []struct {
		v    Value
		want TypeOrder
	}{
		{Null(), TypeOrderNull},
		{Boolean(true), TypeOrderBoolean},
		{Integer(1), TypeOrderNumber},
		{Double(1.5), TypeOrderNumber},
		{Timestamp(time.Unix(0, 0)), TypeOrderTimestamp},
		{ServerTimestamp(time.Unix(0, 0), Value{}), TypeOrderServerTimestamp},
		{String("x"), TypeOrderString},
		{Bytes([]byte{1}), TypeOrderBytes},
		{Reference("projects/p/databases/d/documents/a/b"), TypeOrderReference},
		{Geo(0, 0), TypeOrderGeoPoint},
		{Array(), TypeOrderArray},
		{Map(), TypeOrderMap},
	}
	for _, tt := range tests {
		if got := GetTypeOrder(tt.v); got != tt.want {
			t.Errorf("GetTypeOrder(%s) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestCompareIntDoublePrecision(t *testing.T) {
	// 2^53 is the first double that swallows neighboring integers; the
	// comparison must not round through float64.
	big := int64(1) << 53
	if got := Compare(Integer(big+1), Double(float64(big))); got != +1 {
		t.Errorf("Compare(2^53+1, 2^53) = %d, want +1", got)
	}
	if got := Compare(Integer(big), Double(float64(big))); got != 0 {
		t.Errorf("Compare(2^53, 2^53) = %d, want 0", got)
	}
	if got := Compare(Integer(math.MaxInt64), Double(9223372036854775808.0)); got != -1 {
		t.Errorf("Compare(int64 max, 2^63) = %d, want -1", got)
	}
	if got := Compare(Integer(math.MinInt64), Double(-9223372036854775808.0)); got != 0 {
		t.Errorf("Compare(int64 min, -2^63) = %d, want 0", got)
	}
	if got := Compare(Integer(-2), Double(-2.5)); got != +1 {
		t.Errorf("Compare(-2, -2.5) = %d, want +1", got)
	}
	if got := Compare(Integer(2), Double(2.5)); got != -1 {
		t.Errorf("Compare(2, 2.5) = %d, want -1", got)
	}
}

func TestEqualsCrossNumeric(t *testing.T) {
	if !Equals(Integer(3), Double(3.0)) {
		t.Error("integer 3 must equal double 3.0")
	}
	if Equals(Integer(3), Double(3.5)) {
		t.Error("integer 3 must not equal double 3.5")
	}
	if !Equals(NaN(), NaN()) {
		t.Error("NaN must equal NaN")
	}
	if !Equals(Double(math.Copysign(0, -1)), Double(0)) {
		t.Error("-0.0 must equal +0.0")
	}
	if Equals(Integer(1), String("1")) {
		t.Error("number must not equal string")
	}
}

func TestNaNNormalization(t *testing.T) {
	// Alternate NaN bit patterns collapse to the canonical representative.
	alternates := []uint64{0x7fff000000000000, 0xfff8000000000000, 0xfff4000000000000}
	for _, bits := range alternates {
		v := Double(math.Float64frombits(bits))
		if !v.IsNaN() {
			t.Fatalf("%#x should stay NaN", bits)
		}
		if got := math.Float64bits(v.DoubleValue()); got != 0x7ff8000000000000 {
			t.Errorf("Double(%#x) normalized to %#x, want canonical NaN bits", bits, got)
		}
		if !Equals(v, NaN()) {
			t.Errorf("normalized NaN %#x must equal canonical NaN", bits)
		}
	}
}

func TestCanonicalID(t *testing.T) {
	ts := Timestamp(time.UnixMicro(42).UTC())
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
		{Integer(42), "42"},
		{Double(42), "42"},
		{Double(3.5), "3.5"},
		{NaN(), "nan"},
		{Double(math.Copysign(0, -1)), "0"},
		{String("hello"), "hello"},
		{Bytes([]byte{0xde, 0xad}), "dead"},
		{ts, "time(0,42000)"},
		{Reference("projects/p/databases/d/documents/a/b"), "projects/p/databases/d/documents/a/b"},
		{Geo(1, 2), "geo(1,2)"},
		{Geo(1.5, -2.25), "geo(1.5,-2.25)"},
		{Array(Integer(1), Boolean(true)), "[1,true]"},
		{Map(MapEntry{Key: "b", Value: String("x")}, MapEntry{Key: "a", Value: Integer(1)}), "{a:1,b:x}"},
		{EmptyMap(), "{}"},
	}
	for _, tt := range tests {
		if got := CanonicalID(tt.v); got != tt.want {
			t.Errorf("CanonicalID = %q, want %q", got, tt.want)
		}
	}

	if CanonicalID(Integer(7)) != CanonicalID(Double(7)) {
		t.Error("equal numbers must share a canonical id")
	}
}

func TestContains(t *testing.T) {
	arr := Array(Integer(1), String("x"), Double(2.0))
	if !Contains(arr, Integer(1)) {
		t.Error("array should contain 1")
	}
	if !Contains(arr, Integer(2)) {
		t.Error("array should contain 2 via the double element")
	}
	if Contains(arr, String("y")) {
		t.Error("array should not contain \"y\"")
	}
}

func TestCloneIsolation(t *testing.T) {
	original := Map(
		MapEntry{Key: "nested", Value: Map(MapEntry{Key: "n", Value: Integer(1)})},
		MapEntry{Key: "list", Value: Array(Integer(1))},
	)
	clone := original.Clone()

	obj := ObjectValueFrom(clone)
	obj.Set(mustFieldPath(t, "nested.n"), Integer(99))

	got, ok := ObjectValueFrom(original).Get(mustFieldPath(t, "nested.n"))
	if !ok || !Equals(got, Integer(1)) {
		t.Errorf("original mutated through clone: %v", got)
	}
}

func TestServerTimestampSentinel(t *testing.T) {
	t0 := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	prev := Integer(7)

	st := ServerTimestamp(t0, prev)
	if !IsServerTimestamp(st) {
		t.Fatal("sentinel not recognized")
	}
	if got := LocalWriteTime(st); !got.Equal(t0) {
		t.Errorf("LocalWriteTime = %v, want %v", got, t0)
	}
	if got := PreviousValue(st); !Equals(got, prev) {
		t.Errorf("PreviousValue = %v, want %v", got, prev)
	}

	chained := ServerTimestamp(t0.Add(time.Minute), st)
	if got := PreviousValue(chained); !Equals(got, prev) {
		t.Errorf("chained PreviousValue = %v, want %v", got, prev)
	}
	if got := PreviousValue(ServerTimestamp(t0, Value{})); !got.IsZero() {
		t.Errorf("PreviousValue without previous = %v, want zero", got)
	}

	if IsServerTimestamp(Map(MapEntry{Key: "__type__", Value: String("other")})) {
		t.Error("map with a different __type__ is not a sentinel")
	}

	// Sentinels order after every concrete timestamp.
	if got := Compare(Timestamp(t0.Add(time.Hour)), st); got != -1 {
		t.Errorf("timestamp vs sentinel = %d, want -1", got)
	}
}
