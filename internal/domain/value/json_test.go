package value

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestJSONRoundTrip(t *testing.T) {
	composite := Map(
		MapEntry{Key: "null", Value: Null()},
		MapEntry{Key: "bool", Value: Boolean(true)},
		MapEntry{Key: "int", Value: Integer(math.MaxInt64)},
		MapEntry{Key: "double", Value: Double(3.5)},
		MapEntry{Key: "nan", Value: NaN()},
		MapEntry{Key: "inf", Value: Double(math.Inf(-1))},
		MapEntry{Key: "time", Value: Timestamp(time.Date(2021, 7, 3, 9, 30, 0, 123456000, time.UTC))},
		MapEntry{Key: "string", Value: String("héllo")},
		MapEntry{Key: "bytes", Value: Bytes([]byte{0, 1, 0xff})},
		MapEntry{Key: "ref", Value: Reference("projects/p/databases/d/documents/a/b")},
		MapEntry{Key: "geo", Value: Geo(48.85, 2.35)},
		MapEntry{Key: "arr", Value: Array(Integer(1), Map(MapEntry{Key: "deep", Value: String("x")}))},
		MapEntry{Key: "emptyArr", Value: Array()},
		MapEntry{Key: "emptyMap", Value: EmptyMap()},
	)

	data, err := json.Marshal(composite)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !Equals(composite, back) {
		t.Errorf("round trip lost information:\n in  %s\n out %s", composite, back)
	}
	if CanonicalID(composite) != CanonicalID(back) {
		t.Error("round trip changed the canonical id")
	}
}

func TestJSONPreservesIntegerPrecision(t *testing.T) {
	// 2^53+1 is exactly the integer a float64-routed codec would corrupt.
	v := Integer(1<<53 + 1)
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.IntegerValue() != 1<<53+1 {
		t.Errorf("integer corrupted: %d", back.IntegerValue())
	}
}

func TestJSONPreservesMapOrder(t *testing.T) {
	v := Map(
		MapEntry{Key: "z", Value: Integer(1)},
		MapEntry{Key: "a", Value: Integer(2)},
		MapEntry{Key: "m", Value: Integer(3)},
	)
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"z", "a", "m"}
	entries := back.MapEntries()
	if len(entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Key != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Key, want[i])
		}
	}
}

func TestJSONRejectsUnknown(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{}`), &v); err == nil {
		t.Error("decoding an untagged object should fail")
	}
	if err := json.Unmarshal([]byte(`{"int":"not-a-number"}`), &v); err == nil {
		t.Error("decoding a malformed integer should fail")
	}
}
