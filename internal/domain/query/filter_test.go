package query

import (
	"errors"
	"testing"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

func TestComparisonFilters(t *testing.T) {
	q := collection(t, "rooms")
	subject := doc(t, "rooms/a", "n", 5, "s", "mid", "missing-elsewhere", true)

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"less than true", filter(t, "n", OperatorLessThan, 6), true},
		{"less than false", filter(t, "n", OperatorLessThan, 5), false},
		{"less or equal", filter(t, "n", OperatorLessThanOrEqual, 5), true},
		{"equal", filter(t, "n", OperatorEqual, 5), true},
		{"equal cross numeric variant", filter(t, "n", OperatorEqual, 5.0), true},
		{"not equal", filter(t, "n", OperatorNotEqual, 4), true},
		{"not equal same", filter(t, "n", OperatorNotEqual, 5), false},
		{"greater or equal", filter(t, "n", OperatorGreaterThanOrEqual, 5), true},
		{"greater than false", filter(t, "n", OperatorGreaterThan, 5), false},
		{"greater than true", filter(t, "n", OperatorGreaterThan, 4.5), true},
		{"string range", filter(t, "s", OperatorGreaterThan, "aaa"), true},
		{"cross type never matches", filter(t, "s", OperatorGreaterThan, 5), false},
		{"cross type not equal", filter(t, "s", OperatorNotEqual, 5), false},
		{"missing field", filter(t, "absent", OperatorEqual, 5), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := withFilter(t, q, tc.filter).Matches(subject)
			if got != tc.want {
				t.Errorf("%s → %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestNullAndNaNOnlyMatchEquality(t *testing.T) {
	q := collection(t, "rooms")
	withNull := doc(t, "rooms/a", "v", nil)
	withNaN := doc(t, "rooms/b", "v", value.NaN())
	withNumber := doc(t, "rooms/c", "v", 1)

	if !withFilter(t, q, filter(t, "v", OperatorEqual, nil)).Matches(withNull) {
		t.Error("v == null must match a null field")
	}
	if withFilter(t, q, filter(t, "v", OperatorNotEqual, nil)).Matches(withNumber) {
		t.Error("v != null must not match; null only participates in equality")
	}
	if withFilter(t, q, filter(t, "v", OperatorLessThanOrEqual, nil)).Matches(withNull) {
		t.Error("v <= null must not match")
	}
	if !withFilter(t, q, filter(t, "v", OperatorEqual, value.NaN())).Matches(withNaN) {
		t.Error("v == NaN must match a NaN field")
	}
	if withFilter(t, q, filter(t, "v", OperatorLessThan, value.NaN())).Matches(withNumber) {
		t.Error("v < NaN must not match")
	}
	if withFilter(t, q, filter(t, "v", OperatorLessThan, 10)).Matches(withNaN) {
		t.Error("NaN field must not match a < filter")
	}
}

func TestArrayFilters(t *testing.T) {
	q := collection(t, "rooms")
	subject := doc(t, "rooms/a",
		"tags", []any{"a", "b", 1},
		"scalar", "a")

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"array-contains hit", filter(t, "tags", OperatorArrayContains, "a"), true},
		{"array-contains numeric variant", filter(t, "tags", OperatorArrayContains, 1.0), true},
		{"array-contains miss", filter(t, "tags", OperatorArrayContains, "z"), false},
		{"array-contains on scalar", filter(t, "scalar", OperatorArrayContains, "a"), false},
		{"in hit", filter(t, "scalar", OperatorIn, []any{"a", "b"}), true},
		{"in miss", filter(t, "scalar", OperatorIn, []any{"x", "y"}), false},
		{"not-in hit", filter(t, "scalar", OperatorNotIn, []any{"x", "y"}), true},
		{"not-in miss", filter(t, "scalar", OperatorNotIn, []any{"a"}), false},
		{"not-in with null operand", filter(t, "scalar", OperatorNotIn, []any{nil, "x"}), false},
		{"array-contains-any hit", filter(t, "tags", OperatorArrayContainsAny, []any{"z", "b"}), true},
		{"array-contains-any miss", filter(t, "tags", OperatorArrayContainsAny, []any{"z"}), false},
		{"array-contains-any on scalar", filter(t, "scalar", OperatorArrayContainsAny, []any{"a"}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := withFilter(t, q, tc.filter).Matches(subject)
			if got != tc.want {
				t.Errorf("%s → %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestKeyFieldFilters(t *testing.T) {
	q := collection(t, "rooms")
	subject := doc(t, "rooms/b", "x", 1)

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"equal hit", filter(t, "__name__", OperatorEqual, ref(t, "rooms/b")), true},
		{"equal miss", filter(t, "__name__", OperatorEqual, ref(t, "rooms/a")), false},
		{"range", filter(t, "__name__", OperatorGreaterThan, ref(t, "rooms/a")), true},
		{"range miss", filter(t, "__name__", OperatorLessThan, ref(t, "rooms/a")), false},
		{"in hit", filter(t, "__name__", OperatorIn, []any{ref(t, "rooms/a"), ref(t, "rooms/b")}), true},
		{"in miss", filter(t, "__name__", OperatorIn, []any{ref(t, "rooms/a")}), false},
		{"not-in hit", filter(t, "__name__", OperatorNotIn, []any{ref(t, "rooms/a")}), true},
		{"not-in miss", filter(t, "__name__", OperatorNotIn, []any{ref(t, "rooms/b")}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := withFilter(t, q, tc.filter).Matches(subject)
			if got != tc.want {
				t.Errorf("%s → %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestFilterValidation(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		op      Operator
		operand value.Value
	}{
		{"in requires array", "x", OperatorIn, value.Integer(1)},
		{"in requires non-empty array", "x", OperatorIn, value.Array()},
		{"not-in requires array", "x", OperatorNotIn, value.String("a")},
		{"array-contains-any requires array", "x", OperatorArrayContainsAny, value.Integer(1)},
		{"key filter requires reference", "__name__", OperatorEqual, value.String("rooms/a")},
		{"key in requires references", "__name__", OperatorIn, value.Array(value.String("rooms/a"))},
		{"key array-contains invalid", "__name__", OperatorArrayContains, value.Array()},
		{"key array-contains-any invalid", "__name__", OperatorArrayContainsAny, value.Array()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFieldFilter(path.MustFieldPath(tc.field), tc.op, tc.operand)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("err = %v, want ErrInvalidQuery", err)
			}
		})
	}
}
