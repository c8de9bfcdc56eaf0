package mutation

import (
	"testing"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

var writeTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func testKey(t *testing.T, s string) path.DocumentKey {
	t.Helper()
	k, err := path.ParseDocumentKey(s)
	if err != nil {
		t.Fatalf("ParseDocumentKey(%q): %v", s, err)
	}
	return k
}

func version(n int64) domain.SnapshotVersion {
	return domain.VersionFromMicros(n)
}

// wrap converts plain Go values into domain values for terse fixtures.
func wrap(v any) value.Value {
	switch x := v.(type) {
	case value.Value:
		return x
	case nil:
		return value.Null()
	case bool:
		return value.Boolean(x)
	case int:
		return value.Integer(int64(x))
	case int64:
		return value.Integer(x)
	case float64:
		return value.Double(x)
	case string:
		return value.String(x)
	case time.Time:
		return value.Timestamp(x)
	case []any:
		elems := make([]value.Value, len(x))
		for i, e := range x {
			elems[i] = wrap(e)
		}
		return value.Array(elems...)
	default:
		panic("unsupported fixture value")
	}
}

// obj builds a map value from alternating key/value pairs.
func obj(pairs ...any) value.Value {
	if len(pairs)%2 != 0 {
		panic("obj requires key/value pairs")
	}
	entries := make([]value.MapEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, value.MapEntry{Key: pairs[i].(string), Value: wrap(pairs[i+1])})
	}
	return value.Map(entries...)
}

func foundDoc(t *testing.T, key string, v int64, data value.Value) *document.Document {
	t.Helper()
	return document.NewFound(testKey(t, key), version(v), data)
}

// maskOf parses field paths into a mask.
func maskOf(t *testing.T, paths ...string) FieldMask {
	t.Helper()
	fps := make([]path.FieldPath, len(paths))
	for i, p := range paths {
		fps[i] = path.MustFieldPath(p)
	}
	return NewFieldMask(fps...)
}

// patchOf mirrors the usual patch shape: mask derived from the data's top
// level keys, exists precondition.
func patchOf(t *testing.T, key string, data value.Value, transforms ...FieldTransform) Mutation {
	t.Helper()
	return NewPatch(testKey(t, key), data, maskFromData(data), PreconditionExists(true), transforms...)
}

// mergeOf is a patch with no precondition, as produced by merge writes.
func mergeOf(t *testing.T, key string, data value.Value, transforms ...FieldTransform) Mutation {
	t.Helper()
	return NewPatch(testKey(t, key), data, maskFromData(data), PreconditionNone(), transforms...)
}

func maskFromData(data value.Value) FieldMask {
	var fps []path.FieldPath
	for _, e := range data.MapEntries() {
		fp, _ := path.NewFieldPath(e.Key)
		fps = append(fps, fp)
	}
	return NewFieldMask(fps...)
}

func ft(t *testing.T, field string, op Transform) FieldTransform {
	t.Helper()
	return NewFieldTransform(path.MustFieldPath(field), op)
}

func requireField(t *testing.T, doc *document.Document, field string, want value.Value) {
	t.Helper()
	got, ok := doc.Field(path.MustFieldPath(field))
	if !ok {
		t.Fatalf("field %s missing, document %s", field, doc)
	}
	if !value.Equals(got, want) {
		t.Fatalf("field %s = %s, want %s", field, got, want)
	}
}
