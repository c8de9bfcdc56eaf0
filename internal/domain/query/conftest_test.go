package query

import (
	"testing"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

var testDB = path.MustDatabaseID("project", "")

func testKey(t *testing.T, s string) path.DocumentKey {
	t.Helper()
	k, err := path.ParseDocumentKey(s)
	if err != nil {
		t.Fatalf("ParseDocumentKey(%q): %v", s, err)
	}
	return k
}

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

func doc(t *testing.T, key string, pairs ...any) *document.Document {
	t.Helper()
	return document.NewFound(testKey(t, key), domain.VersionFromMicros(1), obj(pairs...))
}

func ref(t *testing.T, key string) value.Value {
	t.Helper()
	return value.ReferenceTo(testDB, testKey(t, key))
}

func filter(t *testing.T, field string, op Operator, operand any) Filter {
	t.Helper()
	f, err := NewFieldFilter(path.MustFieldPath(field), op, wrap(operand))
	if err != nil {
		t.Fatalf("NewFieldFilter(%s %s): %v", field, op, err)
	}
	return f
}

func collection(t *testing.T, p string) Query {
	t.Helper()
	rp, err := path.ParseResourcePath(p)
	if err != nil {
		t.Fatalf("ParseResourcePath(%q): %v", p, err)
	}
	return New(rp)
}

func withFilter(t *testing.T, q Query, f Filter) Query {
	t.Helper()
	out, err := q.WithFilter(f)
	if err != nil {
		t.Fatalf("WithFilter(%s): %v", f, err)
	}
	return out
}

func withOrderBy(t *testing.T, q Query, field string, d Direction) Query {
	t.Helper()
	out, err := q.WithOrderBy(NewOrderBy(path.MustFieldPath(field), d))
	if err != nil {
		t.Fatalf("WithOrderBy(%s): %v", field, err)
	}
	return out
}
