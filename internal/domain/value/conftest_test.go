package value

import (
	"testing"

	"github.com/laminadb/lamina/internal/domain/path"
)

func mustFieldPath(t *testing.T, s string) path.FieldPath {
	t.Helper()
	fp, err := path.ParseFieldPath(s)
	if err != nil {
		t.Fatalf("parse field path %q: %v", s, err)
	}
	return fp
}

// testObject builds an object value from alternating key/value pairs, with
// dotted keys addressing nested fields.
func testObject(t *testing.T, pairs ...any) *ObjectValue {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("testObject needs key/value pairs")
	}
	obj := NewObjectValue()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			t.Fatalf("testObject key %v is not a string", pairs[i])
		}
		v, ok := pairs[i+1].(Value)
		if !ok {
			t.Fatalf("testObject value for %q is not a Value", key)
		}
		obj.Set(mustFieldPath(t, key), v)
	}
	return obj
}
