package value

import (
	"sort"

	"github.com/laminadb/lamina/internal/domain/path"
)

// ObjectValue is a mutable view over a map value, addressed by field paths.
// It backs document payloads during mutation application. ObjectValues do
// not share state defensively; clone before mutating shared trees.
type ObjectValue struct {
	v Value
}

// NewObjectValue returns an empty object value.
func NewObjectValue() *ObjectValue {
	return &ObjectValue{v: EmptyMap()}
}

// ObjectValueFrom wraps an existing map value without copying it.
func ObjectValueFrom(m Value) *ObjectValue {
	if m.kind != KindMap {
		panic("value: object value requires a map")
	}
	return &ObjectValue{v: m}
}

// Value returns the underlying map value.
func (o *ObjectValue) Value() Value { return o.v }

// Get returns the value at fp.
func (o *ObjectValue) Get(fp path.FieldPath) (Value, bool) {
	if fp.IsZero() {
		return o.v, true
	}
	current := o.v
	for i := 0; i < fp.Len(); i++ {
		if current.kind != KindMap {
			return Value{}, false
		}
		next, ok := current.MapGet(fp.Segment(i))
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// Set writes v at fp, creating intermediate maps and overwriting any
// non-map value on the way.
func (o *ObjectValue) Set(fp path.FieldPath, v Value) {
	if fp.IsZero() {
		panic("value: set with empty field path")
	}
	o.v = setAtPath(o.v, fp, v)
}

// Delete removes the value at fp. Missing paths are a no-op.
func (o *ObjectValue) Delete(fp path.FieldPath) {
	if fp.IsZero() {
		panic("value: delete with empty field path")
	}
	o.v = deleteAtPath(o.v, fp)
}

// Clone returns a deep copy.
func (o *ObjectValue) Clone() *ObjectValue {
	return &ObjectValue{v: o.v.Clone()}
}

// Equals reports structural equality of the underlying maps.
func (o *ObjectValue) Equals(other *ObjectValue) bool {
	return Equals(o.v, other.v)
}

// FieldPaths returns the sorted leaf field paths of the object. An empty
// nested map counts as a leaf.
func (o *ObjectValue) FieldPaths() []path.FieldPath {
	var out []path.FieldPath
	collectLeafPaths(&out, nil, o.v)
	sortFieldPaths(out)
	return out
}

func collectLeafPaths(out *[]path.FieldPath, prefix []string, m Value) {
	for _, e := range m.entries {
		segments := append(append([]string(nil), prefix...), e.Key)
		if e.Value.kind == KindMap && e.Value.MapLen() > 0 && !IsServerTimestamp(e.Value) {
			collectLeafPaths(out, segments, e.Value)
			continue
		}
		fp, err := path.NewFieldPath(segments...)
		if err != nil {
			panic(err)
		}
		*out = append(*out, fp)
	}
}

func sortFieldPaths(paths []path.FieldPath) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Compare(paths[j]) < 0 })
}

func setAtPath(m Value, fp path.FieldPath, v Value) Value {
	key := fp.First()
	idx := entryIndex(m.entries, key)

	if fp.Len() == 1 {
		if idx >= 0 {
			m.entries[idx].Value = v
		} else {
			m.entries = append(m.entries, MapEntry{Key: key, Value: v})
		}
		return m
	}

	child := EmptyMap()
	if idx >= 0 && m.entries[idx].Value.kind == KindMap {
		child = m.entries[idx].Value
	}
	child = setAtPath(child, fp.PopFirst(), v)
	if idx >= 0 {
		m.entries[idx].Value = child
	} else {
		m.entries = append(m.entries, MapEntry{Key: key, Value: child})
	}
	return m
}

func deleteAtPath(m Value, fp path.FieldPath) Value {
	key := fp.First()
	idx := entryIndex(m.entries, key)
	if idx < 0 {
		return m
	}

	if fp.Len() == 1 {
		m.entries = append(m.entries[:idx:idx], m.entries[idx+1:]...)
		return m
	}

	child := m.entries[idx].Value
	if child.kind != KindMap {
		return m
	}
	m.entries[idx].Value = deleteAtPath(child, fp.PopFirst())
	return m
}

func entryIndex(entries []MapEntry, key string) int {
	for i, e := range entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}
