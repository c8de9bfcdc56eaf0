package mutation

import (
	"fmt"
	"math"
	"time"

	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// TransformKind identifies a field transform operation.
type TransformKind uint8

const (
	// TransformKindServerTimestamp replaces the field with the commit
	// timestamp; locally it stores a sentinel carrying the write time.
	TransformKindServerTimestamp TransformKind = iota + 1
	// TransformKindIncrement adds a numeric operand to the field.
	TransformKindIncrement
	// TransformKindArrayUnion appends operand elements not already present.
	TransformKindArrayUnion
	// TransformKindArrayRemove drops all elements equal to an operand.
	TransformKindArrayRemove
)

func (k TransformKind) String() string {
	switch k {
	case TransformKindServerTimestamp:
		return "server_timestamp"
	case TransformKindIncrement:
		return "increment"
	case TransformKindArrayUnion:
		return "array_union"
	case TransformKindArrayRemove:
		return "array_remove"
	default:
		return "unknown"
	}
}

// Transform is one field transform operation, evaluated against the
// field's previous value at application time.
type Transform struct {
	kind     TransformKind
	operand  value.Value
	elements []value.Value
}

// ServerTimestamp returns the server-timestamp transform.
func ServerTimestamp() Transform {
	return Transform{kind: TransformKindServerTimestamp}
}

// Increment returns a numeric increment transform. The operand must be an
// integer or a double.
func Increment(operand value.Value) Transform {
	if !operand.IsNumber() {
		panic(fmt.Sprintf("mutation: increment operand must be a number, got %s", operand))
	}
	return Transform{kind: TransformKindIncrement, operand: operand}
}

// ArrayUnion returns a transform appending each element not already in
// the field's array.
func ArrayUnion(elements ...value.Value) Transform {
	return Transform{kind: TransformKindArrayUnion, elements: elements}
}

// ArrayRemove returns a transform dropping every array element equal to
// one of the given elements.
func ArrayRemove(elements ...value.Value) Transform {
	return Transform{kind: TransformKindArrayRemove, elements: elements}
}

// Kind returns the transform operation kind.
func (t Transform) Kind() TransformKind { return t.kind }

// ApplyToLocalView evaluates the transform against the field's previous
// value (zero Value when the field is absent) at the given local write
// time.
func (t Transform) ApplyToLocalView(previous value.Value, localWriteTime time.Time) value.Value {
	switch t.kind {
	case TransformKindServerTimestamp:
		return value.ServerTimestamp(localWriteTime, previous)
	case TransformKindIncrement:
		return t.applyIncrement(previous)
	case TransformKindArrayUnion:
		return t.applyArrayUnion(previous)
	case TransformKindArrayRemove:
		return t.applyArrayRemove(previous)
	default:
		panic(fmt.Sprintf("mutation: unknown transform kind %d", t.kind))
	}
}

// ComputeBaseValue returns the pre-transform value to record in a base
// mutation so replaying the transform stays idempotent. Only increments
// have one: the previous number, or integer zero when the field was not
// numeric.
func (t Transform) ComputeBaseValue(previous value.Value) (value.Value, bool) {
	if t.kind != TransformKindIncrement {
		return value.Value{}, false
	}
	return t.incrementBase(previous), true
}

func (t Transform) incrementBase(previous value.Value) value.Value {
	if previous.IsNumber() {
		return previous
	}
	return value.Integer(0)
}

func (t Transform) applyIncrement(previous value.Value) value.Value {
	base := t.incrementBase(previous)
	switch {
	case base.IsInteger() && t.operand.IsInteger():
		return value.Integer(saturatedAdd(base.IntegerValue(), t.operand.IntegerValue()))
	case base.IsInteger():
		return value.Double(float64(base.IntegerValue()) + t.operand.DoubleValue())
	default:
		return value.Double(base.DoubleValue() + t.operand.NumberValue())
	}
}

func (t Transform) applyArrayUnion(previous value.Value) value.Value {
	out := coercedArrayElements(previous)
	for _, e := range t.elements {
		if !containsElement(out, e) {
			out = append(out, e.Clone())
		}
	}
	return value.Array(out...)
}

func (t Transform) applyArrayRemove(previous value.Value) value.Value {
	out := make([]value.Value, 0, len(previous.ArrayValues()))
	for _, e := range coercedArrayElements(previous) {
		if !containsElement(t.elements, e) {
			out = append(out, e)
		}
	}
	return value.Array(out...)
}

// Equal reports whether both transforms perform the same operation. The
// operand's numeric variant matters: incrementing by integer 1 and by
// double 1.0 produce different result types.
func (t Transform) Equal(other Transform) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case TransformKindIncrement:
		return t.operand.Kind() == other.operand.Kind() && value.Equals(t.operand, other.operand)
	case TransformKindArrayUnion, TransformKindArrayRemove:
		if len(t.elements) != len(other.elements) {
			return false
		}
		for i, e := range t.elements {
			if !value.Equals(e, other.elements[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Transform) String() string {
	switch t.kind {
	case TransformKindIncrement:
		return fmt.Sprintf("Transform(increment %s)", t.operand)
	case TransformKindArrayUnion:
		return fmt.Sprintf("Transform(array_union %s)", value.Array(t.elements...))
	case TransformKindArrayRemove:
		return fmt.Sprintf("Transform(array_remove %s)", value.Array(t.elements...))
	default:
		return fmt.Sprintf("Transform(%s)", t.kind)
	}
}

// FieldTransform pairs a transform with the field path it targets.
type FieldTransform struct {
	path      path.FieldPath
	transform Transform
}

// NewFieldTransform binds a transform to a field path.
func NewFieldTransform(fp path.FieldPath, t Transform) FieldTransform {
	return FieldTransform{path: fp, transform: t}
}

// Path returns the targeted field path.
func (ft FieldTransform) Path() path.FieldPath { return ft.path }

// Transform returns the operation applied at the path.
func (ft FieldTransform) Transform() Transform { return ft.transform }

// Equal reports whether both field transforms target the same path with
// the same operation.
func (ft FieldTransform) Equal(other FieldTransform) bool {
	return ft.path.Equal(other.path) && ft.transform.Equal(other.transform)
}

func (ft FieldTransform) String() string {
	return fmt.Sprintf("FieldTransform(%s, %s)", ft.path, ft.transform)
}

func coercedArrayElements(previous value.Value) []value.Value {
	if !previous.IsArray() {
		return nil
	}
	return append([]value.Value(nil), previous.ArrayValues()...)
}

func containsElement(list []value.Value, e value.Value) bool {
	for _, candidate := range list {
		if value.Equals(candidate, e) {
			return true
		}
	}
	return false
}

func saturatedAdd(a, b int64) int64 {
	if a > 0 && b > math.MaxInt64-a {
		return math.MaxInt64
	}
	if a < 0 && b < math.MinInt64-a {
		return math.MinInt64
	}
	return a + b
}
