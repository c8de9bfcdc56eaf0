package lamina

import (
	"fmt"

	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// NewSet builds a mutation replacing the document at docPath with data,
// creating it if absent.
func NewSet(docPath string, data map[string]any, transforms ...FieldTransform) (Mutation, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return Mutation{}, err
	}
	obj, err := toObject(data)
	if err != nil {
		return Mutation{}, err
	}
	return mutation.NewSet(key, obj, mutation.PreconditionNone(), transforms...), nil
}

// NewPatch builds a mutation updating data's top-level fields on an
// existing document. The patch is a no-op if the document does not exist
// locally.
func NewPatch(docPath string, data map[string]any, transforms ...FieldTransform) (Mutation, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return Mutation{}, err
	}
	obj, err := toObject(data)
	if err != nil {
		return Mutation{}, err
	}
	paths := make([]path.FieldPath, 0, obj.MapLen())
	for _, entry := range obj.MapEntries() {
		fp, err := path.NewFieldPath(entry.Key)
		if err != nil {
			return Mutation{}, err
		}
		paths = append(paths, fp)
	}
	mask := mutation.NewFieldMask(paths...)
	return mutation.NewPatch(key, obj, mask, mutation.PreconditionExists(true), transforms...), nil
}

// NewMerge builds an unconditional patch over an explicit field list, the
// shape produced by merge writes: named fields are written, everything
// else is kept, and the document is created if absent.
func NewMerge(docPath string, data map[string]any, fields []string, transforms ...FieldTransform) (Mutation, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return Mutation{}, err
	}
	obj, err := toObject(data)
	if err != nil {
		return Mutation{}, err
	}
	paths := make([]path.FieldPath, 0, len(fields))
	for _, f := range fields {
		fp, err := path.ParseFieldPath(f)
		if err != nil {
			return Mutation{}, err
		}
		paths = append(paths, fp)
	}
	return mutation.NewPatch(key, obj, mutation.NewFieldMask(paths...), mutation.PreconditionNone(), transforms...), nil
}

// NewDelete builds a mutation removing the document at docPath.
func NewDelete(docPath string) (Mutation, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return Mutation{}, err
	}
	return mutation.NewDelete(key, mutation.PreconditionNone()), nil
}

// NewVerify builds a mutation asserting that the document's version is
// versionMicros, without changing anything.
func NewVerify(docPath string, versionMicros int64) (Mutation, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return Mutation{}, err
	}
	pre := mutation.PreconditionUpdateTime(VersionFromMicros(versionMicros))
	return mutation.NewVerify(key, pre), nil
}

// Increment returns a transform adding operand to the field's current
// numeric value.
func Increment(field string, operand any) (FieldTransform, error) {
	fp, err := path.ParseFieldPath(field)
	if err != nil {
		return FieldTransform{}, err
	}
	v, err := toValue(operand)
	if err != nil {
		return FieldTransform{}, err
	}
	if !v.IsNumber() {
		return FieldTransform{}, fmt.Errorf("increment operand must be numeric, got %T", operand)
	}
	return mutation.NewFieldTransform(fp, mutation.Increment(v)), nil
}

// ArrayUnion returns a transform appending elements not already present,
// compared by deep equality.
func ArrayUnion(field string, elements ...any) (FieldTransform, error) {
	fp, err := path.ParseFieldPath(field)
	if err != nil {
		return FieldTransform{}, err
	}
	vals, err := toValues(elements)
	if err != nil {
		return FieldTransform{}, err
	}
	return mutation.NewFieldTransform(fp, mutation.ArrayUnion(vals...)), nil
}

// ArrayRemove returns a transform removing every element equal to one of
// elements.
func ArrayRemove(field string, elements ...any) (FieldTransform, error) {
	fp, err := path.ParseFieldPath(field)
	if err != nil {
		return FieldTransform{}, err
	}
	vals, err := toValues(elements)
	if err != nil {
		return FieldTransform{}, err
	}
	return mutation.NewFieldTransform(fp, mutation.ArrayRemove(vals...)), nil
}

// ServerTimestamp returns a transform setting the field to the commit
// time; until then the local view sees the local write time.
func ServerTimestamp(field string) (FieldTransform, error) {
	fp, err := path.ParseFieldPath(field)
	if err != nil {
		return FieldTransform{}, err
	}
	return mutation.NewFieldTransform(fp, mutation.ServerTimestamp()), nil
}

func toValues(elements []any) ([]value.Value, error) {
	vals := make([]value.Value, len(elements))
	for i, e := range elements {
		v, err := toValue(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
