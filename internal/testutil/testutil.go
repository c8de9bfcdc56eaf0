// Package testutil provides the shared fixture vocabulary used by
// repository and view tests: terse constructors for keys, values,
// documents, mutations and queries. Every helper panics on malformed
// input, so tests stay free of error plumbing.
package testutil

import (
	"fmt"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
	"github.com/laminadb/lamina/internal/domain/value"
)

// DeleteSentinel marks a field for deletion in PatchMutation data.
const DeleteSentinel = "<DELETE>"

// DB is the database id test references resolve against.
var DB = path.MustDatabaseID("project", "")

// Key parses a document key.
func Key(s string) path.DocumentKey {
	k, err := path.ParseDocumentKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Field parses a field path.
func Field(s string) path.FieldPath {
	return path.MustFieldPath(s)
}

// Resource parses a resource path.
func Resource(s string) path.ResourcePath {
	return path.MustResourcePath(s)
}

// Version builds a snapshot version from microseconds.
func Version(micros int64) domain.SnapshotVersion {
	return domain.VersionFromMicros(micros)
}

// Time builds a UTC timestamp from microseconds.
func Time(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

// Wrap converts a plain Go value into a domain value.
func Wrap(v any) value.Value {
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
	case []byte:
		return value.Bytes(x)
	case time.Time:
		return value.Timestamp(x)
	case []any:
		return Array(x...)
	default:
		panic(fmt.Sprintf("testutil: cannot wrap %T", v))
	}
}

// Map builds a map value from alternating key/value pairs.
func Map(pairs ...any) value.Value {
	if len(pairs)%2 != 0 {
		panic("testutil: Map requires key/value pairs")
	}
	entries := make([]value.MapEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, value.MapEntry{Key: pairs[i].(string), Value: Wrap(pairs[i+1])})
	}
	return value.Map(entries...)
}

// Array builds an array value.
func Array(elements ...any) value.Value {
	out := make([]value.Value, len(elements))
	for i, e := range elements {
		out[i] = Wrap(e)
	}
	return value.Array(out...)
}

// Ref builds a reference value pointing at key within DB.
func Ref(key string) value.Value {
	return value.ReferenceTo(DB, Key(key))
}

// Doc builds a found document at version (microseconds).
func Doc(key string, version int64, data value.Value) *document.Document {
	return document.NewFound(Key(key), Version(version), data)
}

// DeletedDoc builds a document known to be absent at version.
func DeletedDoc(key string, version int64) *document.Document {
	return document.NewDeleted(Key(key), Version(version))
}

// UnknownDoc builds a document with an unobserved committed write.
func UnknownDoc(key string, version int64) *document.Document {
	return document.NewUnknown(Key(key), Version(version))
}

// InvalidDoc builds a document with no known state.
func InvalidDoc(key string) *document.Document {
	return document.NewInvalid(Key(key))
}

// SetMutation builds an unconditional set.
func SetMutation(key string, data value.Value, transforms ...mutation.FieldTransform) mutation.Mutation {
	return mutation.NewSet(Key(key), data, mutation.PreconditionNone(), transforms...)
}

// PatchMutation builds a patch guarded by an exists precondition. The mask
// covers data's top-level fields; a DeleteSentinel value marks its field
// for deletion.
func PatchMutation(key string, data value.Value, transforms ...mutation.FieldTransform) mutation.Mutation {
	values, mask := splitPatchData(data)
	return mutation.NewPatch(Key(key), values, mask, mutation.PreconditionExists(true), transforms...)
}

// MergeMutation builds an unconditional patch over an explicit mask, the
// shape produced by merge writes.
func MergeMutation(key string, data value.Value, mask []path.FieldPath, transforms ...mutation.FieldTransform) mutation.Mutation {
	values, _ := splitPatchData(data)
	return mutation.NewPatch(Key(key), values, mutation.NewFieldMask(mask...), mutation.PreconditionNone(), transforms...)
}

// DeleteMutation builds an unconditional delete.
func DeleteMutation(key string) mutation.Mutation {
	return mutation.NewDelete(Key(key), mutation.PreconditionNone())
}

// VerifyMutation builds a verify pinned to an update time.
func VerifyMutation(key string, version int64) mutation.Mutation {
	return mutation.NewVerify(Key(key), mutation.PreconditionUpdateTime(Version(version)))
}

func splitPatchData(data value.Value) (value.Value, mutation.FieldMask) {
	values := value.NewObjectValue()
	var maskPaths []path.FieldPath
	for _, e := range data.MapEntries() {
		fp, err := path.NewFieldPath(e.Key)
		if err != nil {
			panic(err)
		}
		maskPaths = append(maskPaths, fp)
		if e.Value.Kind() == value.KindString && e.Value.StringValue() == DeleteSentinel {
			continue
		}
		values.Set(fp, e.Value)
	}
	return values.Value(), mutation.NewFieldMask(maskPaths...)
}

// Increment pairs a numeric increment transform with its field.
func Increment(field string, operand any) mutation.FieldTransform {
	return mutation.NewFieldTransform(Field(field), mutation.Increment(Wrap(operand)))
}

// ArrayUnion pairs an array-union transform with its field.
func ArrayUnion(field string, elements ...any) mutation.FieldTransform {
	out := make([]value.Value, len(elements))
	for i, e := range elements {
		out[i] = Wrap(e)
	}
	return mutation.NewFieldTransform(Field(field), mutation.ArrayUnion(out...))
}

// ArrayRemove pairs an array-remove transform with its field.
func ArrayRemove(field string, elements ...any) mutation.FieldTransform {
	out := make([]value.Value, len(elements))
	for i, e := range elements {
		out[i] = Wrap(e)
	}
	return mutation.NewFieldTransform(Field(field), mutation.ArrayRemove(out...))
}

// ServerTimestamp pairs a server-timestamp transform with its field.
func ServerTimestamp(field string) mutation.FieldTransform {
	return mutation.NewFieldTransform(Field(field), mutation.ServerTimestamp())
}

// Batch builds a mutation batch without base mutations.
func Batch(id int64, localWriteTime time.Time, mutations ...mutation.Mutation) mutation.Batch {
	b, err := mutation.NewBatch(id, localWriteTime, nil, mutations)
	if err != nil {
		panic(err)
	}
	return b
}

// Query builds a collection or document query at path.
func Query(p string) query.Query {
	return query.New(Resource(p))
}

// CollectionGroupQuery builds a root query over a collection id.
func CollectionGroupQuery(collectionID string) query.Query {
	return query.NewCollectionGroup(collectionID)
}

// Filter builds a field filter; op is its canonical string form
// ("<", "<=", "==", "!=", ">=", ">", "array-contains", "in",
// "array-contains-any", "not-in").
func Filter(field, op string, operand any) query.Filter {
	f, err := query.NewFieldFilter(Field(field), Operator(op), Wrap(operand))
	if err != nil {
		panic(err)
	}
	return f
}

// Operator parses a canonical operator string.
func Operator(op string) query.Operator {
	switch op {
	case "<":
		return query.OperatorLessThan
	case "<=":
		return query.OperatorLessThanOrEqual
	case "==":
		return query.OperatorEqual
	case "!=":
		return query.OperatorNotEqual
	case ">=":
		return query.OperatorGreaterThanOrEqual
	case ">":
		return query.OperatorGreaterThan
	case "array-contains":
		return query.OperatorArrayContains
	case "in":
		return query.OperatorIn
	case "array-contains-any":
		return query.OperatorArrayContainsAny
	case "not-in":
		return query.OperatorNotIn
	default:
		panic(fmt.Sprintf("testutil: unknown operator %q", op))
	}
}

// OrderBy builds an ordering; direction is "asc" or "desc".
func OrderBy(field, direction string) query.OrderBy {
	var d query.Direction
	switch direction {
	case "asc":
		d = query.Ascending
	case "desc":
		d = query.Descending
	default:
		panic(fmt.Sprintf("testutil: unknown direction %q", direction))
	}
	return query.NewOrderBy(Field(field), d)
}
