package mutation

import (
	"fmt"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// Kind identifies a mutation variant. The set is closed: every place that
// applies mutations switches exhaustively over it.
type Kind uint8

const (
	// KindSet replaces the whole document payload.
	KindSet Kind = iota + 1
	// KindPatch merges masked fields into the existing payload.
	KindPatch
	// KindDelete removes the document.
	KindDelete
	// KindVerify asserts a precondition without changing anything.
	KindVerify
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindPatch:
		return "patch"
	case KindDelete:
		return "delete"
	case KindVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Mutation is one pending local write against a single document. It is a
// closed tagged variant: data and mask are populated only for the kinds
// that carry them.
type Mutation struct {
	kind         Kind
	key          path.DocumentKey
	precondition Precondition
	data         *value.ObjectValue
	mask         FieldMask
	transforms   []FieldTransform
}

// NewSet builds a mutation replacing the document's payload with data (a
// map value), then applying the transforms.
func NewSet(key path.DocumentKey, data value.Value, pre Precondition, transforms ...FieldTransform) Mutation {
	return Mutation{
		kind:         KindSet,
		key:          key,
		precondition: pre,
		data:         value.ObjectValueFrom(data),
		transforms:   transforms,
	}
}

// NewPatch builds a mutation merging data's masked fields into the
// document. Mask paths absent from data are deleted from the document.
func NewPatch(key path.DocumentKey, data value.Value, mask FieldMask, pre Precondition, transforms ...FieldTransform) Mutation {
	return Mutation{
		kind:         KindPatch,
		key:          key,
		precondition: pre,
		data:         value.ObjectValueFrom(data),
		mask:         mask,
		transforms:   transforms,
	}
}

// NewDelete builds a mutation removing the document.
func NewDelete(key path.DocumentKey, pre Precondition) Mutation {
	return Mutation{kind: KindDelete, key: key, precondition: pre}
}

// NewVerify builds a mutation that only asserts its precondition. It is
// used by transactions and never changes the local view.
func NewVerify(key path.DocumentKey, pre Precondition) Mutation {
	return Mutation{kind: KindVerify, key: key, precondition: pre}
}

// Kind returns the mutation variant.
func (m Mutation) Kind() Kind { return m.kind }

// Key returns the targeted document key.
func (m Mutation) Key() path.DocumentKey { return m.key }

// Precondition returns the guard checked against the base document.
func (m Mutation) Precondition() Precondition { return m.precondition }

// Data returns the payload carried by Set and Patch mutations.
func (m Mutation) Data() *value.ObjectValue { return m.data }

// Mask returns the field mask of a Patch mutation.
func (m Mutation) Mask() FieldMask { return m.mask }

// FieldTransforms returns the mutation's transforms in application order.
func (m Mutation) FieldTransforms() []FieldTransform { return m.transforms }

// IsZero reports whether m is the zero mutation.
func (m Mutation) IsZero() bool { return m.kind == 0 }

// ApplyToLocalView transforms doc in place into the state the client
// observes once this mutation is pending. A failed precondition leaves
// doc untouched.
func (m Mutation) ApplyToLocalView(doc *document.Document, localWriteTime time.Time) {
	m.verifyKeyMatches(doc)
	if !m.precondition.IsValidFor(doc) {
		return
	}
	switch m.kind {
	case KindSet:
		m.applySetToLocalView(doc, localWriteTime)
	case KindPatch:
		m.applyPatchToLocalView(doc, localWriteTime)
	case KindDelete:
		doc.ConvertToDeleted(domain.VersionNone()).SetHasLocalMutations()
	case KindVerify:
		// Precondition check only.
	default:
		panic(fmt.Sprintf("mutation: unknown mutation kind %d", m.kind))
	}
}

func (m Mutation) applySetToLocalView(doc *document.Document, localWriteTime time.Time) {
	transformResults := m.localTransformResults(doc, localWriteTime)
	newValue := m.data.Clone()
	for _, r := range transformResults {
		newValue.Set(r.fp, r.v)
	}
	doc.ConvertToFound(postMutationVersion(doc), newValue.Value()).SetHasLocalMutations()
}

func (m Mutation) applyPatchToLocalView(doc *document.Document, localWriteTime time.Time) {
	transformResults := m.localTransformResults(doc, localWriteTime)
	data := doc.Data()
	m.applyMaskedFields(data)
	for _, r := range transformResults {
		data.Set(r.fp, r.v)
	}
	doc.ConvertToFound(postMutationVersion(doc), data.Value()).SetHasLocalMutations()
}

type transformResult struct {
	fp path.FieldPath
	v  value.Value
}

// localTransformResults evaluates every transform against the pre-mutation
// document state.
func (m Mutation) localTransformResults(base *document.Document, localWriteTime time.Time) []transformResult {
	results := make([]transformResult, 0, len(m.transforms))
	for _, ft := range m.transforms {
		previous, _ := base.Field(ft.Path())
		results = append(results, transformResult{
			fp: ft.Path(),
			v:  ft.Transform().ApplyToLocalView(previous, localWriteTime),
		})
	}
	return results
}

// applyMaskedFields copies each masked field from the mutation's data into
// target, deleting masked fields the data does not carry.
func (m Mutation) applyMaskedFields(target *value.ObjectValue) {
	for _, fp := range m.mask.Paths() {
		if v, ok := m.data.Get(fp); ok {
			target.Set(fp, v.Clone())
		} else {
			target.Delete(fp)
		}
	}
}

// ExtractTransformBaseValue collects the pre-transform values this
// mutation's transforms depend on, as an object keyed by their field
// paths. It returns false when no transform needs a base value.
func (m Mutation) ExtractTransformBaseValue(doc *document.Document) (*value.ObjectValue, bool) {
	var base *value.ObjectValue
	for _, ft := range m.transforms {
		previous, _ := doc.Field(ft.Path())
		coerced, ok := ft.Transform().ComputeBaseValue(previous)
		if !ok {
			continue
		}
		if base == nil {
			base = value.NewObjectValue()
		}
		base.Set(ft.Path(), coerced.Clone())
	}
	return base, base != nil
}

func (m Mutation) verifyKeyMatches(doc *document.Document) {
	if !doc.Key().Equal(m.key) {
		panic(fmt.Sprintf("mutation: cannot apply mutation for %s to document %s", m.key, doc.Key()))
	}
}

// postMutationVersion keeps a found document's version through a set or
// patch; any other state resets to version none.
func postMutationVersion(doc *document.Document) domain.SnapshotVersion {
	if doc.IsFound() {
		return doc.Version()
	}
	return domain.VersionNone()
}

// Equal reports whether both mutations describe the same write.
func (m Mutation) Equal(other Mutation) bool {
	if m.kind != other.kind || !m.key.Equal(other.key) || !m.precondition.Equal(other.precondition) {
		return false
	}
	if len(m.transforms) != len(other.transforms) {
		return false
	}
	for i, ft := range m.transforms {
		if !ft.Equal(other.transforms[i]) {
			return false
		}
	}
	switch m.kind {
	case KindSet:
		return m.data.Equals(other.data)
	case KindPatch:
		return m.mask.Equal(other.mask) && m.data.Equals(other.data)
	default:
		return true
	}
}

func (m Mutation) String() string {
	switch m.kind {
	case KindSet:
		return fmt.Sprintf("SetMutation(%s, %s)", m.key, m.data.Value())
	case KindPatch:
		return fmt.Sprintf("PatchMutation(%s, %s, %s)", m.key, m.data.Value(), m.mask)
	case KindDelete:
		return fmt.Sprintf("DeleteMutation(%s)", m.key)
	case KindVerify:
		return fmt.Sprintf("VerifyMutation(%s, %s)", m.key, m.precondition)
	default:
		return fmt.Sprintf("Mutation(kind=%d)", m.kind)
	}
}
