package mutation

import (
	"testing"

	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

func TestSetReplacesDocument(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3, obj("foo", "foo-value", "baz", "baz-value"))
	set := NewSet(testKey(t, "collection/key"), obj("bar", "bar-value"), PreconditionNone())

	set.ApplyToLocalView(doc, writeTime)

	want := document.NewFound(testKey(t, "collection/key"), version(3), obj("bar", "bar-value")).
		SetHasLocalMutations()
	if !doc.Equal(want) {
		t.Errorf("document = %s, want %s", doc, want)
	}
}

func TestSetOnMissingDocument(t *testing.T) {
	doc := document.NewInvalid(testKey(t, "collection/key"))
	set := NewSet(testKey(t, "collection/key"), obj("foo", "bar"), PreconditionNone())

	set.ApplyToLocalView(doc, writeTime)

	if !doc.IsFound() || !doc.Version().IsNone() {
		t.Fatalf("document = %s, want found at version none", doc)
	}
	if !doc.HasLocalMutations() {
		t.Error("document missing local mutations flag")
	}
}

func TestPatchMergesMaskedFields(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3,
		obj("foo", obj("bar", "bar-value"), "baz", "baz-value"))
	patch := NewPatch(testKey(t, "collection/key"),
		obj("foo", obj("bar", "new-bar-value")),
		maskOf(t, "foo.bar"),
		PreconditionExists(true))

	patch.ApplyToLocalView(doc, writeTime)

	requireField(t, doc, "foo.bar", value.String("new-bar-value"))
	requireField(t, doc, "baz", value.String("baz-value"))
	if !doc.HasLocalMutations() {
		t.Error("document missing local mutations flag")
	}
}

func TestPatchDeletesFieldsMissingFromData(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3,
		obj("foo", obj("bar", "bar-value", "baz", "baz-value")))
	patch := NewPatch(testKey(t, "collection/key"), value.EmptyMap(),
		maskOf(t, "foo.bar"), PreconditionExists(true))

	patch.ApplyToLocalView(doc, writeTime)

	if _, ok := doc.Field(path.MustFieldPath("foo.bar")); ok {
		t.Error("masked field without data survived the patch")
	}
	requireField(t, doc, "foo.baz", value.String("baz-value"))
}

func TestPatchThroughPrimitiveCreatesMap(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3, obj("foo", "primitive", "baz", "baz-value"))
	patch := NewPatch(testKey(t, "collection/key"),
		obj("foo", obj("bar", "new")),
		maskOf(t, "foo.bar"),
		PreconditionExists(true))

	patch.ApplyToLocalView(doc, writeTime)

	requireField(t, doc, "foo.bar", value.String("new"))
	requireField(t, doc, "baz", value.String("baz-value"))
}

func TestPatchSkipsMissingDocument(t *testing.T) {
	invalid := document.NewInvalid(testKey(t, "collection/key"))
	deleted := document.NewDeleted(testKey(t, "collection/key"), version(3))
	patch := patchOf(t, "collection/key", obj("foo", "bar"))

	patch.ApplyToLocalView(invalid, writeTime)
	patch.ApplyToLocalView(deleted, writeTime)

	if invalid.IsValid() {
		t.Errorf("patch with exists precondition promoted an invalid document: %s", invalid)
	}
	if !deleted.IsDeleted() || deleted.HasPendingWrites() {
		t.Errorf("patch with exists precondition changed a deleted document: %s", deleted)
	}
}

func TestMergeAppliesToMissingDocument(t *testing.T) {
	doc := document.NewDeleted(testKey(t, "collection/key"), version(3))
	merge := mergeOf(t, "collection/key", obj("foo", "bar"))

	merge.ApplyToLocalView(doc, writeTime)

	if !doc.IsFound() {
		t.Fatalf("merge did not materialize the document: %s", doc)
	}
	if !doc.Version().IsNone() {
		t.Errorf("version = %s, want none for a merge onto a deleted document", doc.Version())
	}
	requireField(t, doc, "foo", value.String("bar"))
}

func TestDeleteProducesDeletedDocument(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3, obj("foo", "bar"))
	del := NewDelete(testKey(t, "collection/key"), PreconditionNone())

	del.ApplyToLocalView(doc, writeTime)

	want := document.NewDeleted(testKey(t, "collection/key"), version(0)).SetHasLocalMutations()
	if !doc.Equal(want) {
		t.Errorf("document = %s, want %s", doc, want)
	}
}

func TestVerifyNeverChangesDocument(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3, obj("foo", "bar"))
	before := doc.Clone()

	NewVerify(testKey(t, "collection/key"), PreconditionUpdateTime(version(3))).
		ApplyToLocalView(doc, writeTime)
	NewVerify(testKey(t, "collection/key"), PreconditionUpdateTime(version(99))).
		ApplyToLocalView(doc, writeTime)

	if !doc.Equal(before) {
		t.Errorf("verify changed the document: %s", doc)
	}
}

func TestPreconditions(t *testing.T) {
	found := func() *document.Document { return foundDoc(t, "collection/key", 3, obj("n", 1)) }
	deleted := func() *document.Document {
		return document.NewDeleted(testKey(t, "collection/key"), version(3))
	}

	cases := []struct {
		name string
		pre  Precondition
		doc  *document.Document
		want bool
	}{
		{"none on found", PreconditionNone(), found(), true},
		{"none on deleted", PreconditionNone(), deleted(), true},
		{"exists on found", PreconditionExists(true), found(), true},
		{"exists on deleted", PreconditionExists(true), deleted(), false},
		{"not-exists on found", PreconditionExists(false), found(), false},
		{"not-exists on deleted", PreconditionExists(false), deleted(), true},
		{"update time match", PreconditionUpdateTime(version(3)), found(), true},
		{"update time mismatch", PreconditionUpdateTime(version(4)), found(), false},
		{"update time on deleted", PreconditionUpdateTime(version(3)), deleted(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pre.IsValidFor(tc.doc); got != tc.want {
				t.Errorf("IsValidFor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFailedPreconditionIsNoOp(t *testing.T) {
	doc := foundDoc(t, "collection/key", 3, obj("foo", "bar"))
	before := doc.Clone()

	NewSet(testKey(t, "collection/key"), obj("foo", "new"), PreconditionExists(false)).
		ApplyToLocalView(doc, writeTime)

	if !doc.Equal(before) {
		t.Errorf("set under failed precondition changed the document: %s", doc)
	}
}

func TestPostMutationVersion(t *testing.T) {
	found := foundDoc(t, "collection/key", 7, obj("foo", "bar"))
	NewSet(testKey(t, "collection/key"), obj("foo", "new"), PreconditionNone()).
		ApplyToLocalView(found, writeTime)
	if !found.Version().Equal(version(7)) {
		t.Errorf("found document version = %s, want 7", found.Version())
	}

	deleted := document.NewDeleted(testKey(t, "collection/key"), version(7))
	NewSet(testKey(t, "collection/key"), obj("foo", "new"), PreconditionNone()).
		ApplyToLocalView(deleted, writeTime)
	if !deleted.Version().IsNone() {
		t.Errorf("resurrected document version = %s, want none", deleted.Version())
	}
}

func TestApplyPanicsOnKeyMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic applying a mutation to a different key")
		}
	}()
	doc := foundDoc(t, "collection/other", 1, obj("foo", "bar"))
	NewSet(testKey(t, "collection/key"), obj(), PreconditionNone()).ApplyToLocalView(doc, writeTime)
}

func TestExtractTransformBaseValue(t *testing.T) {
	doc := foundDoc(t, "collection/key", 1, obj("sum", 1, "text", "hello"))

	patch := patchOf(t, "collection/key", value.EmptyMap(),
		ft(t, "sum", Increment(value.Integer(2))),
		ft(t, "missing", Increment(value.Integer(1))),
		ft(t, "text", ServerTimestamp()),
	)

	base, ok := patch.ExtractTransformBaseValue(doc)
	if !ok {
		t.Fatal("expected a base value for increment transforms")
	}
	got, _ := base.Get(path.MustFieldPath("sum"))
	if !value.Equals(got, value.Integer(1)) {
		t.Errorf("base sum = %s, want 1", got)
	}
	got, _ = base.Get(path.MustFieldPath("missing"))
	if !value.Equals(got, value.Integer(0)) {
		t.Errorf("base for missing field = %s, want 0", got)
	}
	if _, found := base.Get(path.MustFieldPath("text")); found {
		t.Error("server timestamp transform produced a base value")
	}
}

func TestExtractTransformBaseValueNone(t *testing.T) {
	doc := foundDoc(t, "collection/key", 1, obj("text", "hello"))
	set := NewSet(testKey(t, "collection/key"), obj("x", 1), PreconditionNone(),
		ft(t, "text", ServerTimestamp()))

	if _, ok := set.ExtractTransformBaseValue(doc); ok {
		t.Error("expected no base value without increment transforms")
	}
}

func TestMutationEqual(t *testing.T) {
	key := testKey(t, "collection/key")
	set := func() Mutation {
		return NewSet(key, obj("foo", "bar"), PreconditionNone(), ft(t, "n", Increment(value.Integer(1))))
	}

	if !set().Equal(set()) {
		t.Error("identical set mutations not equal")
	}
	if set().Equal(NewSet(key, obj("foo", "other"), PreconditionNone(), ft(t, "n", Increment(value.Integer(1))))) {
		t.Error("set mutations with different data compare equal")
	}
	if set().Equal(NewSet(key, obj("foo", "bar"), PreconditionNone(), ft(t, "n", Increment(value.Double(1))))) {
		t.Error("increment by integer and by double compare equal")
	}
	if set().Equal(NewDelete(key, PreconditionNone())) {
		t.Error("set equals delete")
	}
	if !NewDelete(key, PreconditionNone()).Equal(NewDelete(key, PreconditionNone())) {
		t.Error("identical deletes not equal")
	}
}
