package localview

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
	"github.com/laminadb/lamina/internal/repository/collindex"
	"github.com/laminadb/lamina/internal/repository/mutationq"
	"github.com/laminadb/lamina/internal/repository/remotedoc"
)

// fixture wires the view service to in-memory stores.
type fixture struct {
	cache *remotedoc.Memory
	queue *mutationq.Memory
	index *collindex.Memory
	view  *Service
}

func newFixture() *fixture {
	cache := remotedoc.NewMemory()
	queue := mutationq.NewMemory()
	index := collindex.NewMemory()
	return &fixture{
		cache: cache,
		queue: queue,
		index: index,
		view:  New(cache, queue, index),
	}
}

func (f *fixture) setDoc(t *testing.T, doc *document.Document, readTimeMicros int64) {
	t.Helper()
	if err := f.cache.Add(context.Background(), doc, domain.VersionFromMicros(readTimeMicros)); err != nil {
		t.Fatalf("Add(%s): %v", doc.Key(), err)
	}
}

func (f *fixture) addBatch(t *testing.T, writeTimeMicros int64, mutations ...mutation.Mutation) mutation.Batch {
	t.Helper()
	b, err := f.queue.AddBatch(
		context.Background(),
		time.UnixMicro(writeTimeMicros).UTC(),
		nil,
		mutations,
	)
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	return b
}

func (f *fixture) addParent(t *testing.T, collectionPath string) {
	t.Helper()
	p, err := path.ParseResourcePath(collectionPath)
	if err != nil {
		t.Fatalf("parse %q: %v", collectionPath, err)
	}
	if err := f.index.AddToCollectionParentIndex(context.Background(), p); err != nil {
		t.Fatalf("AddToCollectionParentIndex(%s): %v", collectionPath, err)
	}
}

func expectKeys(t *testing.T, docs map[path.DocumentKey]*document.Document, want ...string) {
	t.Helper()
	got := make([]string, 0, len(docs))
	for key := range docs {
		got = append(got, key.String())
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got keys %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got keys %v, want %v", got, want)
		}
	}
}

// Collaborator stubs for error propagation tests.

type stubCache struct {
	getFn         func(key path.DocumentKey) (*document.Document, error)
	getAllFn      func(keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error)
	getMatchingFn func(q query.Query, since domain.SnapshotVersion) (map[path.DocumentKey]*document.Document, error)
}

func (s *stubCache) Get(_ context.Context, key path.DocumentKey) (*document.Document, error) {
	return s.getFn(key)
}

func (s *stubCache) GetAll(_ context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error) {
	return s.getAllFn(keys)
}

func (s *stubCache) GetMatching(
	_ context.Context, q query.Query, since domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	return s.getMatchingFn(q, since)
}

type stubQueue struct {
	affectingKeyFn   func(key path.DocumentKey) ([]mutation.Batch, error)
	affectingKeysFn  func(keys []path.DocumentKey) ([]mutation.Batch, error)
	affectingQueryFn func(q query.Query) ([]mutation.Batch, error)
}

func (s *stubQueue) AllBatchesAffectingDocumentKey(_ context.Context, key path.DocumentKey) ([]mutation.Batch, error) {
	return s.affectingKeyFn(key)
}

func (s *stubQueue) AllBatchesAffectingDocumentKeys(_ context.Context, keys []path.DocumentKey) ([]mutation.Batch, error) {
	return s.affectingKeysFn(keys)
}

func (s *stubQueue) AllBatchesAffectingQuery(_ context.Context, q query.Query) ([]mutation.Batch, error) {
	return s.affectingQueryFn(q)
}

type stubIndex struct {
	parentsFn func(collectionID string) ([]path.ResourcePath, error)
}

func (s *stubIndex) CollectionParents(_ context.Context, collectionID string) ([]path.ResourcePath, error) {
	return s.parentsFn(collectionID)
}
