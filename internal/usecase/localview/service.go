// Package localview merges the remote document cache with the pending
// mutation queue into the documents a local reader should see.
package localview

import (
	"context"
	"fmt"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// Service computes local views. It holds no state of its own and never
// logs; every operation is a pure function of the two stores it reads.
type Service struct {
	cache DocumentCache
	queue MutationQueue
	index CollectionIndex
}

// New creates a local view service.
func New(cache DocumentCache, queue MutationQueue, index CollectionIndex) *Service {
	return &Service{cache: cache, queue: queue, index: index}
}

// GetDocument returns the local view of a single document: the cached
// state with every affecting batch replayed over it in ascending id
// order. The result is the caller's to mutate.
func (s *Service) GetDocument(ctx context.Context, key path.DocumentKey) (*document.Document, error) {
	batches, err := s.queue.AllBatchesAffectingDocumentKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("batches affecting %s: %w", key, err)
	}

	doc, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cached document %s: %w", key, err)
	}

	for _, b := range batches {
		b.ApplyToLocalView(doc)
	}
	return doc, nil
}

// GetDocuments returns the local view of every requested key, using one
// cache round trip and one union batch fetch. The result covers exactly
// the input keys; keys never seen stay invalid.
func (s *Service) GetDocuments(ctx context.Context, keys []path.DocumentKey) (
	map[path.DocumentKey]*document.Document, error,
) {
	docs, err := s.cache.GetAll(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("cached documents: %w", err)
	}
	return s.GetLocalViewOfDocuments(ctx, docs)
}

// GetLocalViewOfDocuments overlays pending mutations onto an already
// fetched base map, in place. The sync engine uses this to re-derive
// views after a remote event without re-reading the cache.
func (s *Service) GetLocalViewOfDocuments(
	ctx context.Context, docs map[path.DocumentKey]*document.Document,
) (map[path.DocumentKey]*document.Document, error) {
	keys := make([]path.DocumentKey, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}

	batches, err := s.queue.AllBatchesAffectingDocumentKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("batches affecting keys: %w", err)
	}

	for _, b := range batches {
		for key := range b.Keys() {
			if doc, ok := docs[key]; ok {
				b.ApplyToLocalView(doc)
			}
		}
	}
	return docs, nil
}

// GetDocumentsMatchingQuery returns the documents currently matching q
// under the merged local view. sinceReadTime excludes cached documents
// whose read time is not strictly after it; pending mutations are always
// considered.
func (s *Service) GetDocumentsMatchingQuery(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	switch {
	case q.IsDocumentQuery():
		return s.getDocumentsMatchingDocumentQuery(ctx, q.Path())
	case q.IsCollectionGroupQuery():
		return s.getDocumentsMatchingCollectionGroupQuery(ctx, q, sinceReadTime)
	default:
		return s.getDocumentsMatchingCollectionQuery(ctx, q, sinceReadTime)
	}
}

func (s *Service) getDocumentsMatchingDocumentQuery(
	ctx context.Context, docPath path.ResourcePath,
) (map[path.DocumentKey]*document.Document, error) {
	key, err := path.NewDocumentKey(docPath)
	if err != nil {
		return nil, err
	}

	doc, err := s.GetDocument(ctx, key)
	if err != nil {
		return nil, err
	}

	out := make(map[path.DocumentKey]*document.Document)
	if doc.IsFound() {
		out[key] = doc
	}
	return out, nil
}

// Collection group queries fan out over every parent path known to
// contain the collection id, one re-rooted collection query per parent.
func (s *Service) getDocumentsMatchingCollectionGroupQuery(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	if !q.Path().IsEmpty() {
		return nil, domain.NewInvalidQuery(q.String(),
			"collection group queries require a root path")
	}

	collectionID := q.CollectionGroup()
	parents, err := s.index.CollectionParents(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("collection parents %q: %w", collectionID, err)
	}

	out := make(map[path.DocumentKey]*document.Document)
	for _, parent := range parents {
		sub := q.AsCollectionQueryAtPath(parent.Child(collectionID))
		docs, err := s.getDocumentsMatchingCollectionQuery(ctx, sub, sinceReadTime)
		if err != nil {
			return nil, err
		}
		for key, doc := range docs {
			out[key] = doc
		}
	}
	return out, nil
}

func (s *Service) getDocumentsMatchingCollectionQuery(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	docs, err := s.cache.GetMatching(ctx, q, sinceReadTime)
	if err != nil {
		return nil, fmt.Errorf("matching documents: %w", err)
	}

	batches, err := s.queue.AllBatchesAffectingQuery(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("batches affecting query: %w", err)
	}

	if err := s.addMissingBaseDocuments(ctx, batches, docs); err != nil {
		return nil, err
	}

	for _, b := range batches {
		for _, m := range b.Mutations() {
			// Mutations on nested sub-collections must not leak into a
			// shallower collection's results.
			if !q.Path().IsImmediateParentOf(m.Key().Path()) {
				continue
			}
			doc, ok := docs[m.Key()]
			if !ok {
				doc = document.NewInvalid(m.Key())
			}
			m.ApplyToLocalView(doc, b.LocalWriteTime())
			if doc.IsFound() {
				docs[m.Key()] = doc
			} else {
				delete(docs, m.Key())
			}
		}
	}

	for key, doc := range docs {
		if !q.Matches(doc) {
			delete(docs, key)
		}
	}
	return docs, nil
}

// addMissingBaseDocuments fetches the base document for every patch
// mutation whose key GetMatching skipped, e.g. because its read time
// predates sinceReadTime. A patch cannot be evaluated without a base
// value for the fields it leaves untouched.
func (s *Service) addMissingBaseDocuments(
	ctx context.Context, batches []mutation.Batch, docs map[path.DocumentKey]*document.Document,
) error {
	missing := make(map[path.DocumentKey]struct{})
	for _, b := range batches {
		for _, m := range b.Mutations() {
			if m.Kind() != mutation.KindPatch {
				continue
			}
			if _, ok := docs[m.Key()]; !ok {
				missing[m.Key()] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	keys := make([]path.DocumentKey, 0, len(missing))
	for key := range missing {
		keys = append(keys, key)
	}

	bases, err := s.cache.GetAll(ctx, keys)
	if err != nil {
		return fmt.Errorf("patch base documents: %w", err)
	}
	for key, doc := range bases {
		if doc.IsFound() {
			docs[key] = doc
		}
	}
	return nil
}
