package localview

import (
	"context"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// DocumentCache is the slice of the remote document cache the view reads.
type DocumentCache interface {
	Get(ctx context.Context, key path.DocumentKey) (*document.Document, error)
	GetAll(ctx context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error)
	GetMatching(ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion) (
		map[path.DocumentKey]*document.Document, error,
	)
}

// MutationQueue is the slice of the mutation queue the view reads.
type MutationQueue interface {
	AllBatchesAffectingDocumentKey(ctx context.Context, key path.DocumentKey) ([]mutation.Batch, error)
	AllBatchesAffectingDocumentKeys(ctx context.Context, keys []path.DocumentKey) ([]mutation.Batch, error)
	AllBatchesAffectingQuery(ctx context.Context, q query.Query) ([]mutation.Batch, error)
}

// CollectionIndex resolves the parent paths known to contain a collection id.
type CollectionIndex interface {
	CollectionParents(ctx context.Context, collectionID string) ([]path.ResourcePath, error)
}

// View is the merged read surface computed by this package.
type View interface {
	GetDocument(ctx context.Context, key path.DocumentKey) (*document.Document, error)
	GetDocuments(ctx context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error)
	GetLocalViewOfDocuments(ctx context.Context, docs map[path.DocumentKey]*document.Document) (
		map[path.DocumentKey]*document.Document, error,
	)
	GetDocumentsMatchingQuery(ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion) (
		map[path.DocumentKey]*document.Document, error,
	)
}
