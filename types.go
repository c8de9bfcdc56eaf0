package lamina

import (
	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// Aliases keep the client surface in one import while the semantics live
// in the domain packages.
type (
	// Document is one document state: found, deleted, unknown or invalid.
	Document = document.Document
	// DocumentKey names a document by its full resource path.
	DocumentKey = path.DocumentKey
	// ResourcePath is a slash-separated path of segments.
	ResourcePath = path.ResourcePath
	// Mutation is one pending local write.
	Mutation = mutation.Mutation
	// FieldTransform applies a transform to a single field.
	FieldTransform = mutation.FieldTransform
	// Batch is an ordered group of mutations written together.
	Batch = mutation.Batch
	// Query addresses a document, a collection or a collection group.
	Query = query.Query
	// SnapshotVersion is a microsecond-resolution document version.
	SnapshotVersion = domain.SnapshotVersion
)

// VersionNone returns the zero snapshot version; as a read-time bound it
// excludes nothing.
func VersionNone() SnapshotVersion {
	return domain.VersionNone()
}

// VersionFromMicros builds a snapshot version from epoch microseconds.
func VersionFromMicros(us int64) SnapshotVersion {
	return domain.VersionFromMicros(us)
}

// ParseKey parses a document key from its slash-separated path.
func ParseKey(s string) (DocumentKey, error) {
	return path.ParseDocumentKey(s)
}

// NewQuery builds a query over a collection path ("rooms",
// "lobbies/1/rooms") or a single document path ("rooms/eros").
func NewQuery(p string) (Query, error) {
	rp, err := path.ParseResourcePath(p)
	if err != nil {
		return Query{}, err
	}
	return query.New(rp), nil
}

// NewCollectionGroupQuery builds a query matching a collection id under
// any parent.
func NewCollectionGroupQuery(collectionID string) Query {
	return query.NewCollectionGroup(collectionID)
}

// NewFoundDocument builds a found document for remote ingestion.
func NewFoundDocument(docPath string, versionMicros int64, data map[string]any) (*Document, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return nil, err
	}
	obj, err := toObject(data)
	if err != nil {
		return nil, err
	}
	return document.NewFound(key, domain.VersionFromMicros(versionMicros), obj), nil
}
