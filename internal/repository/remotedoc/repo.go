package remotedoc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// DefaultKeyPrefix namespaces every cache key in the shared database.
const DefaultKeyPrefix = "lamina:"

// store is the consumer interface for the redis cache (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRangeByScore(ctx context.Context, key, min, max string, offset, count int64) ([]string, error)
}

// Repo is the redis-backed cache: one hash per document plus a
// per-collection sorted set scored by read-time micros, so GetMatching is
// a single range scan.
type Repo struct {
	store  store
	prefix string
}

// New creates a redis document cache repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: DefaultKeyPrefix}
}

// WithKeyPrefix overrides the key namespace.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

func (r *Repo) docKey(key path.DocumentKey) string {
	return r.prefix + "doc:" + key.String()
}

func (r *Repo) collectionKey(collection path.ResourcePath) string {
	return r.prefix + "cidx:" + collection.String()
}

// Get returns the cached document for key, invalid when absent.
func (r *Repo) Get(ctx context.Context, key path.DocumentKey) (*document.Document, error) {
	fields, err := r.store.HGetAll(ctx, r.docKey(key))
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}
	return decodeDocFields(key, fields)
}

// GetAll returns an entry for every requested key in one round trip.
func (r *Repo) GetAll(ctx context.Context, keys []path.DocumentKey) (map[path.DocumentKey]*document.Document, error) {
	hashKeys := make([]string, len(keys))
	for i, key := range keys {
		hashKeys[i] = r.docKey(key)
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	out := make(map[path.DocumentKey]*document.Document, len(keys))
	for i, key := range keys {
		doc, err := decodeDocFields(key, fieldMaps[i])
		if err != nil {
			return nil, err
		}
		out[key] = doc
	}
	return out, nil
}

// GetMatching scans the collection's read-time index for documents
// confirmed strictly after sinceReadTime.
func (r *Repo) GetMatching(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	if err := validateMatchingQuery(q); err != nil {
		return nil, err
	}

	min := "(" + strconv.FormatInt(sinceReadTime.Micros(), 10)
	members, err := r.store.ZRangeByScore(ctx, r.collectionKey(q.Path()), min, "+inf", 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
	}
	if len(members) == 0 {
		return map[path.DocumentKey]*document.Document{}, nil
	}

	keys := make([]path.DocumentKey, 0, len(members))
	for _, member := range members {
		key, err := path.ParseDocumentKey(member)
		if err != nil {
			return nil, fmt.Errorf("scan collection %s: %w", q.Path(), err)
		}
		keys = append(keys, key)
	}

	docs, err := r.GetAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[path.DocumentKey]*document.Document, len(docs))
	for key, doc := range docs {
		if doc.IsFound() {
			out[key] = doc
		}
	}
	return out, nil
}

// Add upserts doc at readTime and refreshes its read-time index entry.
func (r *Repo) Add(ctx context.Context, doc *document.Document, readTime domain.SnapshotVersion) error {
	if err := validateAdd(doc, readTime); err != nil {
		return err
	}

	fields, err := encodeDocFields(doc, readTime)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.docKey(doc.Key()), fields); err != nil {
		return fmt.Errorf("add document %s: %w", doc.Key(), err)
	}

	collection := r.collectionKey(doc.Key().CollectionPath())
	if err := r.store.ZAdd(ctx, collection, doc.Key().String(), float64(readTime.Micros())); err != nil {
		return fmt.Errorf("index document %s: %w", doc.Key(), err)
	}
	return nil
}

// Remove drops the document hash and its index entry.
func (r *Repo) Remove(ctx context.Context, key path.DocumentKey) error {
	if err := r.store.Del(ctx, r.docKey(key)); err != nil {
		return fmt.Errorf("remove document %s: %w", key, err)
	}
	if err := r.store.ZRem(ctx, r.collectionKey(key.CollectionPath()), key.String()); err != nil {
		return fmt.Errorf("unindex document %s: %w", key, err)
	}
	return nil
}
