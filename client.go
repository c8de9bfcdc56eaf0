package lamina

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/laminadb/lamina/internal/config"
	dbredis "github.com/laminadb/lamina/internal/db/redis"
	"github.com/laminadb/lamina/internal/db/sqlite"
	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/repository/collindex"
	"github.com/laminadb/lamina/internal/repository/mutationq"
	"github.com/laminadb/lamina/internal/repository/remotedoc"
	"github.com/laminadb/lamina/internal/usecase/localview"
)

// DocumentCache is the remote document cache surface the client drives.
type DocumentCache interface {
	localview.DocumentCache
	Add(ctx context.Context, doc *Document, readTime SnapshotVersion) error
	Remove(ctx context.Context, key DocumentKey) error
}

// MutationQueue is the mutation queue surface the client drives.
type MutationQueue interface {
	localview.MutationQueue
	AddBatch(ctx context.Context, localWriteTime time.Time, baseMutations, mutations []Mutation) (Batch, error)
	LookupBatch(ctx context.Context, id int64) (Batch, bool, error)
	NextBatchAfter(ctx context.Context, id int64) (Batch, bool, error)
	AllBatches(ctx context.Context) ([]Batch, error)
	HighestBatchID(ctx context.Context) (int64, error)
	RemoveBatch(ctx context.Context, id int64) error
}

// CollectionIndex is the collection parent index surface the client
// drives.
type CollectionIndex interface {
	localview.CollectionIndex
	AddToCollectionParentIndex(ctx context.Context, collectionPath ResourcePath) error
}

// Pinger is the backend health probe surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client is the lamina entry point: reads come from the merged local
// view, writes enqueue mutation batches, and the sync engine surface
// ingests remote state and retires batches.
type Client struct {
	view  localview.View
	cache DocumentCache
	queue MutationQueue
	index CollectionIndex

	pinger  Pinger
	closeFn func() error
}

// New wires a Client over explicitly constructed collaborators. Most
// callers should use Open.
func New(cache DocumentCache, queue MutationQueue, index CollectionIndex, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	view := localview.NewInstrumentedView(localview.New(cache, queue, index), logger)
	return &Client{
		view:  view,
		cache: cache,
		queue: queue,
		index: index,
	}
}

// Open builds a Client for the backend named by cfg.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	settings := &clientOptions{logger: zap.NewNop()}
	for _, o := range opts {
		o(settings)
	}

	switch cfg.Backend.Driver {
	case "memory":
		return New(remotedoc.NewMemory(), mutationq.NewMemory(), collindex.NewMemory(), settings.logger), nil

	case "redis":
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Backend.Addrs,
			Password: cfg.Backend.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("lamina: create redis store: %w", err)
		}
		readiness := time.Duration(cfg.Backend.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("lamina: redis not ready: %w", err)
		}

		prefix := cfg.Storage.KeyPrefix
		c := New(
			remotedoc.New(store).WithKeyPrefix(prefix),
			mutationq.New(store).WithKeyPrefix(prefix),
			collindex.New(store).WithKeyPrefix(prefix),
			settings.logger,
		)
		c.pinger = store
		c.closeFn = func() error {
			store.Close()
			return nil
		}
		return c, nil

	case "sqlite":
		db, err := sqlite.Open(sqlite.Config{Path: cfg.Backend.Path})
		if err != nil {
			return nil, fmt.Errorf("lamina: open sqlite: %w", err)
		}

		c := New(
			remotedoc.NewSQLite(db),
			mutationq.NewSQLite(db),
			collindex.NewSQLite(db),
			settings.logger,
		)
		c.pinger = db
		c.closeFn = db.Close
		return c, nil

	default:
		return nil, fmt.Errorf("lamina: unknown backend driver %q", cfg.Backend.Driver)
	}
}

// Close releases backend resources.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Ping checks backend connectivity. The in-memory backend always
// succeeds.
func (c *Client) Ping(ctx context.Context) error {
	if c.pinger == nil {
		return nil
	}
	if err := c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// BackendPinger exposes the backend health probe, nil for the in-memory
// backend.
func (c *Client) BackendPinger() Pinger {
	return c.pinger
}

// Document returns the local view of the document at docPath.
func (c *Client) Document(ctx context.Context, docPath string) (*Document, error) {
	key, err := path.ParseDocumentKey(docPath)
	if err != nil {
		return nil, err
	}
	return c.view.GetDocument(ctx, key)
}

// Documents returns the local view of every named document. The result
// covers exactly the input paths.
func (c *Client) Documents(ctx context.Context, docPaths []string) (map[DocumentKey]*Document, error) {
	keys := make([]DocumentKey, len(docPaths))
	for i, p := range docPaths {
		key, err := path.ParseDocumentKey(p)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return c.view.GetDocuments(ctx, keys)
}

// Query returns the documents currently matching q under the merged
// local view.
func (c *Client) Query(ctx context.Context, q Query, opts ...QueryOption) (map[DocumentKey]*Document, error) {
	settings := &queryOptions{since: domain.VersionNone()}
	for _, o := range opts {
		o(settings)
	}
	return c.view.GetDocumentsMatchingQuery(ctx, q, settings.since)
}

// Write enqueues mutations as one batch: assigns the next batch id,
// stamps the local write time, computes base mutations so transform
// replay stays idempotent, and records collection parents for every
// target key.
func (c *Client) Write(ctx context.Context, mutations ...Mutation) (Batch, error) {
	if len(mutations) == 0 {
		return Batch{}, domain.ErrEmptyBatch
	}

	keySet := make(map[DocumentKey]struct{}, len(mutations))
	keys := make([]DocumentKey, 0, len(mutations))
	for _, m := range mutations {
		if _, ok := keySet[m.Key()]; !ok {
			keySet[m.Key()] = struct{}{}
			keys = append(keys, m.Key())
		}
	}

	existing, err := c.view.GetDocuments(ctx, keys)
	if err != nil {
		return Batch{}, fmt.Errorf("existing documents: %w", err)
	}

	// A base mutation pins the pre-transform field values, so replaying
	// the batch over already-applied state cannot double-apply them.
	var baseMutations []Mutation
	for _, m := range mutations {
		base, ok := m.ExtractTransformBaseValue(existing[m.Key()])
		if !ok {
			continue
		}
		mask := mutation.NewFieldMask(base.FieldPaths()...)
		baseMutations = append(baseMutations,
			mutation.NewPatch(m.Key(), base.Value(), mask, mutation.PreconditionExists(true)))
	}

	batch, err := c.queue.AddBatch(ctx, time.Now().UTC(), baseMutations, mutations)
	if err != nil {
		return Batch{}, fmt.Errorf("enqueue batch: %w", err)
	}

	for _, key := range keys {
		if err := c.index.AddToCollectionParentIndex(ctx, key.CollectionPath()); err != nil {
			return Batch{}, fmt.Errorf("record collection parent: %w", err)
		}
	}
	return batch, nil
}

// ApplyRemoteDocument ingests one server document state into the cache
// with the read time it was observed at.
func (c *Client) ApplyRemoteDocument(ctx context.Context, doc *Document, readTime SnapshotVersion) error {
	if err := c.cache.Add(ctx, doc, readTime); err != nil {
		return fmt.Errorf("apply remote document: %w", err)
	}
	if err := c.index.AddToCollectionParentIndex(ctx, doc.Key().CollectionPath()); err != nil {
		return fmt.Errorf("record collection parent: %w", err)
	}
	return nil
}

// RemoveRemoteDocument drops a document from the cache.
func (c *Client) RemoveRemoteDocument(ctx context.Context, key DocumentKey) error {
	if err := c.cache.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove remote document: %w", err)
	}
	return nil
}

// AcknowledgeBatch drops a committed batch from the queue. The caller is
// expected to have ingested the server results via ApplyRemoteDocument
// first. Batches retire in FIFO order.
func (c *Client) AcknowledgeBatch(ctx context.Context, id int64) error {
	if err := c.queue.RemoveBatch(ctx, id); err != nil {
		return fmt.Errorf("acknowledge batch %d: %w", id, err)
	}
	return nil
}

// RejectBatch drops a batch the server refused. Removal semantics match
// AcknowledgeBatch; the name records intent.
func (c *Client) RejectBatch(ctx context.Context, id int64) error {
	if err := c.queue.RemoveBatch(ctx, id); err != nil {
		return fmt.Errorf("reject batch %d: %w", id, err)
	}
	return nil
}

// Batches returns every pending batch, ascending by id.
func (c *Client) Batches(ctx context.Context) ([]Batch, error) {
	return c.queue.AllBatches(ctx)
}

// CollectionParents returns the sorted parent paths known to contain the
// collection id.
func (c *Client) CollectionParents(ctx context.Context, collectionID string) ([]ResourcePath, error) {
	return c.index.CollectionParents(ctx, collectionID)
}
