package mutationq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/laminadb/lamina/internal/db"
	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// DefaultKeyPrefix namespaces every queue key in the shared database.
const DefaultKeyPrefix = "lamina:"

// store is the consumer interface for the redis queue (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Incr(ctx context.Context, key string) (int64, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRangeByScore(ctx context.Context, key, min, max string, offset, count int64) ([]string, error)
	ZRangeByScoreMulti(ctx context.Context, keys []string, min, max string) ([][]string, error)
}

// Repo is the redis-backed queue: one hash per batch, a sorted set of all
// batch ids, and per-document and per-collection id indexes so affecting
// lookups are range scans.
type Repo struct {
	store  store
	prefix string
}

// New creates a redis mutation queue repository.
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

func (r *Repo) counterKey() string { return r.prefix + "mq:next_id" }
func (r *Repo) idsKey() string     { return r.prefix + "mq:ids" }
func (r *Repo) batchKey(id int64) string {
	return r.prefix + "mq:batch:" + strconv.FormatInt(id, 10)
}
func (r *Repo) docIndexKey(key path.DocumentKey) string {
	return r.prefix + "mq:doc:" + key.String()
}
func (r *Repo) collectionIndexKey(collection path.ResourcePath) string {
	return r.prefix + "mq:coll:" + collection.String()
}

// NextBatchID returns the id the next AddBatch will use.
func (r *Repo) NextBatchID(ctx context.Context) (int64, error) {
	highest, err := r.HighestBatchID(ctx)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// HighestBatchID returns the largest id ever assigned, 0 when none.
func (r *Repo) HighestBatchID(ctx context.Context) (int64, error) {
	raw, err := r.store.Get(ctx, r.counterKey())
	if errors.Is(err, db.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read batch counter: %w", err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("read batch counter: bad value %q", raw)
	}
	return id, nil
}

// AddBatch stores a new batch under the next ascending id and indexes it
// by every affected document and collection.
func (r *Repo) AddBatch(
	ctx context.Context, localWriteTime time.Time, baseMutations, mutations []mutation.Mutation,
) (mutation.Batch, error) {
	if len(mutations) == 0 {
		return mutation.Batch{}, domain.ErrEmptyBatch
	}

	id, err := r.store.Incr(ctx, r.counterKey())
	if err != nil {
		return mutation.Batch{}, fmt.Errorf("allocate batch id: %w", err)
	}

	batch, err := mutation.NewBatch(id, localWriteTime, baseMutations, mutations)
	if err != nil {
		return mutation.Batch{}, err
	}
	fields, err := encodeBatchFields(batch)
	if err != nil {
		return mutation.Batch{}, err
	}
	if err := r.store.HSet(ctx, r.batchKey(id), fields); err != nil {
		return mutation.Batch{}, fmt.Errorf("store batch %d: %w", id, err)
	}

	member := strconv.FormatInt(id, 10)
	score := float64(id)
	if err := r.store.ZAdd(ctx, r.idsKey(), member, score); err != nil {
		return mutation.Batch{}, fmt.Errorf("index batch %d: %w", id, err)
	}
	for key := range batch.Keys() {
		if err := r.store.ZAdd(ctx, r.docIndexKey(key), member, score); err != nil {
			return mutation.Batch{}, fmt.Errorf("index batch %d by %s: %w", id, key, err)
		}
		if err := r.store.ZAdd(ctx, r.collectionIndexKey(key.CollectionPath()), member, score); err != nil {
			return mutation.Batch{}, fmt.Errorf("index batch %d by %s: %w", id, key.CollectionPath(), err)
		}
	}
	return batch, nil
}

// LookupBatch returns the batch with the given id.
func (r *Repo) LookupBatch(ctx context.Context, id int64) (mutation.Batch, bool, error) {
	fields, err := r.store.HGetAll(ctx, r.batchKey(id))
	if err != nil {
		return mutation.Batch{}, false, fmt.Errorf("lookup batch %d: %w", id, err)
	}
	if len(fields) == 0 {
		return mutation.Batch{}, false, nil
	}
	batch, err := decodeBatchFields(id, fields)
	if err != nil {
		return mutation.Batch{}, false, err
	}
	return batch, true, nil
}

// NextBatchAfter returns the first batch with id strictly greater than id.
func (r *Repo) NextBatchAfter(ctx context.Context, id int64) (mutation.Batch, bool, error) {
	min := "(" + strconv.FormatInt(id, 10)
	members, err := r.store.ZRangeByScore(ctx, r.idsKey(), min, "+inf", 0, 1)
	if err != nil {
		return mutation.Batch{}, false, fmt.Errorf("scan batches after %d: %w", id, err)
	}
	if len(members) == 0 {
		return mutation.Batch{}, false, nil
	}
	next, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return mutation.Batch{}, false, fmt.Errorf("scan batches after %d: bad id %q", id, members[0])
	}
	return r.LookupBatch(ctx, next)
}

// AllBatches returns every queued batch in ascending id order.
func (r *Repo) AllBatches(ctx context.Context) ([]mutation.Batch, error) {
	members, err := r.store.ZRangeByScore(ctx, r.idsKey(), "-inf", "+inf", 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan batches: %w", err)
	}
	return r.fetchBatches(ctx, members)
}

// AllBatchesAffectingDocumentKey returns the batches with a mutation
// targeting key, ascending.
func (r *Repo) AllBatchesAffectingDocumentKey(ctx context.Context, key path.DocumentKey) ([]mutation.Batch, error) {
	members, err := r.store.ZRangeByScore(ctx, r.docIndexKey(key), "-inf", "+inf", 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan batches for %s: %w", key, err)
	}
	return r.fetchBatches(ctx, members)
}

// AllBatchesAffectingDocumentKeys returns the deduplicated union of
// batches affecting any of the keys, ascending.
func (r *Repo) AllBatchesAffectingDocumentKeys(
	ctx context.Context, keys []path.DocumentKey,
) ([]mutation.Batch, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	indexKeys := make([]string, len(keys))
	for i, key := range keys {
		indexKeys[i] = r.docIndexKey(key)
	}
	results, err := r.store.ZRangeByScoreMulti(ctx, indexKeys, "-inf", "+inf")
	if err != nil {
		return nil, fmt.Errorf("scan batches for keys: %w", err)
	}

	seen := make(map[string]struct{})
	var members []string
	for _, result := range results {
		for _, member := range result {
			if _, ok := seen[member]; !ok {
				seen[member] = struct{}{}
				members = append(members, member)
			}
		}
	}
	sortMembers(members)
	return r.fetchBatches(ctx, members)
}

// AllBatchesAffectingQuery returns the batches with a mutation directly
// inside the query's collection, ascending.
func (r *Repo) AllBatchesAffectingQuery(ctx context.Context, q query.Query) ([]mutation.Batch, error) {
	if err := validateQueueQuery(q); err != nil {
		return nil, err
	}

	members, err := r.store.ZRangeByScore(ctx, r.collectionIndexKey(q.Path()), "-inf", "+inf", 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan batches for %s: %w", q.Path(), err)
	}
	return r.fetchBatches(ctx, members)
}

// RemoveBatch drops the oldest batch, which must have the given id, and
// clears its index entries.
func (r *Repo) RemoveBatch(ctx context.Context, id int64) error {
	batch, found, err := r.LookupBatch(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("batch %d: %w", id, domain.ErrBatchNotFound)
	}

	oldest, err := r.store.ZRangeByScore(ctx, r.idsKey(), "-inf", "+inf", 0, 1)
	if err != nil {
		return fmt.Errorf("scan batches: %w", err)
	}
	if len(oldest) > 0 && oldest[0] != strconv.FormatInt(id, 10) {
		return fmt.Errorf("batch %d: oldest is %s: %w", id, oldest[0], domain.ErrBatchOrder)
	}

	member := strconv.FormatInt(id, 10)
	if err := r.store.Del(ctx, r.batchKey(id)); err != nil {
		return fmt.Errorf("remove batch %d: %w", id, err)
	}
	if err := r.store.ZRem(ctx, r.idsKey(), member); err != nil {
		return fmt.Errorf("unindex batch %d: %w", id, err)
	}
	for key := range batch.Keys() {
		if err := r.store.ZRem(ctx, r.docIndexKey(key), member); err != nil {
			return fmt.Errorf("unindex batch %d by %s: %w", id, key, err)
		}
		if err := r.store.ZRem(ctx, r.collectionIndexKey(key.CollectionPath()), member); err != nil {
			return fmt.Errorf("unindex batch %d by %s: %w", id, key.CollectionPath(), err)
		}
	}
	return nil
}

// fetchBatches resolves a list of id members to decoded batches in one
// round trip, preserving order.
func (r *Repo) fetchBatches(ctx context.Context, members []string) ([]mutation.Batch, error) {
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(members))
	hashKeys := make([]string, len(members))
	for i, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fetch batches: bad id %q", member)
		}
		ids[i] = id
		hashKeys[i] = r.batchKey(id)
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch batches: %w", err)
	}

	out := make([]mutation.Batch, 0, len(ids))
	for i, fields := range fieldMaps {
		// An index entry can outlive its hash for the moment between the
		// two writes of a concurrent removal; skip the hole.
		if len(fields) == 0 {
			continue
		}
		batch, err := decodeBatchFields(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, batch)
	}
	return out, nil
}

func sortMembers(members []string) {
	sort.Slice(members, func(i, j int) bool {
		a, _ := strconv.ParseInt(members[i], 10, 64)
		b, _ := strconv.ParseInt(members[j], 10, 64)
		return a < b
	})
}
