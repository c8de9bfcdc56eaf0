// Package mutationq implements the durable queue of pending local write
// batches. Batch ids ascend monotonically and are never reused; removal is
// FIFO because the sync engine acknowledges writes in order.
package mutationq

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/mutation"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
)

// Memory is the in-process queue implementation: batches kept in a slice
// sorted by ascending id.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	batches []mutation.Batch
}

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// NextBatchID returns the id the next AddBatch will use.
func (m *Memory) NextBatchID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID, nil
}

// HighestBatchID returns the largest id ever assigned, 0 when none.
func (m *Memory) HighestBatchID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID - 1, nil
}

// AddBatch appends a new batch with the next ascending id.
func (m *Memory) AddBatch(
	_ context.Context, localWriteTime time.Time, baseMutations, mutations []mutation.Mutation,
) (mutation.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, err := mutation.NewBatch(m.nextID, localWriteTime, baseMutations, mutations)
	if err != nil {
		return mutation.Batch{}, err
	}
	m.nextID++
	m.batches = append(m.batches, batch)
	return batch, nil
}

// LookupBatch returns the batch with the given id.
func (m *Memory) LookupBatch(_ context.Context, id int64) (mutation.Batch, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.indexOf(id); ok {
		return m.batches[i], true, nil
	}
	return mutation.Batch{}, false, nil
}

// NextBatchAfter returns the first batch with id strictly greater than id.
func (m *Memory) NextBatchAfter(_ context.Context, id int64) (mutation.Batch, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.batches), func(i int) bool { return m.batches[i].ID() > id })
	if i == len(m.batches) {
		return mutation.Batch{}, false, nil
	}
	return m.batches[i], true, nil
}

// AllBatches returns every queued batch in ascending id order.
func (m *Memory) AllBatches(_ context.Context) ([]mutation.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mutation.Batch(nil), m.batches...), nil
}

// AllBatchesAffectingDocumentKey returns the batches with a mutation
// targeting key, ascending.
func (m *Memory) AllBatchesAffectingDocumentKey(_ context.Context, key path.DocumentKey) ([]mutation.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []mutation.Batch
	for _, b := range m.batches {
		if b.AffectsKey(key) {
			out = append(out, b)
		}
	}
	return out, nil
}

// AllBatchesAffectingDocumentKeys returns the deduplicated union of
// batches affecting any of the keys, ascending.
func (m *Memory) AllBatchesAffectingDocumentKeys(
	_ context.Context, keys []path.DocumentKey,
) ([]mutation.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[path.DocumentKey]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}

	var out []mutation.Batch
	for _, b := range m.batches {
		for key := range b.Keys() {
			if _, ok := wanted[key]; ok {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

// AllBatchesAffectingQuery returns the batches containing a mutation whose
// key sits directly inside the query's collection, ascending.
func (m *Memory) AllBatchesAffectingQuery(_ context.Context, q query.Query) ([]mutation.Batch, error) {
	if err := validateQueueQuery(q); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []mutation.Batch
	for _, b := range m.batches {
		if batchAffectsQuery(b, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

// RemoveBatch drops the oldest batch, which must have the given id.
func (m *Memory) RemoveBatch(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indexOf(id); !ok {
		return fmt.Errorf("batch %d: %w", id, domain.ErrBatchNotFound)
	}
	if m.batches[0].ID() != id {
		return fmt.Errorf("batch %d: oldest is %d: %w", id, m.batches[0].ID(), domain.ErrBatchOrder)
	}
	m.batches = m.batches[1:]
	return nil
}

func (m *Memory) indexOf(id int64) (int, bool) {
	i := sort.Search(len(m.batches), func(i int) bool { return m.batches[i].ID() >= id })
	if i < len(m.batches) && m.batches[i].ID() == id {
		return i, true
	}
	return 0, false
}

func batchAffectsQuery(b mutation.Batch, q query.Query) bool {
	for key := range b.Keys() {
		if q.Path().IsImmediateParentOf(key.Path()) {
			return true
		}
	}
	return false
}

func validateQueueQuery(q query.Query) error {
	if q.IsCollectionGroupQuery() {
		return domain.NewInvalidQuery(q.String(), "mutation queue cannot serve collection group queries")
	}
	if q.Path().Len()%2 == 0 {
		return domain.NewInvalidQuery(q.String(), "AllBatchesAffectingQuery requires a collection path")
	}
	return nil
}
