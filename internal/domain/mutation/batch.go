package mutation

import (
	"fmt"
	"time"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
)

// Batch is an atomic group of mutations written together. Batch ids are
// assigned in ascending order and define the total order of application.
// Base mutations record pre-transform field values; applying them before
// the batch's own mutations keeps transform replay idempotent across view
// computations.
type Batch struct {
	id             int64
	localWriteTime time.Time
	baseMutations  []Mutation
	mutations      []Mutation
}

// NewBatch validates and creates a batch. The mutation list must not be
// empty; base mutations may be.
func NewBatch(id int64, localWriteTime time.Time, baseMutations, mutations []Mutation) (Batch, error) {
	if len(mutations) == 0 {
		return Batch{}, fmt.Errorf("batch %d: %w", id, domain.ErrEmptyBatch)
	}
	return ReconstructBatch(id, localWriteTime, baseMutations, mutations), nil
}

// ReconstructBatch creates a batch without validation (storage hydration).
func ReconstructBatch(id int64, localWriteTime time.Time, baseMutations, mutations []Mutation) Batch {
	return Batch{
		id:             id,
		localWriteTime: localWriteTime.UTC().Truncate(time.Microsecond),
		baseMutations:  baseMutations,
		mutations:      mutations,
	}
}

// ID returns the batch id.
func (b Batch) ID() int64 { return b.id }

// LocalWriteTime returns the timestamp stamped on all contained
// transforms.
func (b Batch) LocalWriteTime() time.Time { return b.localWriteTime }

// BaseMutations returns the recorded pre-transform states.
func (b Batch) BaseMutations() []Mutation { return b.baseMutations }

// Mutations returns the user mutations in application order.
func (b Batch) Mutations() []Mutation { return b.mutations }

// IsZero reports whether b is the zero batch.
func (b Batch) IsZero() bool { return b.id == 0 && b.mutations == nil }

// ApplyToLocalView transforms doc in place: first every base mutation
// targeting doc's key, then every user mutation targeting it, in order.
func (b Batch) ApplyToLocalView(doc *document.Document) {
	for _, m := range b.baseMutations {
		if m.Key().Equal(doc.Key()) {
			m.ApplyToLocalView(doc, b.localWriteTime)
		}
	}
	for _, m := range b.mutations {
		if m.Key().Equal(doc.Key()) {
			m.ApplyToLocalView(doc, b.localWriteTime)
		}
	}
}

// Keys returns the set of document keys the batch's user mutations touch.
func (b Batch) Keys() map[path.DocumentKey]struct{} {
	keys := make(map[path.DocumentKey]struct{}, len(b.mutations))
	for _, m := range b.mutations {
		keys[m.Key()] = struct{}{}
	}
	return keys
}

// AffectsKey reports whether any user mutation in the batch targets key.
func (b Batch) AffectsKey(key path.DocumentKey) bool {
	for _, m := range b.mutations {
		if m.Key().Equal(key) {
			return true
		}
	}
	return false
}

// Equal reports whether both batches carry the same id, write time and
// mutation sequences.
func (b Batch) Equal(other Batch) bool {
	if b.id != other.id || !b.localWriteTime.Equal(other.localWriteTime) {
		return false
	}
	if len(b.baseMutations) != len(other.baseMutations) || len(b.mutations) != len(other.mutations) {
		return false
	}
	for i, m := range b.baseMutations {
		if !m.Equal(other.baseMutations[i]) {
			return false
		}
	}
	for i, m := range b.mutations {
		if !m.Equal(other.mutations[i]) {
			return false
		}
	}
	return true
}

func (b Batch) String() string {
	return fmt.Sprintf("Batch(id=%d, mutations=%d, baseMutations=%d)",
		b.id, len(b.mutations), len(b.baseMutations))
}
