package collindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/laminadb/lamina/internal/domain/path"
)

// DefaultKeyPrefix namespaces every index key in the shared database.
const DefaultKeyPrefix = "lamina:"

// store is the consumer interface for the redis index (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo is the redis-backed index: one set of parent paths per collection
// id. The root parent is stored as a marker member because redis rejects
// empty set members.
type Repo struct {
	store  store
	prefix string
}

const rootParentMember = "/"

// New creates a redis collection-parent index repository.
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

func (r *Repo) indexKey(collectionID string) string {
	return r.prefix + "cp:" + collectionID
}

// AddToCollectionParentIndex records the parent of collectionPath under
// its collection id.
func (r *Repo) AddToCollectionParentIndex(ctx context.Context, collectionPath path.ResourcePath) error {
	id, parent, err := splitCollectionPath(collectionPath)
	if err != nil {
		return err
	}
	member := parent
	if member == "" {
		member = rootParentMember
	}
	if err := r.store.SAdd(ctx, r.indexKey(id), member); err != nil {
		return fmt.Errorf("index collection %s: %w", collectionPath, err)
	}
	return nil
}

// CollectionParents returns the sorted parent paths recorded for
// collectionID.
func (r *Repo) CollectionParents(ctx context.Context, collectionID string) ([]path.ResourcePath, error) {
	members, err := r.store.SMembers(ctx, r.indexKey(collectionID))
	if err != nil {
		return nil, fmt.Errorf("parents of %s: %w", collectionID, err)
	}
	for i, m := range members {
		if m == rootParentMember {
			members[i] = ""
		}
	}
	sort.Strings(members)
	return parseParents(collectionID, members)
}
