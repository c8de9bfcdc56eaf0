// Package collindex implements the collection-parent index: for every
// collection id, the set of parent paths known to contain a collection
// with that id. Collection-group queries fan out over these parents.
package collindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/path"
)

// Memory is the in-process index implementation.
type Memory struct {
	mu      sync.RWMutex
	parents map[string]map[string]struct{}
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{parents: make(map[string]map[string]struct{})}
}

// AddToCollectionParentIndex records the parent of collectionPath under
// its collection id.
func (m *Memory) AddToCollectionParentIndex(_ context.Context, collectionPath path.ResourcePath) error {
	id, parent, err := splitCollectionPath(collectionPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.parents[id]
	if !ok {
		set = make(map[string]struct{})
		m.parents[id] = set
	}
	set[parent] = struct{}{}
	return nil
}

// CollectionParents returns the sorted parent paths recorded for
// collectionID.
func (m *Memory) CollectionParents(_ context.Context, collectionID string) ([]path.ResourcePath, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return parseParents(collectionID, sortedKeys(m.parents[collectionID]))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// splitCollectionPath validates an odd-length collection path and returns
// its collection id and parent path string.
func splitCollectionPath(collectionPath path.ResourcePath) (id, parent string, err error) {
	if collectionPath.Len()%2 != 1 {
		return "", "", fmt.Errorf("%w: %q is not a collection path", domain.ErrInvalidPath, collectionPath)
	}
	return collectionPath.LastSegment(), collectionPath.PopLast().String(), nil
}

// parseParents rebuilds resource paths from their stored string form.
func parseParents(collectionID string, raw []string) ([]path.ResourcePath, error) {
	out := make([]path.ResourcePath, 0, len(raw))
	for _, s := range raw {
		p, err := path.ParseResourcePath(s)
		if err != nil {
			return nil, fmt.Errorf("parents of %s: %w", collectionID, err)
		}
		out = append(out, p)
	}
	return out, nil
}
