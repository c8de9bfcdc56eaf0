package collindex

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/laminadb/lamina/internal/db/sqlite"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/testutil"
)

// parentIndex is the shared contract both implementations satisfy.
type parentIndex interface {
	AddToCollectionParentIndex(ctx context.Context, collectionPath path.ResourcePath) error
	CollectionParents(ctx context.Context, collectionID string) ([]path.ResourcePath, error)
}

// fakeSetStore backs the redis repo in tests.
type fakeSetStore struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func (f *fakeSetStore) SAdd(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets == nil {
		f.sets = make(map[string]map[string]struct{})
	}
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (f *fakeSetStore) SMembers(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func implementations(t *testing.T) map[string]parentIndex {
	t.Helper()
	db, err := sqlite.Open(sqlite.Config{Path: filepath.Join(t.TempDir(), "index.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return map[string]parentIndex{
		"memory": NewMemory(),
		"redis":  New(&fakeSetStore{}),
		"sqlite": NewSQLite(db),
	}
}

func TestCollectionParents(t *testing.T) {
	for name, index := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, p := range []string{"rooms", "lobbies/1/rooms", "lobbies/2/rooms", "lobbies/1/chairs"} {
				if err := index.AddToCollectionParentIndex(ctx, testutil.Resource(p)); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			// Duplicate registration is a no-op.
			if err := index.AddToCollectionParentIndex(ctx, testutil.Resource("rooms")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			parents, err := index.CollectionParents(ctx, "rooms")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := []string{"", "lobbies/1", "lobbies/2"}
			if len(parents) != len(want) {
				t.Fatalf("parents = %v, want %v", parents, want)
			}
			for i, p := range parents {
				if p.String() != want[i] {
					t.Fatalf("parents[%d] = %q, want %q", i, p, want[i])
				}
			}

			empty, err := index.CollectionParents(ctx, "unknown")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected no parents, got %v", empty)
			}
		})
	}
}

func TestAddToCollectionParentIndex_RejectsDocumentPath(t *testing.T) {
	for name, index := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := index.AddToCollectionParentIndex(context.Background(), testutil.Resource("rooms/1")); err == nil {
				t.Fatal("expected error for even-length path")
			}
		})
	}
}
