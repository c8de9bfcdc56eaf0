package path

import (
	"fmt"
	"sort"
	"strings"

	"github.com/laminadb/lamina/internal/domain"
)

// DocumentKey uniquely identifies a document within one database. It wraps
// a resource path with an even, non-zero number of segments and is
// comparable, so it can serve directly as a map key.
type DocumentKey struct {
	name string
}

// NewDocumentKey creates a key from a resource path.
func NewDocumentKey(p ResourcePath) (DocumentKey, error) {
	if p.Len() == 0 || p.Len()%2 != 0 {
		return DocumentKey{}, fmt.Errorf("%w: %q is not a document path", domain.ErrInvalidPath, p)
	}
	return DocumentKey{name: p.String()}, nil
}

// ParseDocumentKey parses a slash-separated document path such as "rooms/1".
func ParseDocumentKey(s string) (DocumentKey, error) {
	p, err := ParseResourcePath(s)
	if err != nil {
		return DocumentKey{}, err
	}
	return NewDocumentKey(p)
}

// MustDocumentKey parses a document path and panics on error.
func MustDocumentKey(s string) DocumentKey {
	k, err := ParseDocumentKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// IsZero reports whether k is the zero key.
func (k DocumentKey) IsZero() bool { return k.name == "" }

// Path returns the key's resource path.
func (k DocumentKey) Path() ResourcePath {
	if k.name == "" {
		return ResourcePath{}
	}
	return ResourcePath{segments: strings.Split(k.name, "/")}
}

// CollectionPath returns the path of the collection containing the document.
func (k DocumentKey) CollectionPath() ResourcePath { return k.Path().PopLast() }

// CollectionID returns the id of the collection containing the document.
func (k DocumentKey) CollectionID() string {
	p := k.Path()
	return p.Segment(p.Len() - 2)
}

// DocumentID returns the final path segment.
func (k DocumentKey) DocumentID() string { return k.Path().LastSegment() }

// HasCollectionID reports whether the document sits directly inside a
// collection with the given id.
func (k DocumentKey) HasCollectionID(id string) bool { return k.CollectionID() == id }

// Compare orders keys by segment-wise path comparison.
func (k DocumentKey) Compare(other DocumentKey) int { return k.Path().Compare(other.Path()) }

// Equal reports whether two keys identify the same document.
func (k DocumentKey) Equal(other DocumentKey) bool { return k.name == other.name }

// String returns the canonical slash-separated document path.
func (k DocumentKey) String() string { return k.name }

// SortKeys sorts keys in place in canonical order and returns them.
func SortKeys(keys []DocumentKey) []DocumentKey {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}
