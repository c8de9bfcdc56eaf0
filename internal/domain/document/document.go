// Package document models one database document across its four states:
// invalid (never seen), found, deleted and unknown (acknowledged write
// whose result was never observed).
package document

import (
	"fmt"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// Type is the document's lifecycle state.
type Type uint8

const (
	// TypeInvalid marks a document with no known server or local state.
	TypeInvalid Type = iota
	// TypeFound marks a document that exists with a payload.
	TypeFound
	// TypeDeleted marks a document known not to exist.
	TypeDeleted
	// TypeUnknown marks a document whose last committed write was
	// acknowledged without its resulting state.
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeFound:
		return "found"
	case TypeDeleted:
		return "deleted"
	case TypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Document is the mutable document entity. It starts invalid, gets promoted
// by cache reads or mutation application, and may be mutated in place
// during one view computation. Stores and the view hand out independent
// clones, so callers may mutate results freely.
type Document struct {
	key                   path.DocumentKey
	docType               Type
	version               domain.SnapshotVersion
	readTime              domain.SnapshotVersion
	data                  *value.ObjectValue
	hasLocalMutations     bool
	hasCommittedMutations bool
}

// NewInvalid creates a document in the invalid state.
func NewInvalid(key path.DocumentKey) *Document {
	return &Document{key: key, docType: TypeInvalid, data: value.NewObjectValue()}
}

// NewFound creates a document that exists at version with the given map
// payload.
func NewFound(key path.DocumentKey, version domain.SnapshotVersion, data value.Value) *Document {
	return NewInvalid(key).ConvertToFound(version, data)
}

// NewDeleted creates a document known to be absent at version.
func NewDeleted(key path.DocumentKey, version domain.SnapshotVersion) *Document {
	return NewInvalid(key).ConvertToDeleted(version)
}

// NewUnknown creates a document whose state at version is unknown.
func NewUnknown(key path.DocumentKey, version domain.SnapshotVersion) *Document {
	return NewInvalid(key).ConvertToUnknown(version)
}

// ConvertToFound promotes d to a found document, replacing payload and
// version and clearing the mutation flags.
func (d *Document) ConvertToFound(version domain.SnapshotVersion, data value.Value) *Document {
	d.docType = TypeFound
	d.version = version
	d.data = value.ObjectValueFrom(data)
	d.hasLocalMutations = false
	d.hasCommittedMutations = false
	return d
}

// ConvertToDeleted marks d as known-absent at version.
func (d *Document) ConvertToDeleted(version domain.SnapshotVersion) *Document {
	d.docType = TypeDeleted
	d.version = version
	d.data = value.NewObjectValue()
	d.hasLocalMutations = false
	d.hasCommittedMutations = false
	return d
}

// ConvertToUnknown marks d as having an acknowledged but unobserved write
// at version. Unknown documents always carry committed mutations.
func (d *Document) ConvertToUnknown(version domain.SnapshotVersion) *Document {
	d.docType = TypeUnknown
	d.version = version
	d.data = value.NewObjectValue()
	d.hasLocalMutations = false
	d.hasCommittedMutations = true
	return d
}

// SetHasLocalMutations flags d as shaped by pending local writes.
func (d *Document) SetHasLocalMutations() *Document {
	d.hasLocalMutations = true
	return d
}

// SetHasCommittedMutations flags d as shaped by acknowledged writes the
// cache has not observed yet.
func (d *Document) SetHasCommittedMutations() *Document {
	d.hasCommittedMutations = true
	return d
}

// SetReadTime records when the cache last confirmed this document.
func (d *Document) SetReadTime(readTime domain.SnapshotVersion) *Document {
	d.readTime = readTime
	return d
}

// Key returns the document key.
func (d *Document) Key() path.DocumentKey { return d.key }

// Type returns the lifecycle state.
func (d *Document) Type() Type { return d.docType }

// Version returns the document version (server update time).
func (d *Document) Version() domain.SnapshotVersion { return d.version }

// ReadTime returns when the cache last confirmed this document, or
// VersionNone when it never did.
func (d *Document) ReadTime() domain.SnapshotVersion { return d.readTime }

// Data returns the mutable payload. Meaningful only for found documents.
func (d *Document) Data() *value.ObjectValue { return d.data }

// Field returns the payload value at fp.
func (d *Document) Field(fp path.FieldPath) (value.Value, bool) {
	if d.docType != TypeFound {
		return value.Value{}, false
	}
	return d.data.Get(fp)
}

// IsValid reports whether d has any known state.
func (d *Document) IsValid() bool { return d.docType != TypeInvalid }

// IsFound reports whether d exists with a payload.
func (d *Document) IsFound() bool { return d.docType == TypeFound }

// IsDeleted reports whether d is known to be absent.
func (d *Document) IsDeleted() bool { return d.docType == TypeDeleted }

// IsUnknown reports whether d's committed state was never observed.
func (d *Document) IsUnknown() bool { return d.docType == TypeUnknown }

// HasLocalMutations reports whether pending local writes shaped d.
func (d *Document) HasLocalMutations() bool { return d.hasLocalMutations }

// HasCommittedMutations reports whether acknowledged writes not yet seen
// in the cache shaped d.
func (d *Document) HasCommittedMutations() bool { return d.hasCommittedMutations }

// HasPendingWrites reports whether any kind of write is still in flight.
func (d *Document) HasPendingWrites() bool {
	return d.hasLocalMutations || d.hasCommittedMutations
}

// Clone returns a deep copy sharing no mutable state with d.
func (d *Document) Clone() *Document {
	out := *d
	out.data = d.data.Clone()
	return &out
}

// Equal compares key, state, version, payload and mutation flags. Read
// time is cache metadata and does not participate.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.key.Equal(other.key) &&
		d.docType == other.docType &&
		d.version.Equal(other.version) &&
		d.hasLocalMutations == other.hasLocalMutations &&
		d.hasCommittedMutations == other.hasCommittedMutations &&
		d.data.Equals(other.data)
}

func (d *Document) String() string {
	return fmt.Sprintf("Document(%s, %s, v=%s, data=%s, localMutations=%v, committedMutations=%v)",
		d.key, d.docType, d.version, d.data.Value(), d.hasLocalMutations, d.hasCommittedMutations)
}
