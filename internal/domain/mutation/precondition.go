// Package mutation models pending local writes: preconditions, field
// transforms, the four mutation kinds and the batches that group them.
package mutation

import (
	"fmt"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
)

type preconditionKind uint8

const (
	preconditionNone preconditionKind = iota
	preconditionExists
	preconditionUpdateTime
)

// Precondition gates a mutation on the state of the base document. A
// mutation whose precondition does not hold is skipped.
type Precondition struct {
	kind       preconditionKind
	exists     bool
	updateTime domain.SnapshotVersion
}

// PreconditionNone holds for every document.
func PreconditionNone() Precondition {
	return Precondition{kind: preconditionNone}
}

// PreconditionExists holds when the document's existence matches exists.
func PreconditionExists(exists bool) Precondition {
	return Precondition{kind: preconditionExists, exists: exists}
}

// PreconditionUpdateTime holds when the document exists at exactly the
// given version.
func PreconditionUpdateTime(updateTime domain.SnapshotVersion) Precondition {
	return Precondition{kind: preconditionUpdateTime, updateTime: updateTime}
}

// IsNone reports whether p holds unconditionally.
func (p Precondition) IsNone() bool { return p.kind == preconditionNone }

// IsValidFor reports whether the mutation guarded by p applies to doc.
func (p Precondition) IsValidFor(doc *document.Document) bool {
	switch p.kind {
	case preconditionExists:
		return p.exists == doc.IsFound()
	case preconditionUpdateTime:
		return doc.IsFound() && doc.Version().Equal(p.updateTime)
	default:
		return true
	}
}

// Equal reports whether two preconditions gate identically.
func (p Precondition) Equal(other Precondition) bool {
	if p.kind != other.kind {
		return false
	}
	switch p.kind {
	case preconditionExists:
		return p.exists == other.exists
	case preconditionUpdateTime:
		return p.updateTime.Equal(other.updateTime)
	default:
		return true
	}
}

func (p Precondition) String() string {
	switch p.kind {
	case preconditionExists:
		return fmt.Sprintf("Precondition(exists=%v)", p.exists)
	case preconditionUpdateTime:
		return fmt.Sprintf("Precondition(updateTime=%s)", p.updateTime)
	default:
		return "Precondition(none)"
	}
}
