// Package query models structured queries over the local document view:
// target paths, collection groups, field filters and orderings.
package query

import (
	"fmt"

	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// Direction orders results ascending or descending.
type Direction uint8

const (
	// Ascending sorts smallest first.
	Ascending Direction = iota + 1
	// Descending sorts largest first.
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// OrderBy sorts documents by one field. The reserved __name__ field sorts
// by document key.
type OrderBy struct {
	field     path.FieldPath
	direction Direction
}

// NewOrderBy creates an ordering on field.
func NewOrderBy(field path.FieldPath, direction Direction) OrderBy {
	return OrderBy{field: field, direction: direction}
}

// Field returns the ordered field path.
func (o OrderBy) Field() path.FieldPath { return o.field }

// Direction returns the sort direction.
func (o OrderBy) Direction() Direction { return o.direction }

// Compare orders two documents by this field. Both documents must carry
// the field; query matching guarantees that before a comparator runs.
func (o OrderBy) Compare(a, b *document.Document) int {
	var c int
	if o.field.IsKeyFieldPath() {
		c = a.Key().Compare(b.Key())
	} else {
		va, oka := a.Field(o.field)
		vb, okb := b.Field(o.field)
		if !oka || !okb {
			panic(fmt.Sprintf("query: order-by field %s missing from matched document", o.field))
		}
		c = value.Compare(va, vb)
	}
	if o.direction == Descending {
		return -c
	}
	return c
}

// Equal reports whether both orderings sort identically.
func (o OrderBy) Equal(other OrderBy) bool {
	return o.field.Equal(other.field) && o.direction == other.direction
}

func (o OrderBy) String() string {
	return fmt.Sprintf("%s %s", o.field, o.direction)
}
