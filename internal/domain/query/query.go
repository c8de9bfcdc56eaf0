package query

import (
	"fmt"
	"strings"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
)

// Query targets either a single document (even-length path), one
// collection (odd-length path) or a collection group (collection id
// matched under every parent). Queries are immutable; WithFilter and
// WithOrderBy return extended copies.
type Query struct {
	path            path.ResourcePath
	collectionGroup string
	filters         []Filter
	orderBys        []OrderBy
}

// New creates a query rooted at p.
func New(p path.ResourcePath) Query {
	return Query{path: p}
}

// NewCollectionGroup creates a root query matching collectionID under any
// parent path.
func NewCollectionGroup(collectionID string) Query {
	return Query{collectionGroup: collectionID}
}

// Path returns the query's target path.
func (q Query) Path() path.ResourcePath { return q.path }

// CollectionGroup returns the collection group id, or "" for plain
// queries.
func (q Query) CollectionGroup() string { return q.collectionGroup }

// Filters returns the filters in application order.
func (q Query) Filters() []Filter { return q.filters }

// ExplicitOrderBys returns the orderings the caller asked for.
func (q Query) ExplicitOrderBys() []OrderBy { return q.orderBys }

// IsDocumentQuery reports whether q targets exactly one document.
func (q Query) IsDocumentQuery() bool {
	return q.path.Len()%2 == 0 && q.collectionGroup == "" && len(q.filters) == 0
}

// IsCollectionGroupQuery reports whether q matches a collection id under
// any parent.
func (q Query) IsCollectionGroupQuery() bool { return q.collectionGroup != "" }

// AsCollectionQueryAtPath rebinds a collection-group query to one concrete
// parent, keeping filters and orderings.
func (q Query) AsCollectionQueryAtPath(p path.ResourcePath) Query {
	return Query{path: p, filters: q.filters, orderBys: q.orderBys}
}

// WithFilter returns q extended by f. Inequality filters must share one
// field, and when explicit orderings exist the first must sort that field.
func (q Query) WithFilter(f Filter) (Query, error) {
	if q.path.Len()%2 == 0 && q.collectionGroup == "" {
		return Query{}, domain.NewInvalidQuery(q.String(), "document queries take no filters")
	}
	if f.IsInequality() {
		if existing, ok := q.InequalityFilterField(); ok && !existing.Equal(f.Field()) {
			return Query{}, domain.NewInvalidQuery(q.String(),
				fmt.Sprintf("all inequality filters must be on field %s", existing))
		}
		if len(q.orderBys) > 0 && !q.orderBys[0].Field().Equal(f.Field()) {
			return Query{}, domain.NewInvalidQuery(q.String(),
				fmt.Sprintf("inequality filter on %s requires it as the first order-by", f.Field()))
		}
	}
	out := q
	out.filters = append(append([]Filter(nil), q.filters...), f)
	return out, nil
}

// WithOrderBy returns q extended by o. The first ordering must sort the
// inequality filter field when one exists.
func (q Query) WithOrderBy(o OrderBy) (Query, error) {
	if ineq, ok := q.InequalityFilterField(); ok && len(q.orderBys) == 0 && !ineq.Equal(o.Field()) {
		return Query{}, domain.NewInvalidQuery(q.String(),
			fmt.Sprintf("first order-by must be on the inequality filter field %s", ineq))
	}
	out := q
	out.orderBys = append(append([]OrderBy(nil), q.orderBys...), o)
	return out, nil
}

// InequalityFilterField returns the field constrained by an inequality
// filter, if any.
func (q Query) InequalityFilterField() (path.FieldPath, bool) {
	for _, f := range q.filters {
		if f.IsInequality() {
			return f.Field(), true
		}
	}
	return path.FieldPath{}, false
}

// Matches reports whether doc belongs to q's result set. Only found
// documents match.
func (q Query) Matches(doc *document.Document) bool {
	return doc.IsFound() &&
		q.matchesPathAndCollectionGroup(doc) &&
		q.matchesOrderBy(doc) &&
		q.matchesFilters(doc)
}

func (q Query) matchesPathAndCollectionGroup(doc *document.Document) bool {
	docPath := doc.Key().Path()
	if q.collectionGroup != "" {
		return doc.Key().HasCollectionID(q.collectionGroup) && q.path.IsPrefixOf(docPath)
	}
	if q.path.Len()%2 == 0 {
		return q.path.Equal(docPath)
	}
	// Collection queries match immediate children only; documents in
	// nested sub-collections stay out.
	return q.path.IsImmediateParentOf(docPath)
}

func (q Query) matchesOrderBy(doc *document.Document) bool {
	for _, o := range q.orderBys {
		if o.Field().IsKeyFieldPath() {
			continue
		}
		if _, ok := doc.Field(o.Field()); !ok {
			return false
		}
	}
	return true
}

func (q Query) matchesFilters(doc *document.Document) bool {
	for _, f := range q.filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}

// NormalizedOrderBys returns the explicit orderings completed for total
// ordering: an inequality field leads when nothing explicit is given, and
// the key ordering always closes the list.
func (q Query) NormalizedOrderBys() []OrderBy {
	out := append([]OrderBy(nil), q.orderBys...)
	if len(out) == 0 {
		if ineq, ok := q.InequalityFilterField(); ok && !ineq.IsKeyFieldPath() {
			out = append(out, NewOrderBy(ineq, Ascending))
		}
	}
	lastDirection := Ascending
	for _, o := range out {
		if o.Field().IsKeyFieldPath() {
			return out
		}
		lastDirection = o.Direction()
	}
	return append(out, NewOrderBy(path.KeyFieldPath(), lastDirection))
}

// Comparator returns the document ordering induced by NormalizedOrderBys.
func (q Query) Comparator() func(a, b *document.Document) int {
	orderBys := q.NormalizedOrderBys()
	return func(a, b *document.Document) int {
		for _, o := range orderBys {
			if c := o.Compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Equal reports whether both queries target and match identically.
func (q Query) Equal(other Query) bool {
	if !q.path.Equal(other.path) || q.collectionGroup != other.collectionGroup {
		return false
	}
	if len(q.filters) != len(other.filters) || len(q.orderBys) != len(other.orderBys) {
		return false
	}
	for i, f := range q.filters {
		if !f.Equal(other.filters[i]) {
			return false
		}
	}
	for i, o := range q.orderBys {
		if !o.Equal(other.orderBys[i]) {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString("Query(")
	b.WriteString(q.path.String())
	if q.collectionGroup != "" {
		fmt.Fprintf(&b, ", group=%s", q.collectionGroup)
	}
	for _, f := range q.filters {
		fmt.Fprintf(&b, ", where %s", f)
	}
	for _, o := range q.orderBys {
		fmt.Fprintf(&b, ", order by %s", o)
	}
	b.WriteString(")")
	return b.String()
}
