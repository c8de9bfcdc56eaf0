package query

import (
	"fmt"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/value"
)

// Operator is a field filter comparison operator.
type Operator uint8

const (
	OperatorLessThan Operator = iota + 1
	OperatorLessThanOrEqual
	OperatorEqual
	OperatorNotEqual
	OperatorGreaterThanOrEqual
	OperatorGreaterThan
	OperatorArrayContains
	OperatorIn
	OperatorArrayContainsAny
	OperatorNotIn
)

func (op Operator) String() string {
	switch op {
	case OperatorLessThan:
		return "<"
	case OperatorLessThanOrEqual:
		return "<="
	case OperatorEqual:
		return "=="
	case OperatorNotEqual:
		return "!="
	case OperatorGreaterThanOrEqual:
		return ">="
	case OperatorGreaterThan:
		return ">"
	case OperatorArrayContains:
		return "array-contains"
	case OperatorIn:
		return "in"
	case OperatorArrayContainsAny:
		return "array-contains-any"
	case OperatorNotIn:
		return "not-in"
	default:
		return "unknown"
	}
}

// IsInequality reports whether op constrains a field to a range, which
// restricts how it combines with other filters and orderings.
func (op Operator) IsInequality() bool {
	switch op {
	case OperatorLessThan, OperatorLessThanOrEqual, OperatorGreaterThan,
		OperatorGreaterThanOrEqual, OperatorNotEqual, OperatorNotIn:
		return true
	}
	return false
}

// Filter matches documents whose field relates to an operand. Filters on
// the reserved __name__ field compare document keys; their operands must
// be reference values.
type Filter struct {
	field   path.FieldPath
	op      Operator
	operand value.Value

	// Pre-parsed operand keys for __name__ filters.
	keyOperands []path.DocumentKey
}

// NewFieldFilter validates and creates a filter.
func NewFieldFilter(field path.FieldPath, op Operator, operand value.Value) (Filter, error) {
	f := Filter{field: field, op: op, operand: operand}
	if field.IsKeyFieldPath() {
		if err := f.parseKeyOperands(); err != nil {
			return Filter{}, err
		}
		return f, nil
	}
	switch op {
	case OperatorIn, OperatorNotIn, OperatorArrayContainsAny:
		if !operand.IsArray() || operand.ArrayLen() == 0 {
			return Filter{}, domain.NewInvalidQuery(f.String(),
				fmt.Sprintf("%q filters require a non-empty array operand", op))
		}
	}
	return f, nil
}

func (f *Filter) parseKeyOperands() error {
	switch f.op {
	case OperatorIn, OperatorNotIn:
		if !f.operand.IsArray() || f.operand.ArrayLen() == 0 {
			return domain.NewInvalidQuery(f.String(),
				fmt.Sprintf("%q filters on __name__ require a non-empty array operand", f.op))
		}
		f.keyOperands = make([]path.DocumentKey, 0, f.operand.ArrayLen())
		for _, e := range f.operand.ArrayValues() {
			key, err := e.ReferenceKey()
			if err != nil {
				return domain.NewInvalidQuery(f.String(),
					"__name__ filter operands must be document references")
			}
			f.keyOperands = append(f.keyOperands, key)
		}
		return nil
	case OperatorArrayContains, OperatorArrayContainsAny:
		return domain.NewInvalidQuery(f.String(),
			fmt.Sprintf("%q filters are not valid on __name__", f.op))
	default:
		key, err := f.operand.ReferenceKey()
		if err != nil {
			return domain.NewInvalidQuery(f.String(),
				"__name__ filter operands must be document references")
		}
		f.keyOperands = []path.DocumentKey{key}
		return nil
	}
}

// Field returns the filtered field path.
func (f Filter) Field() path.FieldPath { return f.field }

// Operator returns the comparison operator.
func (f Filter) Operator() Operator { return f.op }

// Operand returns the comparison operand.
func (f Filter) Operand() value.Value { return f.operand }

// IsInequality reports whether the filter constrains its field to a range.
func (f Filter) IsInequality() bool { return f.op.IsInequality() }

// Matches reports whether doc satisfies the filter. Documents missing the
// field never match.
func (f Filter) Matches(doc *document.Document) bool {
	if f.field.IsKeyFieldPath() {
		return f.matchesKey(doc.Key())
	}
	lhs, ok := doc.Field(f.field)
	if !ok {
		return false
	}
	return f.matchesValue(lhs)
}

func (f Filter) matchesKey(key path.DocumentKey) bool {
	switch f.op {
	case OperatorIn:
		return containsKey(f.keyOperands, key)
	case OperatorNotIn:
		return !containsKey(f.keyOperands, key)
	default:
		return matchesComparison(f.op, key.Compare(f.keyOperands[0]))
	}
}

func (f Filter) matchesValue(lhs value.Value) bool {
	switch f.op {
	case OperatorArrayContains:
		return lhs.IsArray() && value.Contains(lhs, f.operand)
	case OperatorIn:
		return value.Contains(f.operand, lhs)
	case OperatorArrayContainsAny:
		if !lhs.IsArray() {
			return false
		}
		for _, e := range lhs.ArrayValues() {
			if value.Contains(f.operand, e) {
				return true
			}
		}
		return false
	case OperatorNotIn:
		// A not-in operand containing null matches nothing.
		if value.Contains(f.operand, value.Null()) {
			return false
		}
		return !value.Contains(f.operand, lhs)
	default:
		// Null and NaN only match equality; other comparisons require the
		// operand and the field value to share a type category.
		if lhs.IsNull() || f.operand.IsNull() || lhs.IsNaN() || f.operand.IsNaN() {
			return f.op == OperatorEqual && value.Equals(lhs, f.operand)
		}
		return value.GetTypeOrder(lhs) == value.GetTypeOrder(f.operand) &&
			matchesComparison(f.op, value.Compare(lhs, f.operand))
	}
}

// Equal reports whether both filters match identically.
func (f Filter) Equal(other Filter) bool {
	return f.field.Equal(other.field) && f.op == other.op &&
		value.Equals(f.operand, other.operand)
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.field, f.op, f.operand)
}

func matchesComparison(op Operator, c int) bool {
	switch op {
	case OperatorLessThan:
		return c < 0
	case OperatorLessThanOrEqual:
		return c <= 0
	case OperatorEqual:
		return c == 0
	case OperatorNotEqual:
		return c != 0
	case OperatorGreaterThanOrEqual:
		return c >= 0
	case OperatorGreaterThan:
		return c > 0
	default:
		panic(fmt.Sprintf("query: operator %s is not a comparison", op))
	}
}

func containsKey(keys []path.DocumentKey, key path.DocumentKey) bool {
	for _, k := range keys {
		if k.Equal(key) {
			return true
		}
	}
	return false
}
