package mutation

import (
	"sort"
	"strings"

	"github.com/laminadb/lamina/internal/domain/path"
)

// FieldMask is the set of field paths a Patch mutation may touch. Paths
// are kept sorted and deduplicated; a mask path covers itself and every
// nested path under it.
type FieldMask struct {
	paths []path.FieldPath
}

// NewFieldMask builds a mask from the given paths, sorting and removing
// duplicates.
func NewFieldMask(paths ...path.FieldPath) FieldMask {
	sorted := append([]path.FieldPath(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	out := sorted[:0]
	for i, fp := range sorted {
		if i > 0 && fp.Equal(sorted[i-1]) {
			continue
		}
		out = append(out, fp)
	}
	return FieldMask{paths: out}
}

// Covers reports whether fp or one of its ancestors is in the mask.
func (m FieldMask) Covers(fp path.FieldPath) bool {
	for _, p := range m.paths {
		if p.IsPrefixOf(fp) {
			return true
		}
	}
	return false
}

// Paths returns the mask's sorted field paths.
func (m FieldMask) Paths() []path.FieldPath { return m.paths }

// Len returns the number of paths in the mask.
func (m FieldMask) Len() int { return len(m.paths) }

// Equal reports whether both masks hold the same paths.
func (m FieldMask) Equal(other FieldMask) bool {
	if len(m.paths) != len(other.paths) {
		return false
	}
	for i, fp := range m.paths {
		if !fp.Equal(other.paths[i]) {
			return false
		}
	}
	return true
}

func (m FieldMask) String() string {
	parts := make([]string, len(m.paths))
	for i, fp := range m.paths {
		parts[i] = fp.String()
	}
	return "FieldMask(" + strings.Join(parts, ", ") + ")"
}
