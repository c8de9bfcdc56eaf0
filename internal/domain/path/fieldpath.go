package path

import (
	"fmt"
	"strings"

	"github.com/laminadb/lamina/internal/domain"
)

// KeyFieldName is the reserved field name addressing the document key in
// filters and order-bys.
const KeyFieldName = "__name__"

// FieldPath is an immutable dot-separated path of field names addressing
// into a document's value tree.
type FieldPath struct {
	segments []string
}

// NewFieldPath creates a field path from raw (unescaped) segments.
func NewFieldPath(segments ...string) (FieldPath, error) {
	if len(segments) == 0 {
		return FieldPath{}, fmt.Errorf("%w: empty field path", domain.ErrInvalidPath)
	}
	for _, s := range segments {
		if s == "" {
			return FieldPath{}, fmt.Errorf("%w: empty field path segment", domain.ErrInvalidPath)
		}
	}
	return FieldPath{segments: append([]string(nil), segments...)}, nil
}

// ParseFieldPath parses the canonical dot-separated form. Segments that are
// not simple identifiers are backtick-quoted, with '\' escaping inside the
// quotes ("foo.`odd.field`.bar").
func ParseFieldPath(s string) (FieldPath, error) {
	if s == "" {
		return FieldPath{}, fmt.Errorf("%w: empty field path", domain.ErrInvalidPath)
	}
	var segments []string
	var b strings.Builder
	inBackticks := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			if !inBackticks || i+1 >= len(s) {
				return FieldPath{}, fmt.Errorf("%w: stray escape in field path %q", domain.ErrInvalidPath, s)
			}
			i++
			b.WriteByte(s[i])
		case c == '`':
			inBackticks = !inBackticks
		case c == '.' && !inBackticks:
			if b.Len() == 0 {
				return FieldPath{}, fmt.Errorf("%w: empty segment in field path %q", domain.ErrInvalidPath, s)
			}
			segments = append(segments, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if inBackticks {
		return FieldPath{}, fmt.Errorf("%w: unterminated quote in field path %q", domain.ErrInvalidPath, s)
	}
	if b.Len() == 0 {
		return FieldPath{}, fmt.Errorf("%w: empty segment in field path %q", domain.ErrInvalidPath, s)
	}
	return FieldPath{segments: append(segments, b.String())}, nil
}

// MustFieldPath parses a field path and panics on error.
func MustFieldPath(s string) FieldPath {
	fp, err := ParseFieldPath(s)
	if err != nil {
		panic(err)
	}
	return fp
}

// KeyFieldPath returns the reserved path addressing the document key.
func KeyFieldPath() FieldPath {
	return FieldPath{segments: []string{KeyFieldName}}
}

// IsKeyFieldPath reports whether fp addresses the document key.
func (fp FieldPath) IsKeyFieldPath() bool {
	return len(fp.segments) == 1 && fp.segments[0] == KeyFieldName
}

// IsZero reports whether fp is the zero field path.
func (fp FieldPath) IsZero() bool { return len(fp.segments) == 0 }

// Len returns the number of segments.
func (fp FieldPath) Len() int { return len(fp.segments) }

// Segment returns the i-th segment.
func (fp FieldPath) Segment(i int) string { return fp.segments[i] }

// First returns the first segment.
func (fp FieldPath) First() string { return fp.segments[0] }

// PopFirst returns the path without its first segment.
func (fp FieldPath) PopFirst() FieldPath {
	return FieldPath{segments: fp.segments[1:]}
}

// IsPrefixOf reports whether every segment of fp matches the start of
// other. A path is a prefix of itself.
func (fp FieldPath) IsPrefixOf(other FieldPath) bool {
	if len(fp.segments) > len(other.segments) {
		return false
	}
	for i, s := range fp.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// Compare orders field paths segment-wise, shorter common prefix first.
func (fp FieldPath) Compare(other FieldPath) int {
	n := min(len(fp.segments), len(other.segments))
	for i := 0; i < n; i++ {
		if c := strings.Compare(fp.segments[i], other.segments[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(fp.segments) < len(other.segments):
		return -1
	case len(fp.segments) > len(other.segments):
		return +1
	}
	return 0
}

// Equal reports segment-wise equality.
func (fp FieldPath) Equal(other FieldPath) bool { return fp.Compare(other) == 0 }

// String returns the canonical dot-separated form with non-identifier
// segments backtick-quoted.
func (fp FieldPath) String() string {
	parts := make([]string, len(fp.segments))
	for i, s := range fp.segments {
		parts[i] = escapeSegment(s)
	}
	return strings.Join(parts, ".")
}

func escapeSegment(s string) string {
	if isSimpleIdentifier(s) {
		return s
	}
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "`", "\\`")
	return "`" + escaped + "`"
}

func isSimpleIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
