// Package path provides the slash-separated resource paths and dot-separated
// field paths that identify documents and fields within one database.
package path

import (
	"fmt"
	"strings"

	"github.com/laminadb/lamina/internal/domain"
)

// ResourcePath is an immutable slash-separated path of segments addressing
// a collection or document. The empty path is the database root.
type ResourcePath struct {
	segments []string
}

// NewResourcePath creates a path from segments. Segments must be non-empty
// and must not contain '/'.
func NewResourcePath(segments ...string) (ResourcePath, error) {
	for _, s := range segments {
		if s == "" {
			return ResourcePath{}, fmt.Errorf("%w: empty segment", domain.ErrInvalidPath)
		}
		if strings.Contains(s, "/") {
			return ResourcePath{}, fmt.Errorf("%w: segment %q contains '/'", domain.ErrInvalidPath, s)
		}
	}
	return ResourcePath{segments: append([]string(nil), segments...)}, nil
}

// ParseResourcePath parses a slash-separated path. The empty string is the
// root path. Leading, trailing and doubled slashes are rejected.
func ParseResourcePath(s string) (ResourcePath, error) {
	if s == "" {
		return ResourcePath{}, nil
	}
	return NewResourcePath(strings.Split(s, "/")...)
}

// MustResourcePath parses a path and panics on error. For statically known
// paths only.
func MustResourcePath(s string) ResourcePath {
	p, err := ParseResourcePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of segments.
func (p ResourcePath) Len() int { return len(p.segments) }

// IsEmpty reports whether p is the root path.
func (p ResourcePath) IsEmpty() bool { return len(p.segments) == 0 }

// Segment returns the i-th segment.
func (p ResourcePath) Segment(i int) string { return p.segments[i] }

// LastSegment returns the final segment. Panics on the root path.
func (p ResourcePath) LastSegment() string { return p.segments[len(p.segments)-1] }

// Segments returns a copy of the segment list.
func (p ResourcePath) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Append returns a new path with the segments appended.
func (p ResourcePath) Append(segments ...string) ResourcePath {
	out := make([]string, 0, len(p.segments)+len(segments))
	out = append(out, p.segments...)
	out = append(out, segments...)
	return ResourcePath{segments: out}
}

// Child returns a new path with one segment appended.
func (p ResourcePath) Child(segment string) ResourcePath {
	return p.Append(segment)
}

// PopLast returns the path without its final segment. Panics on the root
// path.
func (p ResourcePath) PopLast() ResourcePath {
	if len(p.segments) == 0 {
		panic("path: PopLast on root path")
	}
	return ResourcePath{segments: p.segments[:len(p.segments)-1]}
}

// PopFirst returns the path without its first n segments.
func (p ResourcePath) PopFirst(n int) ResourcePath {
	if n > len(p.segments) {
		panic(fmt.Sprintf("path: PopFirst(%d) on path of %d segments", n, len(p.segments)))
	}
	return ResourcePath{segments: p.segments[n:]}
}

// IsPrefixOf reports whether every segment of p matches the start of other.
// A path is a prefix of itself.
func (p ResourcePath) IsPrefixOf(other ResourcePath) bool {
	if len(p.segments) > len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// IsImmediateParentOf reports whether other is exactly one segment below p.
func (p ResourcePath) IsImmediateParentOf(other ResourcePath) bool {
	return len(p.segments)+1 == len(other.segments) && p.IsPrefixOf(other)
}

// Compare orders paths segment-wise, shorter common prefix first.
func (p ResourcePath) Compare(other ResourcePath) int {
	n := min(len(p.segments), len(other.segments))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p.segments[i], other.segments[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p.segments) < len(other.segments):
		return -1
	case len(p.segments) > len(other.segments):
		return +1
	}
	return 0
}

// Equal reports segment-wise equality.
func (p ResourcePath) Equal(other ResourcePath) bool { return p.Compare(other) == 0 }

// String returns the canonical slash-separated form.
func (p ResourcePath) String() string { return strings.Join(p.segments, "/") }
