package domain

import "time"

// SnapshotVersion is a logical timestamp with microsecond precision. It
// orders document versions (update times) and cache read times. The zero
// value is "no version" and sorts before every real version.
type SnapshotVersion struct {
	t time.Time
}

// VersionNone returns the zero snapshot version.
func VersionNone() SnapshotVersion { return SnapshotVersion{} }

// NewVersion creates a snapshot version from a wall-clock time, truncated
// to microsecond precision.
func NewVersion(t time.Time) SnapshotVersion {
	return SnapshotVersion{t: t.UTC().Truncate(time.Microsecond)}
}

// VersionFromMicros creates a snapshot version from microseconds since the
// Unix epoch. Zero maps to VersionNone.
func VersionFromMicros(us int64) SnapshotVersion {
	if us == 0 {
		return SnapshotVersion{}
	}
	return SnapshotVersion{t: time.UnixMicro(us).UTC()}
}

// IsNone reports whether v is the zero version.
func (v SnapshotVersion) IsNone() bool { return v.t.IsZero() }

// Time returns the underlying time. Zero for VersionNone.
func (v SnapshotVersion) Time() time.Time { return v.t }

// Micros returns microseconds since the Unix epoch, 0 for VersionNone.
func (v SnapshotVersion) Micros() int64 {
	if v.t.IsZero() {
		return 0
	}
	return v.t.UnixMicro()
}

// Compare returns -1, 0 or +1. VersionNone sorts before every real version.
func (v SnapshotVersion) Compare(o SnapshotVersion) int {
	switch {
	case v.IsNone() && o.IsNone():
		return 0
	case v.IsNone():
		return -1
	case o.IsNone():
		return +1
	}
	return v.t.Compare(o.t)
}

// Equal reports whether two versions denote the same instant.
func (v SnapshotVersion) Equal(o SnapshotVersion) bool { return v.Compare(o) == 0 }

// Before reports whether v sorts strictly before o.
func (v SnapshotVersion) Before(o SnapshotVersion) bool { return v.Compare(o) < 0 }

// After reports whether v sorts strictly after o.
func (v SnapshotVersion) After(o SnapshotVersion) bool { return v.Compare(o) > 0 }

func (v SnapshotVersion) String() string {
	if v.IsNone() {
		return "none"
	}
	return v.t.Format(time.RFC3339Nano)
}
