package value

import "time"

// Server timestamps are stored locally as sentinel map values until the
// server assigns the real write time. The sentinel keeps the local write
// time (the view's best estimate) and, when known, the field's previous
// value.
const (
	sentinelTypeKey         = "__type__"
	serverTimestampSentinel = "server_timestamp"
	localWriteTimeKey       = "__local_write_time__"
	previousValueKey        = "__previous_value__"
)

// ServerTimestamp returns the sentinel for a pending server timestamp.
// previous may be the zero Value when the field had none.
func ServerTimestamp(localWriteTime time.Time, previous Value) Value {
	entries := []MapEntry{
		{Key: sentinelTypeKey, Value: String(serverTimestampSentinel)},
		{Key: localWriteTimeKey, Value: Timestamp(localWriteTime)},
	}
	if !previous.IsZero() {
		entries = append(entries, MapEntry{Key: previousValueKey, Value: previous})
	}
	return Map(entries...)
}

// IsServerTimestamp reports whether v is a server-timestamp sentinel.
func IsServerTimestamp(v Value) bool {
	if v.kind != KindMap {
		return false
	}
	t, ok := v.MapGet(sentinelTypeKey)
	return ok && t.kind == KindString && t.s == serverTimestampSentinel
}

// LocalWriteTime returns the local write time recorded in a sentinel.
func LocalWriteTime(v Value) time.Time {
	t, ok := v.MapGet(localWriteTimeKey)
	if !ok || t.kind != KindTimestamp {
		panic("value: local write time of a non server-timestamp value")
	}
	return t.t
}

// PreviousValue returns the field value the sentinel replaced, unwrapping
// chained sentinels. The zero Value means the field had no previous value.
func PreviousValue(v Value) Value {
	prev, ok := v.MapGet(previousValueKey)
	if !ok {
		return Value{}
	}
	if IsServerTimestamp(prev) {
		return PreviousValue(prev)
	}
	return prev
}
