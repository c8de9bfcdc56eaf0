package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrNotFound    = errors.New("db: not found")
	ErrConflict    = errors.New("db: conflict")
	ErrUnavailable = errors.New("db: unavailable")
)

// Op constants map to Redis command names for error context.
const (
	OpDel           = "DEL"
	OpGet           = "GET"
	OpIncr          = "INCR"
	OpHGetAll       = "HGETALL"
	OpHSet          = "HSET"
	OpSAdd          = "SADD"
	OpSMembers      = "SMEMBERS"
	OpZAdd          = "ZADD"
	OpZRangeByScore = "ZRANGEBYSCORE"
	OpZRem          = "ZREM"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
