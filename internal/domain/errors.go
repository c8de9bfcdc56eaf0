package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath signals a malformed resource or field path.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidQuery signals a query the local view cannot serve.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyBatch signals a mutation batch with no mutations.
	ErrEmptyBatch = errors.New("empty mutation batch")
	// ErrBatchNotFound signals a lookup for a batch id that is not queued.
	ErrBatchNotFound = errors.New("mutation batch not found")
	// ErrBatchOrder signals a batch removal that violates queue order.
	ErrBatchOrder = errors.New("mutation batch removed out of order")
	// ErrInvalidValue signals a value outside the supported type categories.
	ErrInvalidValue = errors.New("invalid value")
)

// InvalidQueryError wraps ErrInvalidQuery with the offending query description.
type InvalidQueryError struct {
	Query  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidQuery.Error(), e.Query, e.Reason)
}

func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

// NewInvalidQuery creates an invalid query error.
func NewInvalidQuery(query, reason string) error {
	return &InvalidQueryError{Query: query, Reason: reason}
}
