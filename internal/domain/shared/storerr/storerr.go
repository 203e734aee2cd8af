// Package storerr is the typed error vocabulary of the storage boundary.
// Stores translate driver errors (SQLSTATE codes) into these variants so
// upper layers classify failures by structured matching, never by
// parsing driver messages.
package storerr

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("storage: record not found")

// RangeExclusionError signals the storage-level range-exclusion
// constraint rejected an overlapping interval for the given scope.
type RangeExclusionError struct {
	Scope string
}

func (e *RangeExclusionError) Error() string {
	return fmt.Sprintf("storage: range exclusion violated for scope %s", e.Scope)
}

// ForeignKeyError signals a referential check failed, e.g. a booking
// pointing at a guest that does not exist.
type ForeignKeyError struct {
	Constraint string
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("storage: foreign key violated (%s)", e.Constraint)
}

// DuplicateError signals a unique constraint rejected the write.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("storage: duplicate key (%s)", e.Constraint)
}

// TransientError marks a failure the caller may retry: serialization
// aborts, deadlocks, lock timeouts, cancelled statements.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("storage: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
