// Package errors holds sentinel errors shared by repositories and services.
package errors

import "errors"

var (
	// ErrConditionFailed a guarded update matched no row: the record was
	// changed by another operation after it was read.
	ErrConditionFailed = errors.New("record was modified by another operation")

	// ErrNotReversible a compensation found nothing to undo.
	ErrNotReversible = errors.New("change can no longer be reverted")

	// ErrCurrentTaken the write would make a second academic year current.
	ErrCurrentTaken = errors.New("another academic year is already current")

	// ErrDuplicate a unique key other than the single-current index was violated.
	ErrDuplicate = errors.New("record already exists")
)
