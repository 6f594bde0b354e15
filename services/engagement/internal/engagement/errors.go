// Package engagement implements reactions, comment threading, moderation and
// the global engagement rollup on top of the store package.
package engagement

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when an operation needs an actor and
	// none (or a disallowed anonymous one) was supplied.
	ErrUnauthenticated = errors.New("engagement: unauthenticated")
	ErrNotFound        = errors.New("engagement: not found")

	ErrEmptyContent   = errors.New("content must not be empty")
	ErrMissingAuthor  = errors.New("author name is required")
	ErrInvalidStatus  = errors.New("unknown moderation status")
	ErrMissingSubject = errors.New("subject id is required")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// StorageError wraps a persistence failure. Callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("engagement: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
