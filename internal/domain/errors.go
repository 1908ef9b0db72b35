package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a requested entity as absent or soft-deleted.
var ErrNotFound = errors.New("not found")

// ValidationKind names the field a ValidationError refers to.
type ValidationKind string

const (
	InvalidUsername     ValidationKind = "username"
	InvalidEmail        ValidationKind = "email"
	InvalidFirstName    ValidationKind = "firstName"
	InvalidLastName     ValidationKind = "lastName"
	InvalidPasswordHash ValidationKind = "passwordHash"
)

// ValidationError reports malformed input to a constructor or mutator, or a
// lost uniqueness race surfaced by the storage constraint. Caller-recoverable.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newValidationError(kind ValidationKind, msg string) error {
	return &ValidationError{Kind: kind, Message: msg}
}

// ConcurrencyError reports an optimistic-concurrency conflict at commit time:
// the row was modified by another scope since it was loaded.
type ConcurrencyError struct {
	Entity string
	ID     string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent update on %s %s", e.Entity, e.ID)
}

// PersistenceError wraps a storage failure (connectivity, constraint). Fatal
// for the current request, never for the process.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
