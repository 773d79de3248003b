package recordgen

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("recordgen: entity not found")

	// ErrDetached is returned when an entity that is not bound to a store
	// is saved.
	ErrDetached = errors.New("recordgen: entity is not bound to a store")

	// ErrUnknownField is returned when a scope names a field the entity
	// type does not have.
	ErrUnknownField = errors.New("recordgen: unknown field")
)

// NotFoundError is returned by Find when no stored entity has the key.
type NotFoundError struct {
	// Entity is the descriptor name, as in "User".
	Entity string
	// ID is the key that was looked up. Nil for lookups by scope.
	ID any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("recordgen: %s not found", e.Entity)
	}
	return fmt.Sprintf("recordgen: %s %v not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError returns the error of a failed lookup of id.
func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// FlushError reports a flush whose transaction was rolled back because
// writing one entity failed. No entity of the flush is persisted.
type FlushError struct {
	// Entity is the descriptor name of the entity whose write failed.
	Entity string
	// Err is the write error.
	Err error
	// Rollback is the error of the rollback itself, if any.
	Rollback error
}

func (e *FlushError) Error() string {
	if e.Rollback != nil {
		return fmt.Sprintf("recordgen: flush %s: %v (rollback: %v)", e.Entity, e.Err, e.Rollback)
	}
	return fmt.Sprintf("recordgen: flush %s: %v", e.Entity, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }
