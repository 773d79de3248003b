// Package recordgen is the runtime every generated entity builds on.
//
// A generated entity embeds Model, which carries the identifier and the
// lifecycle timestamps, and exposes a Descriptor: an explicit table of the
// accessor capabilities of each field. The package functions use that table
// for bulk construction (FromData, Fill) and for whitelist projection
// (ToObject, ToArray, ToJSON), so no method is ever looked up by name at
// run time.
//
// Persistence goes through a Store. The store shipped in dialect/sql
// implements it over database/sql:
//
//	drv, err := sql.Open("postgres", dsn)
//	if err != nil {
//	    return err
//	}
//	store := sql.NewStore(drv)
//	u := models.NewUser(store).SetName("Ann")
//	if err := u.Save(ctx); err != nil {
//	    return err
//	}
package recordgen

import (
	"context"
	"time"
)

// Entity is implemented by every generated entity type.
type Entity interface {
	Printable
	// Base returns the embedded runtime state.
	Base() *Model
	// Descriptor returns the capability table of the entity type.
	Descriptor() *Descriptor
}

// Printable is implemented by types that carry a field manifest.
type Printable interface {
	PrintableFields() Manifest
}

// Store is the persistence engine used by entities.
type Store interface {
	// Persist stages a write of e.
	Persist(ctx context.Context, e Entity) error
	// Flush commits all staged writes and assigns generated identifiers.
	Flush(ctx context.Context) error
	// Select returns the rows of the descriptor table matching the scope.
	Select(ctx context.Context, d *Descriptor, s Scope) ([]Entity, error)
	// Count returns the number of rows matching the scope.
	Count(ctx context.Context, d *Descriptor, s Scope) (int, error)
	// OriginalFieldValues returns the field values of e as of the last
	// flush, keyed by logical field name. It returns nil for entities that
	// were never flushed.
	OriginalFieldValues(e Entity) map[string]any
}

// Clock is implemented by stores that control the time used for
// lifecycle timestamps.
type Clock interface {
	Now() time.Time
}

// Now returns the time of the store clock, or the wall clock when the
// store has none.
func Now(s Store) time.Time {
	if c, ok := s.(Clock); ok {
		return c.Now()
	}
	return time.Now()
}

// Scope restricts a Select or Count.
type Scope struct {
	// IncludeArchived disables the default filter on the archival column.
	IncludeArchived bool
	// Where holds equality conditions keyed by logical field name.
	Where map[string]any
	// OrderBy holds "field" or "field:desc" terms.
	OrderBy []string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// NewScope returns the default scope (non-archived rows only) with opts
// applied.
func NewScope(opts ...ScopeOption) Scope {
	var s Scope
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithArchived includes archived rows.
func WithArchived() ScopeOption {
	return func(s *Scope) { s.IncludeArchived = true }
}

// Where adds an equality condition on a logical field.
func Where(field string, v any) ScopeOption {
	return func(s *Scope) {
		if s.Where == nil {
			s.Where = make(map[string]any)
		}
		s.Where[field] = v
	}
}

// OrderBy appends ordering terms.
func OrderBy(terms ...string) ScopeOption {
	return func(s *Scope) { s.OrderBy = append(s.OrderBy, terms...) }
}

// Limit caps the number of returned rows.
func Limit(n int) ScopeOption {
	return func(s *Scope) { s.Limit = n }
}
