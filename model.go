package recordgen

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// TimeLayout is the layout of timestamps in projected output. Values are
// converted to UTC first.
const TimeLayout = "2006-01-02 15:04:05"

// State is the lifecycle state of an entity.
type State uint8

// Lifecycle states.
const (
	Transient State = iota // constructed, never flushed
	Persisted              // flushed at least once
	Archived               // archival timestamp set; terminal
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Persisted:
		return "persisted"
	case Archived:
		return "archived"
	default:
		return "transient"
	}
}

// Model is the state shared by every entity: the storage identifier, the
// lifecycle timestamps and the store the entity is bound to.
type Model struct {
	id         *int64
	createdAt  *time.Time
	updatedAt  *time.Time
	archivedAt *time.Time
	persisted  bool
	store      Store
}

// Base implements Entity.
func (m *Model) Base() *Model { return m }

// Bind attaches the entity to a store.
func (m *Model) Bind(s Store) { m.store = s }

// Store returns the store the entity is bound to.
func (m *Model) Store() Store { return m.store }

// GetID returns the storage identifier, or fallback when none is assigned.
func (m *Model) GetID(fallback int64) int64 {
	if m.id != nil {
		return *m.id
	}
	return fallback
}

// HasID reports whether an identifier was assigned.
func (m *Model) HasID() bool { return m.id != nil }

// AssignID sets the identifier once. It is called by stores after an
// insert and reports whether the value was taken.
func (m *Model) AssignID(id int64) bool {
	if m.id != nil {
		return false
	}
	m.id = &id
	return true
}

// GetCreatedAt returns the creation time, or fallback when unset.
func (m *Model) GetCreatedAt(fallback time.Time) time.Time {
	if m.createdAt != nil {
		return *m.createdAt
	}
	return fallback
}

// InitCreatedAt sets the creation time if it is unset.
func (m *Model) InitCreatedAt(t time.Time) *Model {
	if m.createdAt == nil {
		m.createdAt = &t
	}
	return m
}

// GetUpdatedAt returns the last update time, or fallback when unset.
func (m *Model) GetUpdatedAt(fallback time.Time) time.Time {
	if m.updatedAt != nil {
		return *m.updatedAt
	}
	return fallback
}

// SetUpdatedAt sets the last update time.
func (m *Model) SetUpdatedAt(t time.Time) *Model {
	m.updatedAt = &t
	return m
}

// GetArchivedAt returns the archival time, or fallback when the entity is
// not archived.
func (m *Model) GetArchivedAt(fallback time.Time) time.Time {
	if m.archivedAt != nil {
		return *m.archivedAt
	}
	return fallback
}

// IsArchived reports whether the entity was archived.
func (m *Model) IsArchived() bool { return m.archivedAt != nil }

// IsPersisted reports whether the entity was flushed at least once.
func (m *Model) IsPersisted() bool { return m.persisted }

// MarkPersisted records a successful flush. It is called by stores.
func (m *Model) MarkPersisted() { m.persisted = true }

// State returns the lifecycle state.
func (m *Model) State() State {
	switch {
	case m.archivedAt != nil:
		return Archived
	case m.persisted:
		return Persisted
	default:
		return Transient
	}
}

// prePersist runs before the first write of an entity.
func (m *Model) prePersist(now time.Time) {
	m.InitCreatedAt(now)
}

// preUpdate runs before every later write. Archived entities keep their
// last update time.
func (m *Model) preUpdate(now time.Time) {
	if m.archivedAt == nil {
		m.SetUpdatedAt(now)
	}
}

// Save runs the lifecycle hooks of e, stages it and flushes the store it is
// bound to.
func Save(ctx context.Context, e Entity) error {
	m := e.Base()
	if m.store == nil {
		return errors.Wrapf(ErrDetached, "save %s", e.Descriptor().Name)
	}
	now := Now(m.store)
	if m.persisted {
		m.preUpdate(now)
	} else {
		m.prePersist(now)
	}
	if err := m.store.Persist(ctx, e); err != nil {
		return errors.Wrapf(err, "persist %s", e.Descriptor().Name)
	}
	if err := m.store.Flush(ctx); err != nil {
		return errors.Wrapf(err, "flush %s", e.Descriptor().Name)
	}
	return nil
}

// Archive stamps the archival time of e, once, and saves it. An archived
// entity stays archived.
func Archive(ctx context.Context, e Entity) error {
	m := e.Base()
	if m.store == nil {
		return errors.Wrapf(ErrDetached, "archive %s", e.Descriptor().Name)
	}
	if m.archivedAt == nil {
		now := Now(m.store)
		m.archivedAt = &now
	}
	return Save(ctx, e)
}

// OriginalFieldValues returns the last flushed field values of e.
func OriginalFieldValues(e Entity) map[string]any {
	if s := e.Base().store; s != nil {
		return s.OriginalFieldValues(e)
	}
	return nil
}
