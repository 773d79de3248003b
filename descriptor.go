package recordgen

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

// Strategy is the primary key generator strategy of a table.
type Strategy string

// Generator strategies.
const (
	StrategyNone     Strategy = "none"
	StrategyIdentity Strategy = "identity"
	StrategySequence Strategy = "sequence"
	StrategyUUID     Strategy = "uuid"
)

// Generated reports whether keys are assigned by the database or the store.
func (s Strategy) Generated() bool {
	return s == StrategyIdentity || s == StrategySequence || s == StrategyUUID
}

// Accessor is the capability set generated for one field. A nil function
// means the capability does not exist for the field.
type Accessor struct {
	// Column is the physical column, empty for inverse associations.
	Column string
	// Get returns the stored value and false when it is null.
	Get func(Entity) (any, bool)
	// Set overwrites the stored value. It reports whether v was accepted.
	Set func(Entity, any) bool
	// Init writes v only when the stored value is null.
	Init func(Entity, any) bool
	// Load writes a value read from storage. When nil, Set is used.
	Load func(Entity, any) bool
}

// Relation describes an association for the store: foreign key
// synchronisation and cascaded persistence.
type Relation struct {
	Field   string
	Kind    RelationKind
	Cascade Cascade
	// Columns holds the join columns of an owning to-one association.
	Columns []string
	// Targets returns the associated entities.
	Targets func(Entity) []Entity
}

// Descriptor is the capability table of one entity type.
type Descriptor struct {
	// Name is the entity type name.
	Name string
	// Table is the physical table name.
	Table string
	// Strategy is the primary key generator strategy.
	Strategy Strategy
	// PrimaryKey lists the logical primary key fields.
	PrimaryKey []string
	// Accessors holds the capabilities of every known field, keyed by
	// logical field name.
	Accessors map[string]Accessor
	// Relations lists the associations of the type.
	Relations []Relation
	// New returns an empty entity of the type.
	New func() Entity
}

// FieldNames returns the known field names in sorted order.
func (d *Descriptor) FieldNames() []string {
	return slices.Sorted(maps.Keys(d.Accessors))
}

// StoredFields returns the sorted names of the fields backed by a column,
// leaving out associations. It is the field set handed to validators.
func (d *Descriptor) StoredFields() []string {
	var names []string
	for f, a := range d.Accessors {
		if a.Column != "" {
			names = append(names, f)
		}
	}
	slices.Sort(names)
	return names
}

// HasField reports whether name is a known field.
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.Accessors[name]
	return ok
}

// Column returns the physical column of a field.
func (d *Descriptor) Column(field string) (string, bool) {
	a, ok := d.Accessors[field]
	if !ok || a.Column == "" {
		return "", false
	}
	return a.Column, true
}

// Columns returns the field to column mapping of every stored field.
func (d *Descriptor) Columns() map[string]string {
	cols := make(map[string]string, len(d.Accessors))
	for f, a := range d.Accessors {
		if a.Column != "" {
			cols[f] = a.Column
		}
	}
	return cols
}

// ArchiveColumn returns the column of the archival timestamp, if the table
// has one.
func (d *Descriptor) ArchiveColumn() (string, bool) {
	return d.Column(FieldArchivedAt)
}

// Logical names of the fields declared by Model.
const (
	FieldID         = "id"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
	FieldArchivedAt = "archivedAt"
)

// IDAccessor returns the accessor of the storage identifier. It has no
// Set or Init capability: identifiers are assigned by storage.
func IDAccessor(column string) Accessor {
	return Accessor{
		Column: column,
		Get: func(e Entity) (any, bool) {
			m := e.Base()
			if m.id == nil {
				return nil, false
			}
			return *m.id, true
		},
		Load: func(e Entity, v any) bool {
			id, ok := Convert[int64](v)
			return ok && e.Base().AssignID(id)
		},
	}
}

// CreatedAtAccessor returns the accessor of the creation timestamp.
func CreatedAtAccessor(column string) Accessor {
	return Accessor{
		Column: column,
		Get:    func(e Entity) (any, bool) { return timeValue(e.Base().createdAt) },
		Init: func(e Entity, v any) bool {
			t, ok := Convert[time.Time](v)
			if ok {
				e.Base().InitCreatedAt(t)
			}
			return ok
		},
		Load: func(e Entity, v any) bool {
			return loadTime(&e.Base().createdAt, v)
		},
	}
}

// UpdatedAtAccessor returns the accessor of the update timestamp.
func UpdatedAtAccessor(column string) Accessor {
	return Accessor{
		Column: column,
		Get:    func(e Entity) (any, bool) { return timeValue(e.Base().updatedAt) },
		Set: func(e Entity, v any) bool {
			t, ok := Convert[time.Time](v)
			if ok {
				e.Base().SetUpdatedAt(t)
			}
			return ok
		},
		Load: func(e Entity, v any) bool {
			return loadTime(&e.Base().updatedAt, v)
		},
	}
}

// ArchivedAtAccessor returns the accessor of the archival timestamp. It has
// no Set or Init capability: only Archive stamps it.
func ArchivedAtAccessor(column string) Accessor {
	return Accessor{
		Column: column,
		Get:    func(e Entity) (any, bool) { return timeValue(e.Base().archivedAt) },
		Load: func(e Entity, v any) bool {
			return loadTime(&e.Base().archivedAt, v)
		},
	}
}

func timeValue(t *time.Time) (any, bool) {
	if t == nil {
		return nil, false
	}
	return *t, true
}

func loadTime(dst **time.Time, v any) bool {
	if v == nil {
		*dst = nil
		return true
	}
	t, ok := Convert[time.Time](v)
	if ok {
		*dst = &t
	}
	return ok
}

// FromData applies data to e with init semantics: a field is written only
// while it is null. Only keys that are known fields and listed in the
// field manifest are considered; everything else, including values that
// cannot be converted, is ignored.
func FromData[E Entity](e E, data map[string]any) E {
	apply(e, data, func(a Accessor) func(Entity, any) bool { return a.Init })
	return e
}

// Fill applies data to e with set semantics under the same key filtering
// as FromData.
func Fill[E Entity](e E, data map[string]any) E {
	apply(e, data, func(a Accessor) func(Entity, any) bool { return a.Set })
	return e
}

func apply(e Entity, data map[string]any, capability func(Accessor) func(Entity, any) bool) {
	d := e.Descriptor()
	printable := e.PrintableFields()
	for _, k := range slices.Sorted(maps.Keys(data)) {
		a, ok := d.Accessors[k]
		if !ok || !printable.Contains(k) {
			continue
		}
		if fn := capability(a); fn != nil {
			fn(e, data[k])
		}
	}
}

// Values returns the value of every known field, nil for nulls. It is the
// variable set handed to validators.
func Values(e Entity) map[string]any {
	d := e.Descriptor()
	vars := make(map[string]any, len(d.Accessors))
	for f, a := range d.Accessors {
		var v any
		if a.Get != nil {
			v, _ = a.Get(e)
		}
		vars[f] = v
	}
	return vars
}

// Create builds an entity from data with FromData and saves it.
func Create[E Entity](ctx context.Context, e E, data map[string]any) (E, error) {
	FromData(e, data)
	return e, Save(ctx, e)
}

// Query returns the entities of type E stored in s that match the scope.
// Archived rows are excluded unless WithArchived is given.
func Query[E Entity](ctx context.Context, s Store, d *Descriptor, opts ...ScopeOption) ([]E, error) {
	rows, err := s.Select(ctx, d, NewScope(opts...))
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(rows))
	for _, r := range rows {
		e, ok := r.(E)
		if !ok {
			return nil, errors.Newf("recordgen: store returned %T for %s", r, d.Name)
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the number of stored entities matching the scope.
func Count(ctx context.Context, s Store, d *Descriptor, opts ...ScopeOption) (int, error) {
	return s.Count(ctx, d, NewScope(opts...))
}

// Find returns the entity with the given identifier. It returns a
// NotFoundError when no row matches.
func Find[E Entity](ctx context.Context, s Store, d *Descriptor, id any, opts ...ScopeOption) (E, error) {
	var zero E
	if len(d.PrimaryKey) != 1 {
		return zero, errors.Newf("recordgen: %s has no single-column primary key", d.Name)
	}
	opts = append(opts, Where(d.PrimaryKey[0], id), Limit(1))
	rows, err := Query[E](ctx, s, d, opts...)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, NewNotFoundError(d.Name, id)
	}
	return rows[0], nil
}

// Collection converts a typed slice of entities for projection.
func Collection[E Entity](items []E) []Entity {
	out := make([]Entity, len(items))
	for i, e := range items {
		out[i] = e
	}
	return out
}
