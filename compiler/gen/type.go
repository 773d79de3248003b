package gen

import (
	"slices"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/compiler/naming"
	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

// The following types and their exported methods are used by the
// generators to produce the entity artifacts.
type (
	// Type is the mapping metadata of one table.
	Type struct {
		*Config
		table *schema.Table
		// Name holds the classified type name.
		Name string
		// Fields holds the column mappings in column order.
		Fields []*Field
		fields map[string]*Field
		// ID holds the primary key fields.
		ID []*Field
		// Edges holds the associations of the type.
		Edges []*Edge
		// Strategy is the primary key generator strategy.
		Strategy recordgen.Strategy
		// MappedSuperclass marks a type that is only embedded by others.
		MappedSuperclass bool
		// Embeddable marks a value type without identity.
		Embeddable bool
		// Annotation holds the schema file settings of the table.
		Annotation *sqlschema.Annotation
		// Generate reports whether artifacts are produced for the type.
		// Types outside the table filters are kept as association targets.
		Generate bool
	}

	// Field is the mapping of one column.
	Field struct {
		typ *Type
		// Name is the logical field name.
		Name string
		// Column is the physical column name.
		Column string
		// Type holds the scalar kind of the column.
		Type schema.Type
		// Nullable indicates that the column accepts NULL.
		Nullable bool
		// PrimaryKey indicates that the column is part of the primary key.
		PrimaryKey bool
		// Unique indicates a unique column.
		Unique bool
		// Default is the column default literal, if any.
		Default *string
		// Comment is the column comment.
		Comment string
	}
)

// NewType creates the type of a reflected table.
func NewType(c *Config, t *schema.Table) *Type {
	ns := c.naming()
	typ := &Type{
		Config:     c,
		table:      t,
		Name:       ns.ClassName(t.Name),
		Fields:     make([]*Field, 0, len(t.Columns)),
		fields:     make(map[string]*Field, len(t.Columns)),
		Annotation: t.Annotation,
	}
	for _, col := range t.Columns {
		f := &Field{
			typ:        typ,
			Name:       ns.FieldName(col.Name),
			Column:     col.Name,
			Type:       col.Type,
			Nullable:   col.Nullable,
			PrimaryKey: t.IsPrimaryKey(col.Name),
			Unique:     col.Unique,
			Default:    col.Default,
			Comment:    col.Comment,
		}
		typ.Fields = append(typ.Fields, f)
		typ.fields[f.Name] = f
		if f.PrimaryKey {
			typ.ID = append(typ.ID, f)
		}
	}
	if a := t.Annotation; a != nil {
		typ.MappedSuperclass = a.MappedSuperclass
		typ.Embeddable = a.Embeddable
	}
	typ.Strategy = strategy(t)
	return typ
}

// strategy infers the primary key generator strategy of a table. A
// strategy set by annotation wins.
func strategy(t *schema.Table) recordgen.Strategy {
	if a := t.Annotation; a != nil && a.Strategy != "" {
		return recordgen.Strategy(a.Strategy)
	}
	if len(t.PrimaryKey) != 1 {
		return recordgen.StrategyNone
	}
	pk := t.PrimaryKey[0]
	switch {
	case pk.Type.Numeric() && pk.Increment:
		return recordgen.StrategyIdentity
	case pk.Type.Numeric() && pk.Default != nil && containsFold(*pk.Default, "nextval("):
		return recordgen.StrategySequence
	case pk.Type == schema.TypeUUID:
		return recordgen.StrategyUUID
	default:
		return recordgen.StrategyNone
	}
}

// Table returns the physical table name.
func (t Type) Table() string { return t.table.Name }

// Label returns the snake_case name used for file names.
func (t Type) Label() string { return naming.Snake(t.Name) }

// Receiver returns the receiver name of the type methods.
func (t Type) Receiver() string { return receiver(t.Name) }

// Plural returns the plural type name, used by query functions.
func (t Type) Plural() string { return naming.Pascal(naming.Pluralize(t.Name)) }

// Field returns the field with the given logical name.
func (t Type) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// FieldByColumn returns the field mapping the given column.
func (t Type) FieldByColumn(column string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return nil, false
}

// Edge returns the association with the given name.
func (t Type) Edge(name string) (*Edge, bool) {
	for _, e := range t.Edges {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// HasMember reports whether a field or association uses name.
func (t Type) HasMember(name string) bool {
	if _, ok := t.fields[name]; ok {
		return true
	}
	_, ok := t.Edge(name)
	return ok
}

// Entity reports whether the type gets persistence methods.
func (t Type) Entity() bool { return !t.Embeddable && !t.MappedSuperclass }

// Printable returns the sorted logical names written to the field
// manifest: every field and association allowed by the annotation.
func (t Type) Printable() []string {
	var names []string
	for _, f := range t.Fields {
		if t.Annotation.IsPrintable(f.Name) {
			names = append(names, f.Name)
		}
	}
	for _, e := range t.Edges {
		if t.Annotation.IsPrintable(e.Name) {
			names = append(names, e.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// OwnFields returns the fields stored by the generated struct, leaving
// out those backed by the embedded runtime model.
func (t Type) OwnFields() []*Field {
	fields := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if !f.Base() {
			fields = append(fields, f)
		}
	}
	return fields
}

// ToMany returns the to-many associations.
func (t Type) ToMany() []*Edge {
	var edges []*Edge
	for _, e := range t.Edges {
		if e.ToMany() {
			edges = append(edges, e)
		}
	}
	return edges
}

// addEdge appends an association, renaming it when its name is taken.
func (t *Type) addEdge(e *Edge, prefix string) {
	e.Name = t.freeName(e.Name, prefix)
	e.Source = t
	t.Edges = append(t.Edges, e)
}

// freeName resolves name collisions deterministically: the name is first
// prefixed (when a prefix is known), then suffixed with "Ref" until free.
func (t *Type) freeName(name, prefix string) string {
	if !t.taken(name) {
		return name
	}
	if prefix != "" && prefix != name {
		name = prefix + naming.Pascal(name)
		if !t.taken(name) {
			return name
		}
	}
	for t.taken(name) {
		name += "Ref"
	}
	return name
}

func (t *Type) taken(name string) bool {
	return t.HasMember(name) || baseField(name)
}
