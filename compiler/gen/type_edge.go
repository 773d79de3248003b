package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/compiler/naming"
)

type (
	// Edge is the mapping of one association.
	Edge struct {
		// Name holds the logical name of the association.
		Name string
		// Rel holds the cardinality.
		Rel Rel
		// Type holds the target type.
		Type *Type
		// Source holds the type declaring the association.
		Source *Type
		// Owner indicates the owning side, the one holding the join
		// columns or the join table.
		Owner bool
		// JoinColumns links local columns to target columns. Only set on
		// the owning side of to-one associations.
		JoinColumns []JoinColumn
		// JoinTable describes the link table. Only set on the owning side
		// of many-to-many associations.
		JoinTable *JoinTable
		// Cascade holds the operations cascaded to the target.
		Cascade recordgen.Cascade
		// OrphanRemoval removes targets detached from the collection.
		OrphanRemoval bool
		// Fetch is the loading policy.
		Fetch recordgen.Fetch
		// OrderBy orders to-many collections.
		OrderBy []OrderField
		// Ref points to the counterpart association.
		Ref *Edge
	}

	// JoinColumn links a local column to a referenced column.
	JoinColumn = recordgen.JoinColumn

	// OrderField is one ordering term of a collection.
	OrderField = recordgen.OrderTerm

	// JoinTable describes the link table of a many-to-many association.
	JoinTable struct {
		Name               string
		JoinColumns        []JoinColumn
		InverseJoinColumns []JoinColumn
	}
)

// MemberName returns the logical name.
func (e Edge) MemberName() string { return e.Name }

// StructField returns the unexported struct member holding the target.
func (e Edge) StructField() string { return builderField(e.Name) }

// MethodSuffix returns the exported name used in get/set/init methods.
func (e Edge) MethodSuffix() string { return naming.Pascal(e.Name) }

// ElementSuffix returns the exported name used in add/remove methods.
func (e Edge) ElementSuffix() string { return naming.Pascal(naming.Singularize(e.Name)) }

// M2M indicates if this edge is M2M edge.
func (e Edge) M2M() bool { return e.Rel == M2M }

// M2O indicates if this edge is M2O edge.
func (e Edge) M2O() bool { return e.Rel == M2O }

// O2M indicates if this edge is O2M edge.
func (e Edge) O2M() bool { return e.Rel == O2M }

// O2O indicates if this edge is O2O edge.
func (e Edge) O2O() bool { return e.Rel == O2O }

// ToMany reports whether the association holds a collection.
func (e Edge) ToMany() bool { return e.Rel == O2M || e.Rel == M2M }

// ElemType returns the type of one target.
func (e Edge) ElemType() jen.Code { return jen.Op("*").Id(e.Type.Name) }

// GoType returns the type of accessor values.
func (e Edge) GoType() jen.Code {
	if e.ToMany() {
		return jen.Index().Add(e.ElemType())
	}
	return e.ElemType()
}

// StoredType returns the type of the struct member.
func (e Edge) StoredType() jen.Code { return e.GoType() }

// Columns returns the local join column names of an owning to-one edge.
func (e Edge) Columns() []string {
	cols := make([]string, len(e.JoinColumns))
	for i, c := range e.JoinColumns {
		cols[i] = c.Name
	}
	return cols
}

// Mapping returns the association mapping annotation.
func (e Edge) Mapping() *recordgen.Mapping {
	m := &recordgen.Mapping{
		Relation:      e.Rel.Kind(),
		TargetEntity:  e.Type.Table(),
		Cascade:       e.Cascade,
		OrphanRemoval: e.OrphanRemoval,
		Fetch:         e.Fetch,
		OrderBy:       e.OrderBy,
	}
	if e.Ref != nil {
		if e.Owner {
			m.InversedBy = e.Ref.Name
		} else {
			m.MappedBy = e.Ref.Name
		}
	}
	if !e.Owner {
		return m
	}
	if e.JoinTable != nil {
		m.JoinTable = e.JoinTable.Name
		m.JoinColumns = e.JoinTable.JoinColumns
		m.InverseJoinColumns = e.JoinTable.InverseJoinColumns
		return m
	}
	m.JoinColumns = e.JoinColumns
	m.ID = e.Source != nil && len(e.JoinColumns) > 0
	for _, c := range e.JoinColumns {
		if e.Source == nil || !e.Source.table.IsPrimaryKey(c.Name) {
			m.ID = false
		}
	}
	return m
}

// Rel is a relation type of an edge.
type Rel int

// Relation types.
const (
	Unk Rel = iota // Unknown.
	O2O            // One to one / has one.
	O2M            // One to many / has many.
	M2O            // Many to one (inverse perspective for O2M).
	M2M            // Many to many.
)

// String returns the relation name.
func (r Rel) String() string {
	s := "Unknown"
	switch r {
	case O2O:
		s = "O2O"
	case O2M:
		s = "O2M"
	case M2O:
		s = "M2O"
	case M2M:
		s = "M2M"
	}
	return s
}

// Kind returns the annotation token of the relation.
func (r Rel) Kind() recordgen.RelationKind {
	switch r {
	case O2O:
		return recordgen.OneToOne
	case O2M:
		return recordgen.OneToMany
	case M2O:
		return recordgen.ManyToOne
	case M2M:
		return recordgen.ManyToMany
	}
	return ""
}
