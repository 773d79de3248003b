package gen

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/compiler/naming"
	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

// Graph holds the mapping metadata of one generation run. It is built once
// by NewGraph and not mutated afterwards.
type Graph struct {
	*Config
	// Nodes are the types artifacts are generated for, in reflected order.
	Nodes []*Type
	// JoinTables are the link tables mapped as many-to-many associations.
	JoinTables []*schema.Table
	// types holds every mapped table, including association targets
	// outside the table filters.
	types  map[string]*Type
	tables map[string]*schema.Table
}

// NewGraph derives the mapping metadata of the reflected tables.
func NewGraph(c *Config, tables []*schema.Table) (*Graph, error) {
	if c == nil {
		c = &Config{}
	}
	g := &Graph{
		Config: c,
		types:  make(map[string]*Type, len(tables)),
		tables: make(map[string]*schema.Table, len(tables)),
	}
	for _, t := range tables {
		g.tables[t.Name] = t
	}
	if err := g.resolve(tables); err != nil {
		return nil, err
	}
	if err := g.validate(tables); err != nil {
		return nil, err
	}
	var all []*Type
	for _, t := range tables {
		if t.IsJoinTable() {
			g.JoinTables = append(g.JoinTables, t)
			continue
		}
		if t.Annotation != nil && t.Annotation.Skip {
			continue
		}
		typ := NewType(c, t)
		typ.Generate = g.selected(t.Name)
		g.types[t.Name] = typ
		all = append(all, typ)
		if typ.Generate {
			g.Nodes = append(g.Nodes, typ)
		}
	}
	for _, typ := range all {
		g.foreignKeys(typ)
	}
	for _, jt := range g.JoinTables {
		if err := g.manyToMany(jt); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Lookup returns the type of a reflected table.
func (g *Graph) Lookup(table string) (*Type, error) {
	if t, ok := g.types[table]; ok {
		return t, nil
	}
	return nil, NewUnknownTableError(table, "")
}

// Column returns the field mapping a column of a reflected table.
func (g *Graph) Column(table, column string) (*Field, error) {
	t, err := g.Lookup(table)
	if err != nil {
		return nil, err
	}
	f, ok := t.FieldByColumn(column)
	if !ok {
		return nil, NewUnknownTableError(table, column)
	}
	return f, nil
}

// selected reports whether a table passes the table filters.
func (g *Graph) selected(table string) bool {
	if len(g.Filters) == 0 {
		return true
	}
	return slices.ContainsFunc(g.Filters, func(f string) bool { return strings.Contains(table, f) })
}

// resolve checks that every foreign key points into the reflected set.
func (g *Graph) resolve(tables []*schema.Table) error {
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil {
				return NewUnresolvedAssociationTargetError(t.Name, fk.Symbol, "")
			}
			ref, ok := g.tables[fk.RefTable.Name]
			if !ok {
				return NewUnresolvedAssociationTargetError(t.Name, fk.Symbol, fk.RefTable.Name)
			}
			for _, c := range fk.Columns {
				if _, ok := t.Column(c.Name); !ok {
					return NewUnknownTableError(t.Name, c.Name)
				}
			}
			for _, c := range fk.RefColumns {
				if _, ok := ref.Column(c.Name); !ok {
					return NewUnknownTableError(ref.Name, c.Name)
				}
			}
		}
	}
	return nil
}

func (g *Graph) validate(tables []*schema.Table) error {
	res := schema.Validate(tables)
	log := g.logger()
	for _, w := range res.Warnings() {
		log.Warn("schema warning", zap.String("table", w.Table), zap.String("column", w.Column), zap.String("message", w.Message))
	}
	if errs := res.Errors(); len(errs) > 0 {
		return NewSchemaError(errs[0].Table, res.String(), nil)
	}
	return nil
}

// foreignKeys derives the to-one associations of a table and their
// inverse sides.
func (g *Graph) foreignKeys(t *Type) {
	ns := g.naming()
	for _, fk := range t.table.ForeignKeys {
		target, ok := g.types[fk.RefTable.Name]
		if !ok {
			g.logger().Debug("skip association to unmapped table", zap.String("table", t.Table()), zap.String("target", fk.RefTable.Name))
			continue
		}
		rel, inverse := M2O, O2M
		if t.table.IsUnique(fk.Columns) {
			rel, inverse = O2O, O2O
		}
		owner := &Edge{
			Name:  naming.AssociationName(fk.Columns[0].Name),
			Rel:   rel,
			Type:  target,
			Owner: true,
			Fetch: recordgen.FetchLazy,
		}
		for i, c := range fk.Columns {
			owner.JoinColumns = append(owner.JoinColumns, JoinColumn{Name: c.Name, Referenced: fk.RefColumns[i].Name})
		}
		owner.Name = t.freeName(owner.Name, "")
		ra, hasOwnerAnnotation := t.Annotation.Relation(owner.Name, fk.Columns[0].Name)
		if hasOwnerAnnotation && ra.Name != "" {
			owner.Name = ra.Name
		}
		t.addEdge(owner, "")

		ref := &Edge{
			Rel:   inverse,
			Type:  t,
			Fetch: recordgen.FetchLazy,
		}
		if inverse == O2O {
			ref.Name = ns.FieldName(naming.Singularize(t.Table()))
		} else {
			ref.Name = ns.FieldName(naming.Pluralize(naming.Singularize(t.Table())))
		}
		if fk.OnDelete == sqlschema.Cascade {
			ref.Cascade = recordgen.CascadePersist | recordgen.CascadeRemove
			ref.OrphanRemoval = inverse == O2M
		}
		ref.Name = target.freeName(ref.Name, owner.Name)
		ri, hasInverseAnnotation := target.Annotation.Relation(ref.Name, fk.Symbol)
		if hasInverseAnnotation && ri.Name != "" {
			ref.Name = ri.Name
		}
		target.addEdge(ref, owner.Name)
		owner.Ref, ref.Ref = ref, owner

		if hasOwnerAnnotation {
			g.annotate(t, owner, ra)
		}
		if hasInverseAnnotation {
			g.annotate(target, ref, ri)
		}
	}
}

// manyToMany derives the association pair of a link table. The owner is
// the table referenced by the first column of the link table.
func (g *Graph) manyToMany(jt *schema.Table) error {
	first, ok := jt.ForeignKey(jt.Columns[0].Name)
	if !ok {
		return NewUnknownTableError(jt.Name, jt.Columns[0].Name)
	}
	second, ok := jt.ForeignKey(jt.Columns[1].Name)
	if !ok {
		return NewUnknownTableError(jt.Name, jt.Columns[1].Name)
	}
	owner, ok := g.types[first.RefTable.Name]
	if !ok {
		g.logger().Warn("skip link table to unmapped table", zap.String("table", jt.Name), zap.String("target", first.RefTable.Name))
		return nil
	}
	target, ok := g.types[second.RefTable.Name]
	if !ok {
		g.logger().Warn("skip link table to unmapped table", zap.String("table", jt.Name), zap.String("target", second.RefTable.Name))
		return nil
	}
	ns := g.naming()
	e := &Edge{
		Name:  ns.FieldName(naming.Pluralize(naming.Singularize(target.Table()))),
		Rel:   M2M,
		Type:  target,
		Owner: true,
		Fetch: recordgen.FetchLazy,
		JoinTable: &JoinTable{
			Name:               jt.Name,
			JoinColumns:        []JoinColumn{{Name: first.Columns[0].Name, Referenced: first.RefColumns[0].Name}},
			InverseJoinColumns: []JoinColumn{{Name: second.Columns[0].Name, Referenced: second.RefColumns[0].Name}},
		},
	}
	e.Name = owner.freeName(e.Name, "")
	ra, hasOwnerAnnotation := owner.Annotation.Relation(e.Name, jt.Name)
	if hasOwnerAnnotation && ra.Name != "" {
		e.Name = ra.Name
	}
	owner.addEdge(e, "")
	ref := &Edge{
		Name:  ns.FieldName(naming.Pluralize(naming.Singularize(owner.Table()))),
		Rel:   M2M,
		Type:  owner,
		Fetch: recordgen.FetchLazy,
	}
	ref.Name = target.freeName(ref.Name, e.Name)
	ri, hasInverseAnnotation := target.Annotation.Relation(ref.Name, jt.Name)
	if hasInverseAnnotation && ri.Name != "" {
		ref.Name = ri.Name
	}
	target.addEdge(ref, e.Name)
	e.Ref, ref.Ref = ref, e
	if hasOwnerAnnotation {
		g.annotate(owner, e, ra)
	}
	if hasInverseAnnotation {
		g.annotate(target, ref, ri)
	}
	return nil
}

// annotate applies schema file settings to an association. Invalid
// settings are logged and ignored.
func (g *Graph) annotate(t *Type, e *Edge, a sqlschema.RelationAnnotation) {
	log := g.logger().With(zap.String("type", t.Name), zap.String("association", e.Name))
	if len(a.Cascade) > 0 {
		c, err := recordgen.ParseCascade(a.Cascade...)
		if err != nil {
			log.Warn("ignoring cascade annotation", zap.Error(err))
		} else {
			e.Cascade = c
		}
	}
	if a.Fetch != "" {
		f, err := recordgen.ParseFetch(a.Fetch)
		if err != nil {
			log.Warn("ignoring fetch annotation", zap.Error(err))
		} else {
			e.Fetch = f
		}
	}
	if a.OrphanRemoval != nil {
		e.OrphanRemoval = *a.OrphanRemoval && e.ToMany()
	}
	for _, term := range a.OrderBy {
		field, dir, _ := strings.Cut(term, ":")
		e.OrderBy = append(e.OrderBy, OrderField{Field: field, Desc: strings.EqualFold(dir, "desc")})
	}
}
