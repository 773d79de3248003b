// Package sqlschema provides mapping annotations that refine what schema
// reflection alone can infer about a table.
//
// Reflection knows columns, keys and foreign keys. It does not know which
// fields are printable, whether a foreign key cascades persist operations,
// or how a collection is ordered. Those settings are attached to a reflected
// table as annotations, either from a schema file or programmatically:
//
//	sqlschema.Annotation{
//	    Printable: []string{"name", "createdAt"},
//	    Relations: map[string]sqlschema.RelationAnnotation{
//	        "posts": sqlschema.Relation(sqlschema.CascadeAll(), sqlschema.FetchEager()),
//	    },
//	}
//
// # Cascade Actions
//
// Foreign key referential actions as reported by the database:
//
//	sqlschema.Cascade    - Delete/update related rows
//	sqlschema.SetNull    - Set foreign key to NULL
//	sqlschema.Restrict   - Prevent delete/update if related rows exist
//	sqlschema.SetDefault - Set foreign key to default value
//	sqlschema.NoAction   - No action (database default)
package sqlschema

import (
	"slices"
)

// ReferenceOption is a foreign key ON DELETE / ON UPDATE action.
type ReferenceOption string

const (
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	Restrict   ReferenceOption = "RESTRICT"
	SetDefault ReferenceOption = "SET DEFAULT"
	NoAction   ReferenceOption = "NO ACTION"
)

// Annotation holds the mapping settings of one table.
type Annotation struct {
	// MappedSuperclass marks a table whose type is only embedded by others.
	MappedSuperclass bool `json:"mapped_superclass,omitempty" yaml:"mapped_superclass,omitempty" toml:"mapped_superclass"`

	// Embeddable marks a value type without identity.
	Embeddable bool `json:"embeddable,omitempty" yaml:"embeddable,omitempty" toml:"embeddable"`

	// Skip excludes the table from entity generation.
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty" toml:"skip"`

	// Strategy overrides the inferred primary key generator strategy
	// (identity, sequence, uuid, none).
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty" toml:"strategy"`

	// Printable lists the logical field names written to the field manifest.
	// A nil list means every column is printable.
	Printable []string `json:"printable,omitempty" yaml:"printable,omitempty" toml:"printable"`

	// Relations refines associations, keyed by association name or by
	// foreign key column.
	Relations map[string]RelationAnnotation `json:"relations,omitempty" yaml:"relations,omitempty" toml:"relations"`
}

// RelationAnnotation holds the mapping settings of one association.
type RelationAnnotation struct {
	// Cascade lists operations cascaded to the target: persist, remove,
	// detach, merge, refresh or all.
	Cascade []string `json:"cascade,omitempty" yaml:"cascade,omitempty" toml:"cascade"`

	// Fetch is lazy, extra-lazy or eager.
	Fetch string `json:"fetch,omitempty" yaml:"fetch,omitempty" toml:"fetch"`

	// OrphanRemoval removes targets that are detached from the collection.
	OrphanRemoval *bool `json:"orphan_removal,omitempty" yaml:"orphan_removal,omitempty" toml:"orphan_removal"`

	// OrderBy orders a to-many collection, as "field" or "field:desc".
	OrderBy []string `json:"order_by,omitempty" yaml:"order_by,omitempty" toml:"order_by"`

	// Name renames the association.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`

	// JoinTable names the link table of a declared many-to-many association.
	JoinTable string `json:"join_table,omitempty" yaml:"join_table,omitempty" toml:"join_table"`
}

// RelationOption configures a RelationAnnotation.
type RelationOption func(*RelationAnnotation)

// Relation builds a RelationAnnotation from options.
func Relation(opts ...RelationOption) RelationAnnotation {
	var r RelationAnnotation
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// CascadeOn adds cascaded operations.
func CascadeOn(ops ...string) RelationOption {
	return func(r *RelationAnnotation) {
		r.Cascade = append(r.Cascade, ops...)
	}
}

// CascadeAll cascades every operation.
func CascadeAll() RelationOption {
	return CascadeOn("all")
}

// FetchEager loads the association together with its owner.
func FetchEager() RelationOption {
	return func(r *RelationAnnotation) { r.Fetch = "eager" }
}

// FetchExtraLazy loads collection elements on demand.
func FetchExtraLazy() RelationOption {
	return func(r *RelationAnnotation) { r.Fetch = "extra-lazy" }
}

// OrphanRemoval sets the orphan removal flag.
func OrphanRemoval(v bool) RelationOption {
	return func(r *RelationAnnotation) { r.OrphanRemoval = &v }
}

// OrderBy appends ordering terms.
func OrderBy(terms ...string) RelationOption {
	return func(r *RelationAnnotation) {
		r.OrderBy = append(r.OrderBy, terms...)
	}
}

// IsPrintable reports whether the logical field is printable.
func (a *Annotation) IsPrintable(field string) bool {
	if a == nil || a.Printable == nil {
		return true
	}
	return slices.Contains(a.Printable, field)
}

// Relation returns the settings registered under any of the keys.
func (a *Annotation) Relation(keys ...string) (RelationAnnotation, bool) {
	if a == nil {
		return RelationAnnotation{}, false
	}
	for _, k := range keys {
		if r, ok := a.Relations[k]; ok {
			return r, true
		}
	}
	return RelationAnnotation{}, false
}

// Merge combines annotations. Later values override earlier ones; relation
// maps are merged key by key.
func Merge(annotations ...*Annotation) *Annotation {
	var out Annotation
	for _, a := range annotations {
		if a == nil {
			continue
		}
		out.MappedSuperclass = out.MappedSuperclass || a.MappedSuperclass
		out.Embeddable = out.Embeddable || a.Embeddable
		out.Skip = out.Skip || a.Skip
		if a.Strategy != "" {
			out.Strategy = a.Strategy
		}
		if a.Printable != nil {
			out.Printable = slices.Clone(a.Printable)
		}
		for k, r := range a.Relations {
			if out.Relations == nil {
				out.Relations = make(map[string]RelationAnnotation)
			}
			out.Relations[k] = r
		}
	}
	return &out
}
