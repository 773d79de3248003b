package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/compiler/naming"
	"github.com/syssam/recordgen/dialect/sql/schema"
)

// MemberName returns the logical name.
func (f Field) MemberName() string { return f.Name }

// StructField returns the unexported struct member holding the value.
func (f Field) StructField() string { return builderField(f.Name) }

// MethodSuffix returns the exported name used in accessor methods.
func (f Field) MethodSuffix() string { return naming.Pascal(f.Name) }

// ToMany implements Member.
func (Field) ToMany() bool { return false }

// Base reports whether the field is backed by the embedded runtime model:
// an integer "id" primary key or a lifecycle timestamp. Embeddable values
// have no model and store every field.
func (f Field) Base() bool {
	if f.typ == nil || f.typ.Embeddable {
		return false
	}
	switch f.Name {
	case recordgen.FieldID:
		return f.Type.Numeric() && f.PrimaryKey && len(f.typ.ID) == 1
	case recordgen.FieldCreatedAt, recordgen.FieldUpdatedAt, recordgen.FieldArchivedAt:
		return f.Type == schema.TypeTime
	}
	return false
}

// Generated reports whether the value is assigned by storage.
func (f Field) Generated() bool {
	return f.PrimaryKey && f.typ != nil && len(f.typ.ID) == 1 && f.typ.Strategy.Generated()
}

// ScalarType returns the Go type of the value.
func (f Field) ScalarType() jen.Code {
	switch f.Type {
	case schema.TypeBool:
		return jen.Bool()
	case schema.TypeInt:
		return jen.Int()
	case schema.TypeInt64:
		return jen.Int64()
	case schema.TypeFloat:
		return jen.Float64()
	case schema.TypeBytes, schema.TypeJSON:
		return jen.Index().Byte()
	case schema.TypeTime:
		return jen.Qual("time", "Time")
	default:
		return jen.String()
	}
}

// GoType returns the type of accessor values: the scalar type, or a
// pointer to it for nullable columns.
func (f Field) GoType() jen.Code {
	if f.Nullable {
		return jen.Op("*").Add(f.ScalarType())
	}
	return f.ScalarType()
}

// StoredType returns the type of the struct member. Values are always
// stored behind a pointer so that null is distinct from the zero value.
func (f Field) StoredType() jen.Code {
	return jen.Op("*").Add(f.ScalarType())
}

// Mapping returns the column mapping annotation.
func (f Field) Mapping() *recordgen.Mapping {
	m := &recordgen.Mapping{
		ID:       f.PrimaryKey,
		Column:   f.Column,
		Type:     f.Type.String(),
		Nullable: f.Nullable,
		Unique:   f.Unique,
		Default:  f.Default,
	}
	if f.PrimaryKey && f.typ != nil {
		m.Generated = f.typ.Strategy
	}
	return m
}

// Shadows reports whether name is an accessor of a field of t that has a
// runtime field name but is not backed by the runtime model, such as a
// string "id" key. The generated accessor then replaces the promoted one.
func (t *Type) Shadows(name string) bool {
	for _, f := range t.Fields {
		if f.Base() || !baseField(f.Name) {
			continue
		}
		if f.Name == recordgen.FieldID && name == "HasID" {
			return true
		}
		for _, kind := range Kinds(f) {
			if MethodName(f, kind) == name {
				return true
			}
		}
	}
	return false
}

// baseField reports whether name is a logical field declared by the
// runtime model.
func baseField(name string) bool {
	switch name {
	case recordgen.FieldID, recordgen.FieldCreatedAt, recordgen.FieldUpdatedAt, recordgen.FieldArchivedAt:
		return true
	}
	return false
}
