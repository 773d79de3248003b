// Package schema describes reflected database tables: columns, keys,
// foreign keys and indexes, independent of the database they came from.
package schema

import (
	"slices"

	"github.com/syssam/recordgen/dialect/sqlschema"
)

// Type is the scalar kind of a column.
type Type uint8

// Scalar kinds.
const (
	TypeOther Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat
	TypeDecimal
	TypeString
	TypeEnum
	TypeBytes
	TypeTime
	TypeUUID
	TypeJSON
)

var typeNames = [...]string{
	TypeOther:   "other",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat:   "float",
	TypeDecimal: "decimal",
	TypeString:  "string",
	TypeEnum:    "enum",
	TypeBytes:   "bytes",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeJSON:    "json",
}

// String returns the token used for the type in mapping annotations.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[TypeOther]
}

// ParseType is the inverse of Type.String. Unknown names map to TypeOther.
func ParseType(s string) Type {
	for i, name := range typeNames {
		if name == s {
			return Type(i)
		}
	}
	return TypeOther
}

// Numeric reports whether the type holds integers.
func (t Type) Numeric() bool { return t == TypeInt || t == TypeInt64 }

// Column is a reflected table column.
type Column struct {
	Name      string
	Type      Type
	RawType   string // database type as reported, e.g. "varchar(255)"
	Nullable  bool
	Unique    bool
	Increment bool
	Default   *string // literal or expression, nil when absent
	Size      int64
	Comment   string
}

// Table is a reflected table.
type Table struct {
	Name        string
	Schema      string
	Columns     []*Column
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Indexes     []*Index
	Annotation  *sqlschema.Annotation
	Comment     string

	columns map[string]*Column
}

// ForeignKey is a reflected foreign key constraint.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnDelete   sqlschema.ReferenceOption
	OnUpdate   sqlschema.ReferenceOption
}

// Index is a reflected index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name, columns: make(map[string]*Column)}
}

// AddColumn appends a column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	if t.columns == nil {
		t.columns = make(map[string]*Column)
	}
	t.Columns = append(t.Columns, c)
	t.columns[c.Name] = c
	return t
}

// AddPrimary appends a column and marks it as part of the primary key.
func (t *Table) AddPrimary(c *Column) *Table {
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddForeignKeys appends foreign keys to the table.
func (t *Table) AddForeignKeys(fks ...*ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fks...)
	return t
}

// AddIndex appends an index on the named columns. Unknown column names
// are ignored.
func (t *Table) AddIndex(name string, unique bool, columns ...string) *Table {
	idx := &Index{Name: name, Unique: unique}
	for _, n := range columns {
		if c, ok := t.Column(n); ok {
			idx.Columns = append(idx.Columns, c)
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	if t.columns == nil {
		for _, c := range t.Columns {
			if c.Name == name {
				return c, true
			}
		}
		return nil, false
	}
	c, ok := t.columns[name]
	return c, ok
}

// IsPrimaryKey reports whether the named column is part of the primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	return slices.ContainsFunc(t.PrimaryKey, func(c *Column) bool { return c.Name == name })
}

// IsUnique reports whether the given columns are guaranteed unique: a
// single unique column, a unique index over exactly these columns, or the
// primary key itself.
func (t *Table) IsUnique(columns []*Column) bool {
	names := columnNames(columns)
	if len(names) == 0 {
		return false
	}
	if len(columns) == 1 && columns[0].Unique {
		return true
	}
	if sameSet(names, columnNames(t.PrimaryKey)) {
		return true
	}
	for _, idx := range t.Indexes {
		if idx.Unique && sameSet(names, columnNames(idx.Columns)) {
			return true
		}
	}
	return false
}

// IsJoinTable reports whether t is a pure link table: exactly two columns,
// each covered by its own single-column foreign key, together forming the
// primary key.
func (t *Table) IsJoinTable() bool {
	if len(t.Columns) != 2 || len(t.ForeignKeys) != 2 || len(t.PrimaryKey) != 2 {
		return false
	}
	covered := make(map[string]bool, 2)
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != 1 || len(fk.RefColumns) != 1 {
			return false
		}
		covered[fk.Columns[0].Name] = true
	}
	for _, c := range t.Columns {
		if !covered[c.Name] || !t.IsPrimaryKey(c.Name) {
			return false
		}
	}
	return true
}

// ForeignKey returns the foreign key whose first column is named column.
func (t *Table) ForeignKey(column string) (*ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) > 0 && fk.Columns[0].Name == column {
			return fk, true
		}
	}
	return nil, false
}

func columnNames(columns []*Column) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != nil {
			names = append(names, c.Name)
		}
	}
	return names
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
