package load

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

// Schema is a schema file: a declared set of tables, or annotations for
// tables reflected from a database.
type Schema struct {
	Dialect string       `json:"dialect,omitempty" yaml:"dialect,omitempty" toml:"dialect"`
	Tables  []*TableSpec `json:"tables,omitempty" yaml:"tables,omitempty" toml:"tables"`
}

// TableSpec describes one table of a schema file. A spec without columns
// only annotates the reflected table of the same name.
type TableSpec struct {
	Name        string                `json:"name" yaml:"name" toml:"name"`
	Schema      string                `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema"`
	Comment     string                `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment"`
	Columns     []*ColumnSpec         `json:"columns,omitempty" yaml:"columns,omitempty" toml:"columns"`
	PrimaryKey  []string              `json:"primary_key,omitempty" yaml:"primary_key,omitempty" toml:"primary_key"`
	ForeignKeys []*ForeignKeySpec     `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty" toml:"foreign_keys"`
	Indexes     []*IndexSpec          `json:"indexes,omitempty" yaml:"indexes,omitempty" toml:"indexes"`
	Annotation  *sqlschema.Annotation `json:"annotation,omitempty" yaml:"annotation,omitempty" toml:"annotation"`
}

// ColumnSpec describes a column.
type ColumnSpec struct {
	Name      string  `json:"name" yaml:"name" toml:"name"`
	Type      string  `json:"type" yaml:"type" toml:"type"`
	RawType   string  `json:"raw_type,omitempty" yaml:"raw_type,omitempty" toml:"raw_type"`
	Nullable  bool    `json:"nullable,omitempty" yaml:"nullable,omitempty" toml:"nullable"`
	Unique    bool    `json:"unique,omitempty" yaml:"unique,omitempty" toml:"unique"`
	Increment bool    `json:"increment,omitempty" yaml:"increment,omitempty" toml:"increment"`
	Default   *string `json:"default,omitempty" yaml:"default,omitempty" toml:"default"`
	Size      int64   `json:"size,omitempty" yaml:"size,omitempty" toml:"size"`
	Comment   string  `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment"`
}

// ForeignKeySpec describes a foreign key.
type ForeignKeySpec struct {
	Symbol     string   `json:"symbol,omitempty" yaml:"symbol,omitempty" toml:"symbol"`
	Columns    []string `json:"columns" yaml:"columns" toml:"columns"`
	RefTable   string   `json:"ref_table" yaml:"ref_table" toml:"ref_table"`
	RefColumns []string `json:"ref_columns" yaml:"ref_columns" toml:"ref_columns"`
	OnDelete   string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty" toml:"on_delete"`
	OnUpdate   string   `json:"on_update,omitempty" yaml:"on_update,omitempty" toml:"on_update"`
}

// IndexSpec describes an index.
type IndexSpec struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty" toml:"unique"`
	Columns []string `json:"columns" yaml:"columns" toml:"columns"`
}

// MarshalSchema encodes the tables as a schema file document.
func MarshalSchema(tables []*schema.Table) ([]byte, error) {
	return json.Marshal(NewSchema(tables))
}

// UnmarshalSchema decodes a JSON schema document.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, errors.Wrap(err, "load: decode schema")
	}
	return s, nil
}

// NewSchema describes reflected tables as a schema file.
func NewSchema(tables []*schema.Table) *Schema {
	s := &Schema{}
	for _, t := range tables {
		ts := &TableSpec{Name: t.Name, Schema: t.Schema, Comment: t.Comment, Annotation: t.Annotation}
		for _, c := range t.Columns {
			ts.Columns = append(ts.Columns, &ColumnSpec{
				Name:      c.Name,
				Type:      c.Type.String(),
				RawType:   c.RawType,
				Nullable:  c.Nullable,
				Unique:    c.Unique,
				Increment: c.Increment,
				Default:   c.Default,
				Size:      c.Size,
				Comment:   c.Comment,
			})
		}
		ts.PrimaryKey = names(t.PrimaryKey)
		for _, fk := range t.ForeignKeys {
			fs := &ForeignKeySpec{
				Symbol:     fk.Symbol,
				Columns:    names(fk.Columns),
				RefColumns: names(fk.RefColumns),
				OnDelete:   string(fk.OnDelete),
				OnUpdate:   string(fk.OnUpdate),
			}
			if fk.RefTable != nil {
				fs.RefTable = fk.RefTable.Name
			}
			ts.ForeignKeys = append(ts.ForeignKeys, fs)
		}
		for _, idx := range t.Indexes {
			ts.Indexes = append(ts.Indexes, &IndexSpec{Name: idx.Name, Unique: idx.Unique, Columns: names(idx.Columns)})
		}
		s.Tables = append(s.Tables, ts)
	}
	return s
}

// Build converts the declared tables of the document into schema tables.
// Annotation-only specs are skipped. Foreign keys to tables missing from
// the document point at a detached table so the caller can report them.
func (s *Schema) Build() ([]*schema.Table, error) {
	var (
		tables []*schema.Table
		byName = make(map[string]*schema.Table)
		specs  []*TableSpec
	)
	for _, ts := range s.Tables {
		if len(ts.Columns) == 0 {
			continue
		}
		if _, dup := byName[ts.Name]; dup {
			return nil, errors.Newf("load: table %q declared twice", ts.Name)
		}
		t := schema.NewTable(ts.Name)
		t.Schema, t.Comment, t.Annotation = ts.Schema, ts.Comment, ts.Annotation
		for _, cs := range ts.Columns {
			c := &schema.Column{
				Name:      cs.Name,
				Type:      schema.ParseType(cs.Type),
				RawType:   cs.RawType,
				Nullable:  cs.Nullable,
				Unique:    cs.Unique,
				Increment: cs.Increment,
				Default:   cs.Default,
				Size:      cs.Size,
				Comment:   cs.Comment,
			}
			if c.RawType == "" {
				c.RawType = cs.Type
			}
			t.AddColumn(c)
		}
		for _, name := range ts.PrimaryKey {
			c, ok := t.Column(name)
			if !ok {
				return nil, errors.Newf("load: table %q: primary key column %q is not declared", ts.Name, name)
			}
			t.PrimaryKey = append(t.PrimaryKey, c)
		}
		for _, is := range ts.Indexes {
			t.AddIndex(is.Name, is.Unique, is.Columns...)
		}
		tables = append(tables, t)
		byName[t.Name] = t
		specs = append(specs, ts)
	}
	for i, ts := range specs {
		t := tables[i]
		for _, fs := range ts.ForeignKeys {
			if len(fs.Columns) == 0 {
				return nil, errors.Newf("load: table %q: foreign key without columns", ts.Name)
			}
			fk := &schema.ForeignKey{
				Symbol:   fs.Symbol,
				OnDelete: sqlschema.ReferenceOption(fs.OnDelete),
				OnUpdate: sqlschema.ReferenceOption(fs.OnUpdate),
			}
			for _, name := range fs.Columns {
				c, ok := t.Column(name)
				if !ok {
					return nil, errors.Newf("load: table %q: foreign key column %q is not declared", ts.Name, name)
				}
				fk.Columns = append(fk.Columns, c)
			}
			ref, ok := byName[fs.RefTable]
			if !ok {
				ref = schema.NewTable(fs.RefTable)
			}
			fk.RefTable = ref
			for _, name := range fs.RefColumns {
				c, ok := ref.Column(name)
				if !ok {
					c = &schema.Column{Name: name}
				}
				fk.RefColumns = append(fk.RefColumns, c)
			}
			if fk.Symbol == "" {
				fk.Symbol = fmt.Sprintf("%s_%s_fkey", t.Name, fs.Columns[0])
			}
			t.AddForeignKeys(fk)
		}
	}
	return tables, nil
}

// Annotate merges the annotations of the document into tables of the same
// name.
func (s *Schema) Annotate(tables []*schema.Table) {
	byName := make(map[string]*schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	for _, ts := range s.Tables {
		if t, ok := byName[ts.Name]; ok && ts.Annotation != nil {
			t.Annotation = sqlschema.Merge(t.Annotation, ts.Annotation)
		}
	}
}

func names(columns []*schema.Column) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, c.Name)
	}
	return out
}
