package schema

import (
	"fmt"
	"strings"
)

// Severity grades a validation issue.
type Severity uint8

// Severities. Errors stop the mapping of the whole schema; warnings are
// reported and mapping continues.
const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is one finding of Validate.
type Issue struct {
	Severity Severity
	Table    string
	Column   string
	Message  string
}

func (i *Issue) Error() string {
	if i.Column != "" {
		return fmt.Sprintf("%s.%s: %s", i.Table, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Table, i.Message)
}

// Report collects the issues of a set of tables in the order they were
// found.
type Report struct {
	Issues []*Issue
}

// Errors returns the issues of severity Error.
func (r *Report) Errors() []*Issue { return r.filter(Error) }

// Warnings returns the issues of severity Warning.
func (r *Report) Warnings() []*Issue { return r.filter(Warning) }

// HasErrors reports whether any issue is an error.
func (r *Report) HasErrors() bool { return len(r.Errors()) > 0 }

func (r *Report) String() string {
	if len(r.Issues) == 0 {
		return "no issues"
	}
	var sb strings.Builder
	for i, is := range r.Issues {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(is.Severity.String())
		sb.WriteString(": ")
		sb.WriteString(is.Error())
	}
	return sb.String()
}

func (r *Report) filter(s Severity) []*Issue {
	var out []*Issue
	for _, is := range r.Issues {
		if is.Severity == s {
			out = append(out, is)
		}
	}
	return out
}

func (r *Report) add(s Severity, table, column, format string, args ...any) {
	r.Issues = append(r.Issues, &Issue{Severity: s, Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

// Validate checks that tables can be mapped to entities: names are unique,
// keys and indexes reference existing columns, and every foreign key
// points at a table of the set.
func Validate(tables []*Table) *Report {
	r := &Report{}
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if seen[t.Name] {
			r.add(Error, t.Name, "", "duplicate table name")
		}
		seen[t.Name] = true
		r.table(t)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			r.reference(t, fk, seen)
		}
	}
	return r
}

// ValidateTable checks a single table without resolving its foreign key
// targets.
func ValidateTable(t *Table) *Report {
	r := &Report{}
	r.table(t)
	return r
}

func (r *Report) table(t *Table) {
	join := t.IsJoinTable()
	switch {
	case len(t.PrimaryKey) == 0:
		r.add(Warning, t.Name, "", "table has no primary key")
	case len(t.PrimaryKey) > 1 && !join:
		r.add(Warning, t.Name, "", "composite primary key: entities of this table cannot be updated")
	}

	columns := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if columns[c.Name] {
			r.add(Error, t.Name, c.Name, "duplicate column name")
		}
		columns[c.Name] = true
		if c.Type == TypeOther {
			r.add(Warning, t.Name, c.Name, "unknown column type %q is mapped as a string", c.RawType)
		}
		if strings.HasSuffix(c.Name, "_id") && !t.IsPrimaryKey(c.Name) {
			if _, ok := t.ForeignKey(c.Name); !ok {
				r.add(Warning, t.Name, c.Name, "column looks like a foreign key but has no constraint")
			}
		}
	}

	indexes := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if indexes[idx.Name] {
			r.add(Error, t.Name, "", "duplicate index name %q", idx.Name)
		}
		indexes[idx.Name] = true
		for _, c := range idx.Columns {
			if c != nil && !columns[c.Name] {
				r.add(Error, t.Name, "", "index %q references unknown column %q", idx.Name, c.Name)
			}
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
			r.add(Error, t.Name, "", "foreign key %q has %d columns and %d referenced columns",
				fk.Symbol, len(fk.Columns), len(fk.RefColumns))
		}
		for _, c := range fk.Columns {
			if !columns[c.Name] {
				r.add(Error, t.Name, "", "foreign key %q references unknown column %q", fk.Symbol, c.Name)
			}
		}
	}
}

func (r *Report) reference(t *Table, fk *ForeignKey, tables map[string]bool) {
	switch {
	case fk.RefTable == nil:
		r.add(Error, t.Name, "", "foreign key %q has no referenced table", fk.Symbol)
	case !tables[fk.RefTable.Name]:
		r.add(Error, t.Name, "", "foreign key %q references unknown table %q", fk.Symbol, fk.RefTable.Name)
	default:
		for _, c := range fk.RefColumns {
			if _, ok := fk.RefTable.Column(c.Name); !ok {
				r.add(Error, t.Name, c.Name, "foreign key %q references unknown column %q of table %q",
					fk.Symbol, c.Name, fk.RefTable.Name)
			}
		}
	}
}
