package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/recordgen/dialect"
)

// Builder accumulates a statement and its arguments for one dialect.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
}

// SetDialect sets the dialect used for quoting and placeholders.
func (b *Builder) SetDialect(d string) { b.dialect = dialect.Normalize(d) }

// Dialect returns the builder dialect.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString appends raw SQL.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends a quoted identifier. Qualified names ("t.c") are quoted
// part by part; "*" is left as is.
func (b *Builder) Ident(name string) *Builder {
	if name == "*" {
		b.sb.WriteString(name)
		return b
	}
	for i, part := range strings.Split(name, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		b.sb.WriteString(b.quote(part))
	}
	return b
}

// Arg appends a placeholder for v.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Query returns the statement and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

func (b *Builder) quote(ident string) string {
	if b.dialect == dialect.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Predicate writes a boolean condition.
type Predicate func(*Builder)

// EQ matches rows where column equals v.
func EQ(column string, v any) Predicate {
	return func(b *Builder) { b.Ident(column).WriteString(" = ").Arg(v) }
}

// NEQ matches rows where column differs from v.
func NEQ(column string, v any) Predicate {
	return func(b *Builder) { b.Ident(column).WriteString(" <> ").Arg(v) }
}

// IsNull matches rows where column is NULL.
func IsNull(column string) Predicate {
	return func(b *Builder) { b.Ident(column).WriteString(" IS NULL") }
}

// NotNull matches rows where column is not NULL.
func NotNull(column string) Predicate {
	return func(b *Builder) { b.Ident(column).WriteString(" IS NOT NULL") }
}

// And joins predicates with AND.
func And(preds ...Predicate) Predicate {
	return join(" AND ", preds)
}

// Or joins predicates with OR.
func Or(preds ...Predicate) Predicate {
	return join(" OR ", preds)
}

func join(op string, preds []Predicate) Predicate {
	return func(b *Builder) {
		if len(preds) == 1 {
			preds[0](b)
			return
		}
		b.WriteString("(")
		for i, p := range preds {
			if i > 0 {
				b.WriteString(op)
			}
			p(b)
		}
		b.WriteString(")")
	}
}

// Selector builds SELECT statements.
type Selector struct {
	Builder
	table   string
	columns []string
	where   []Predicate
	order   []string
	limit   int
	count   bool
}

// Select starts a SELECT of the given columns. No columns selects "*".
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// From sets the table.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Where adds a predicate. Multiple calls are joined with AND.
func (s *Selector) Where(p Predicate) *Selector {
	s.where = append(s.where, p)
	return s
}

// OrderBy appends ordering terms in the form "column" or "column DESC".
func (s *Selector) OrderBy(terms ...string) *Selector {
	s.order = append(s.order, terms...)
	return s
}

// Limit limits the number of returned rows.
func (s *Selector) Limit(n int) *Selector {
	s.limit = n
	return s
}

// Count turns the selector into a COUNT(*) query.
func (s *Selector) Count() *Selector {
	s.count = true
	return s
}

// Query returns the statement and its arguments.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	switch {
	case s.count:
		b.WriteString("COUNT(*)")
	case len(s.columns) == 0:
		b.WriteString("*")
	default:
		for i, c := range s.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
	}
	b.WriteString(" FROM ").Ident(s.table)
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		And(s.where...)(b)
	}
	if len(s.order) > 0 && !s.count {
		b.WriteString(" ORDER BY ")
		for i, term := range s.order {
			if i > 0 {
				b.WriteString(", ")
			}
			col, dir, _ := strings.Cut(term, " ")
			b.Ident(col)
			if dir != "" {
				b.WriteString(" " + strings.ToUpper(dir))
			}
		}
	}
	if s.limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	return b.Query()
}

// InsertBuilder builds INSERT statements.
type InsertBuilder struct {
	Builder
	table     string
	columns   []string
	values    []any
	returning string
}

// Insert starts an INSERT into table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Set adds a column value.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Returning sets the column returned by the statement (postgres only).
func (i *InsertBuilder) Returning(column string) *InsertBuilder {
	i.returning = column
	return i
}

// Query returns the statement and its arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ").Ident(i.table)
	if len(i.columns) == 0 {
		if b.dialect == dialect.MySQL {
			b.WriteString(" VALUES ()")
		} else {
			b.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.WriteString(" (")
		for n, c := range i.columns {
			if n > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
		b.WriteString(") VALUES (")
		for n, v := range i.values {
			if n > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	}
	if i.returning != "" && b.dialect == dialect.Postgres {
		b.WriteString(" RETURNING ").Ident(i.returning)
	}
	return b.Query()
}

// UpdateBuilder builds UPDATE statements.
type UpdateBuilder struct {
	Builder
	table   string
	columns []string
	values  []any
	where   []Predicate
}

// Update starts an UPDATE of table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds a column assignment.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where adds a predicate.
func (u *UpdateBuilder) Where(p Predicate) *UpdateBuilder {
	u.where = append(u.where, p)
	return u
}

// Empty reports whether the update has no assignments.
func (u *UpdateBuilder) Empty() bool { return len(u.columns) == 0 }

// Query returns the statement and its arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for n, c := range u.columns {
		if n > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[n])
	}
	if len(u.where) > 0 {
		b.WriteString(" WHERE ")
		And(u.where...)(b)
	}
	return b.Query()
}
