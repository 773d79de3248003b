package load

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/recordgen/dialect"
	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

// AtlasReflector inspects a live database with the atlas inspectors.
type AtlasReflector struct {
	DB      *sql.DB
	Dialect string
	// Schemas lists the database schemas to inspect. Empty means the
	// connection's current schema. Several schemas are inspected
	// concurrently.
	Schemas []string
}

// Reflect implements Reflector.
func (r *AtlasReflector) Reflect(ctx context.Context) ([]*schema.Table, error) {
	drv, err := r.driver()
	if err != nil {
		return nil, err
	}
	names := r.Schemas
	if len(names) == 0 {
		names = []string{""}
	}
	inspected := make([]*atlas.Schema, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			s, err := drv.InspectSchema(ctx, name, &atlas.InspectOptions{})
			if err != nil {
				return errors.Wrapf(err, "load: inspect schema %q", name)
			}
			inspected[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var tables []*atlas.Table
	for _, s := range inspected {
		tables = append(tables, s.Tables...)
	}
	return convertTables(dialect.Normalize(r.Dialect), tables), nil
}

func (r *AtlasReflector) driver() (migrate.Driver, error) {
	var (
		drv migrate.Driver
		err error
	)
	switch d := dialect.Normalize(r.Dialect); d {
	case dialect.Postgres:
		drv, err = postgres.Open(r.DB)
	case dialect.MySQL:
		drv, err = mysql.Open(r.DB)
	case dialect.SQLite:
		drv, err = sqlite.Open(r.DB)
	default:
		return nil, errors.Newf("load: unsupported dialect %q", r.Dialect)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load: open %s inspector", r.Dialect)
	}
	return drv, nil
}

// convertTables maps atlas tables to schema tables. Foreign keys to tables
// outside the inspected set point at a detached table of the same name.
func convertTables(d string, in []*atlas.Table) []*schema.Table {
	var (
		out    = make([]*schema.Table, 0, len(in))
		byPtr  = make(map[*atlas.Table]*schema.Table, len(in))
		byName = make(map[string]*schema.Table, len(in))
	)
	for _, at := range in {
		t := convertTable(d, at)
		out = append(out, t)
		byPtr[at] = t
		byName[at.Name] = t
	}
	for _, at := range in {
		t := byPtr[at]
		for _, afk := range at.ForeignKeys {
			fk := &schema.ForeignKey{
				Symbol:   afk.Symbol,
				OnDelete: sqlschema.ReferenceOption(afk.OnDelete),
				OnUpdate: sqlschema.ReferenceOption(afk.OnUpdate),
			}
			for _, c := range afk.Columns {
				if col, ok := t.Column(c.Name); ok {
					fk.Columns = append(fk.Columns, col)
				}
			}
			ref, ok := byPtr[afk.RefTable]
			if !ok && afk.RefTable != nil {
				if ref, ok = byName[afk.RefTable.Name]; !ok {
					ref = schema.NewTable(afk.RefTable.Name)
				}
			}
			fk.RefTable = ref
			for _, c := range afk.RefColumns {
				col, ok := ref.Column(c.Name)
				if !ok {
					col = &schema.Column{Name: c.Name}
				}
				fk.RefColumns = append(fk.RefColumns, col)
			}
			t.AddForeignKeys(fk)
		}
	}
	return out
}

func convertTable(d string, at *atlas.Table) *schema.Table {
	t := schema.NewTable(at.Name)
	if at.Schema != nil {
		t.Schema = at.Schema.Name
	}
	t.Comment = comment(at.Attrs)
	for _, ac := range at.Columns {
		c := &schema.Column{
			Name:    ac.Name,
			Comment: comment(ac.Attrs),
		}
		if ac.Type != nil {
			c.Type, c.Size = convertType(ac.Type.Type)
			c.RawType = ac.Type.Raw
			c.Nullable = ac.Type.Null
			if c.Type == schema.TypeOther && strings.Contains(strings.ToLower(c.RawType), "uuid") {
				c.Type = schema.TypeUUID
			}
		}
		switch x := ac.Default.(type) {
		case *atlas.Literal:
			c.Default = &x.V
		case *atlas.RawExpr:
			c.Default = &x.X
		}
		c.Increment = increment(ac)
		t.AddColumn(c)
	}
	if at.PrimaryKey != nil {
		for _, p := range at.PrimaryKey.Parts {
			if p.C == nil {
				continue
			}
			if c, ok := t.Column(p.C.Name); ok {
				t.PrimaryKey = append(t.PrimaryKey, c)
			}
		}
	}
	// An INTEGER PRIMARY KEY is the rowid in SQLite and always generated.
	if d == dialect.SQLite && len(t.PrimaryKey) == 1 && t.PrimaryKey[0].Type.Numeric() {
		t.PrimaryKey[0].Increment = true
	}
	if slices.ContainsFunc(at.Attrs, func(a atlas.Attr) bool { _, ok := a.(*sqlite.AutoIncrement); return ok }) && len(t.PrimaryKey) == 1 {
		t.PrimaryKey[0].Increment = true
	}
	for _, idx := range at.Indexes {
		var cols []string
		for _, p := range idx.Parts {
			if p.C != nil {
				cols = append(cols, p.C.Name)
			}
		}
		if len(cols) == 0 {
			continue
		}
		t.AddIndex(idx.Name, idx.Unique, cols...)
		if idx.Unique && len(cols) == 1 {
			if c, ok := t.Column(cols[0]); ok {
				c.Unique = true
			}
		}
	}
	return t
}

func convertType(t atlas.Type) (schema.Type, int64) {
	switch x := t.(type) {
	case *atlas.BoolType:
		return schema.TypeBool, 0
	case *atlas.IntegerType:
		return integerType(x.T), 0
	case *postgres.SerialType:
		return integerType(x.T), 0
	case *atlas.FloatType:
		return schema.TypeFloat, 0
	case *atlas.DecimalType:
		return schema.TypeDecimal, 0
	case *atlas.StringType:
		return schema.TypeString, int64(x.Size)
	case *atlas.EnumType:
		return schema.TypeEnum, 0
	case *atlas.BinaryType:
		return schema.TypeBytes, 0
	case *atlas.TimeType:
		return schema.TypeTime, 0
	case *atlas.UUIDType:
		return schema.TypeUUID, 0
	case *atlas.JSONType:
		return schema.TypeJSON, 0
	default:
		return schema.TypeOther, 0
	}
}

func integerType(name string) schema.Type {
	switch strings.ToLower(name) {
	case "tinyint", "smallint", "mediumint", "int", "int2", "int4", "serial", "smallserial":
		return schema.TypeInt
	default:
		return schema.TypeInt64
	}
}

func increment(c *atlas.Column) bool {
	if c.Type != nil {
		if _, ok := c.Type.Type.(*postgres.SerialType); ok {
			return true
		}
	}
	for _, a := range c.Attrs {
		switch a.(type) {
		case *mysql.AutoIncrement, *postgres.Identity, *sqlite.AutoIncrement:
			return true
		}
	}
	return false
}

func comment(attrs []atlas.Attr) string {
	for _, a := range attrs {
		if c, ok := a.(*atlas.Comment); ok {
			return c.Text
		}
	}
	return ""
}
