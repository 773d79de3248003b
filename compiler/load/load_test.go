package load_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen/compiler/load"
	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

const yamlSchema = `
dialect: postgres
tables:
  - name: users
    columns:
      - {name: id, type: int64, increment: true}
      - {name: name, type: string, size: 120}
      - {name: email, type: string, nullable: true, unique: true}
    primary_key: [id]
  - name: profiles
    columns:
      - {name: id, type: uuid}
      - {name: user_id, type: int64, unique: true}
    primary_key: [id]
    foreign_keys:
      - {columns: [user_id], ref_table: users, ref_columns: [id], on_delete: CASCADE}
  - name: users
    annotation:
      printable: [name]
`

const tomlSchema = `
dialect = "mysql"

[[tables]]
name = "accounts"
primary_key = ["id"]

  [[tables.columns]]
  name = "id"
  type = "int64"
  increment = true

  [[tables.columns]]
  name = "owner_id"
  type = "int64"

  [[tables.foreign_keys]]
  columns = ["owner_id"]
  ref_table = "owners"
  ref_columns = ["id"]
`

func TestFileReflectorYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.yaml", []byte(yamlSchema), 0o644))

	s, err := load.ReadSchema(fs, "schema.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.Dialect)

	tables, err := (&load.FileReflector{Fs: fs, Path: "schema.yaml"}).Reflect(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2, "annotation-only specs do not declare tables")

	users := tables[0]
	assert.Equal(t, "users", users.Name)
	assert.True(t, users.PrimaryKey[0].Increment)
	name, _ := users.Column("name")
	assert.Equal(t, int64(120), name.Size)

	profiles := tables[1]
	fk, ok := profiles.ForeignKey("user_id")
	require.True(t, ok)
	assert.Same(t, users, fk.RefTable)
	assert.Equal(t, "profiles_user_id_fkey", fk.Symbol)
	assert.True(t, profiles.IsUnique(fk.Columns))
	id, _ := profiles.Column("id")
	assert.Equal(t, schema.TypeUUID, id.Type)

	s.Annotate(tables)
	assert.False(t, users.Annotation.IsPrintable("email"))
	assert.True(t, users.Annotation.IsPrintable("name"))
}

func TestFileReflectorTOML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.toml", []byte(tomlSchema), 0o644))

	tables, err := (&load.FileReflector{Fs: fs, Path: "schema.toml"}).Reflect(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	fk, ok := tables[0].ForeignKey("owner_id")
	require.True(t, ok)
	assert.Equal(t, "owners", fk.RefTable.Name)
	assert.Empty(t, fk.RefTable.Columns, "unknown targets are left detached")
}

func TestFileReflectorJSON(t *testing.T) {
	users := schema.NewTable("users").AddPrimary(&schema.Column{Name: "id", Type: schema.TypeInt64, Increment: true})
	buf, err := load.MarshalSchema([]*schema.Table{users})
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.json", buf, 0o644))
	tables, err := (&load.FileReflector{Fs: fs, Path: "schema.json"}).Reflect(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, schema.TypeInt64, tables[0].PrimaryKey[0].Type)
}

func TestFileReflectorErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.xml", []byte("<tables/>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`
tables:
  - name: t
    columns: [{name: a, type: int}]
    primary_key: [b]
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "dup.yaml", []byte(`
tables:
  - {name: t, columns: [{name: a, type: int}]}
  - {name: t, columns: [{name: a, type: int}]}
`), 0o644))

	for path, msg := range map[string]string{
		"missing.yaml": "read schema file",
		"schema.xml":   "unsupported schema file extension",
		"bad.yaml":     `primary key column "b" is not declared`,
		"dup.yaml":     "declared twice",
	} {
		_, err := (&load.FileReflector{Fs: fs, Path: path}).Reflect(context.Background())
		require.Error(t, err, path)
		assert.Contains(t, err.Error(), msg, path)
	}
}

func TestAnnotated(t *testing.T) {
	base := load.ReflectFunc(func(context.Context) ([]*schema.Table, error) {
		return []*schema.Table{schema.NewTable("users")}, nil
	})
	s := &load.Schema{Tables: []*load.TableSpec{
		{Name: "users", Annotation: &sqlschema.Annotation{Strategy: "uuid"}},
		{Name: "users", Annotation: &sqlschema.Annotation{Skip: true}},
		{Name: "missing", Annotation: &sqlschema.Annotation{Skip: true}},
	}}
	tables, err := load.Annotated(base, s).Reflect(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.NotNil(t, tables[0].Annotation)
	assert.Equal(t, "uuid", tables[0].Annotation.Strategy)
	assert.True(t, tables[0].Annotation.Skip)
}
