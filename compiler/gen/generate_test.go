package gen

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen/compiler/load"
)

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	g := blogGraph(t)
	fs := g.Fs

	res, err := Generate(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Profile", "Post", "Tag"}, res.Types)
	assert.Len(t, res.Written, 12)
	assert.Empty(t, res.Skipped)

	for _, path := range []string{
		"/out/entity/user.go",
		"/out/entity/manifest/user.go",
		"/out/entity/validators/user.go",
		"/out/entity/tag.go",
	} {
		ok, err := afero.Exists(fs, filepath.FromSlash(path))
		require.NoError(t, err)
		assert.Truef(t, ok, "missing %s", path)
	}

	t.Run("entity", func(t *testing.T) {
		src := readFile(t, fs, filepath.Join("/out/entity", "user.go"))
		assert.Contains(t, src, "// Code generated by recordgen. DO NOT EDIT.")
		assert.Contains(t, src, "package entity")
		assert.Contains(t, src, "type User struct {")
		assert.Contains(t, src, "recordgen.Model")
		assert.Contains(t, src, "`orm:\"column=name;type=string\"`")
		assert.Contains(t, src, "func NewUser(s recordgen.Store) *User {")
		assert.Contains(t, src, "[]*Post{}")
		assert.Contains(t, src, "var userDescriptor = &recordgen.Descriptor{")
		assert.Contains(t, src, `recordgen.IDAccessor("id")`)
		assert.Contains(t, src, "recordgen.StrategyIdentity")
		assert.Contains(t, src, "recordgen.Convert[string](v)")
		assert.Contains(t, src, "recordgen.ConvertPtr[string](v)")
		assert.Contains(t, src, "func (u *User) AddPost(v *Post) *User {")
		assert.Contains(t, src, "func QueryUsers(ctx context.Context, s recordgen.Store, opts ...recordgen.ScopeOption) ([]*User, error) {")
		assert.Contains(t, src, "func FindUser(")
		assert.Contains(t, src, "validators.NewUser(recordgen.Values(u), userDescriptor.StoredFields()).Err()")
		// Model backed fields get no struct member.
		assert.NotContains(t, src, "createdAt *time.Time")
	})

	t.Run("uuid keys are loaded, not set", func(t *testing.T) {
		src := readFile(t, fs, filepath.Join("/out/entity", "tag.go"))
		assert.Contains(t, src, "recordgen.StrategyUUID")
		assert.Contains(t, src, "func (t *Tag) GetUUID(fallback string) string {")
		assert.NotContains(t, src, "SetUUID")
		assert.Contains(t, src, "Load: func(e recordgen.Entity, v any) bool {")
	})

	t.Run("manifest", func(t *testing.T) {
		src := readFile(t, fs, filepath.Join("/out/entity/manifest", "user.go"))
		assert.Contains(t, src, "package manifest")
		assert.Contains(t, src, `var User = recordgen.NewManifest("active", "archivedAt", "createdAt", "editorPosts", "email", "id", "name", "posts", "profile", "updatedAt")`)
		assert.NotContains(t, src, "DO NOT EDIT")
	})

	t.Run("validator", func(t *testing.T) {
		src := readFile(t, fs, filepath.Join("/out/entity/validators", "user.go"))
		assert.Contains(t, src, "package validators")
		assert.Contains(t, src, "*validate.Base")
		assert.Contains(t, src, "func NewUser(vars map[string]any, fields []string) *User {")
		assert.Contains(t, src, "func (v *User) Check(b *validate.Base) {")
	})
}

func TestGenerate_Idempotent(t *testing.T) {
	ctx := context.Background()
	g := blogGraph(t)
	_, err := Generate(ctx, g)
	require.NoError(t, err)

	manifestPath := filepath.Join("/out/entity/manifest", "user.go")
	require.NoError(t, afero.WriteFile(g.Fs, manifestPath, []byte("package manifest\n"), 0o644))
	entityPath := filepath.Join("/out/entity", "user.go")
	require.NoError(t, afero.WriteFile(g.Fs, entityPath, []byte("package entity\n"), 0o644))

	res, err := Generate(ctx, g)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Len(t, res.Skipped, 12)
	assert.Equal(t, "package entity\n", readFile(t, g.Fs, entityPath))

	t.Run("force re-renders only entities", func(t *testing.T) {
		g.Force = true
		res, err := Generate(ctx, g)
		require.NoError(t, err)
		assert.Len(t, res.Written, 4)
		assert.Contains(t, res.Written, entityPath)
		assert.Equal(t, "package manifest\n", readFile(t, g.Fs, manifestPath))
		assert.Contains(t, readFile(t, g.Fs, entityPath), "type User struct")
	})
}

func TestGenerate_DeclaredMembers(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/entity/user_ext.go", []byte(`package entity

func (u *User) GetName(fallback string) string { return "custom" }

func (u *User) ToJSON() ([]byte, error) { return nil, nil }
`), 0o644))
	g := blogGraph(t, WithFs(fs))
	declared, err := load.ScanDeclared(fs, "/out/entity")
	require.NoError(t, err)
	g.Declared = declared

	_, err = Generate(context.Background(), g)
	require.NoError(t, err)
	src := readFile(t, fs, filepath.Join("/out/entity", "user.go"))
	assert.NotContains(t, src, "func (u *User) GetName(")
	assert.NotContains(t, src, "func (u *User) ToJSON(")
	assert.Contains(t, src, "func (u *User) SetName(")
}

func TestGenerate_Ancestor(t *testing.T) {
	g := blogGraph(t,
		WithExtend("example.com/app/base.Base"),
		WithAncestor("GetTitle", "Model", "Title"),
	)
	_, err := Generate(context.Background(), g)
	require.NoError(t, err)
	src := readFile(t, g.Fs, filepath.Join("/out/entity", "post.go"))
	assert.Contains(t, src, "base.Base")
	assert.NotContains(t, src, "recordgen.Model\n")
	assert.NotContains(t, src, "func (p *Post) GetTitle(")
	assert.Contains(t, src, "func (p *Post) SetTitle(v string) *Post {")
	assert.Contains(t, src, "func (p *Post) GetScore(")
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing package", func(t *testing.T) {
		g := blogGraph(t)
		g.Package = ""
		_, err := Generate(ctx, g)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("unwritable destination", func(t *testing.T) {
		g := blogGraph(t, WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))
		_, err := Generate(ctx, g)
		require.Error(t, err)
		assert.True(t, IsOutputPathError(err))
		assert.ErrorIs(t, err, ErrOutputPath)
	})

	t.Run("destination is a file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/out/entity", []byte("x"), 0o644))
		g := blogGraph(t, WithFs(fs))
		_, err := Generate(ctx, g)
		require.Error(t, err)
		assert.True(t, IsOutputPathError(err))
	})
}
