package gen

import (
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/recordgen/compiler/load"
)

func mustField(t *testing.T, typ *Type, name string) *Field {
	t.Helper()
	f, ok := typ.Field(name)
	require.Truef(t, ok, "%s has no field %q", typ.Name, name)
	return f
}

func TestKinds(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	tag := mustType(t, g, "tags")

	assert.Empty(t, Kinds(mustField(t, user, "id")))
	assert.Empty(t, Kinds(mustField(t, user, "createdAt")))
	assert.Equal(t, []MethodKind{Get}, Kinds(mustField(t, tag, "uuid")))
	assert.Equal(t, []MethodKind{Get, Set, Init}, Kinds(mustField(t, user, "name")))
	assert.Equal(t, []MethodKind{Get, Set, Init}, Kinds(mustEdge(t, user, "profile")))
	assert.Equal(t, []MethodKind{Get, Set, Init, Add, Remove}, Kinds(mustEdge(t, user, "posts")))
}

func TestMethodName(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	post := mustType(t, g, "posts")

	tests := []struct {
		m    Member
		kind MethodKind
		want string
	}{
		{mustField(t, user, "name"), Get, "GetName"},
		{mustField(t, user, "email"), Init, "InitEmail"},
		{mustField(t, post, "authorId"), Set, "SetAuthorID"},
		{mustEdge(t, user, "posts"), Add, "AddPost"},
		{mustEdge(t, user, "editorPosts"), Remove, "RemoveEditorPost"},
		{mustEdge(t, post, "tags"), Get, "GetTags"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, MethodName(tt.m, tt.kind))
		})
	}
}

func TestAccessorGenerator_Source(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	post := mustType(t, g, "posts")

	t.Run("getter of a required field", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(user, mustField(t, user, "name"), Get, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, src, "// GetName returns the name, or fallback when it is null.")
		assert.Contains(t, src, "func (u *User) GetName(fallback string) string {")
		assert.Contains(t, src, "return *u.name")
		assert.Contains(t, src, "return fallback")
	})

	t.Run("getter documents the default", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(user, mustField(t, user, "active"), Get, nil, jen.Lit("1"))
		require.NoError(t, err)
		assert.Contains(t, src, `// The column defaults to "1".`)
		assert.Contains(t, src, "func (u *User) GetActive(fallback bool) bool {")
	})

	t.Run("nullable setter stores the pointer", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(user, mustField(t, user, "email"), Set, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, src, "func (u *User) SetEmail(v *string) *User {")
		assert.Contains(t, src, "u.email = v")
	})

	t.Run("init writes only when null", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(user, mustField(t, user, "name"), Init, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, src, "if u.name == nil {")
		assert.Contains(t, src, "u.name = &v")
	})

	t.Run("hint overrides the value type", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(post, mustField(t, post, "title"), Set, jen.Qual("fmt", "Stringer"), nil)
		require.NoError(t, err)
		assert.Contains(t, src, "SetTitle(v fmt.Stringer) *Post")
	})

	t.Run("collection add and remove", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		posts := mustEdge(t, user, "posts")
		src, err := acc.Source(user, posts, Add, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, src, "func (u *User) AddPost(v *Post) *User {")
		assert.Contains(t, src, "u.posts = append(u.posts, v)")

		src, err = acc.Source(user, posts, Remove, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, src, "func (u *User) RemovePost(v *Post) {")
		assert.Contains(t, src, "slices.Index(u.posts, v)")
		assert.Contains(t, src, "slices.Delete(u.posts, i, i+1)")
	})

	t.Run("add does not apply to fields", func(t *testing.T) {
		acc := NewAccessorGenerator(nil, nil)
		src, err := acc.Source(user, mustField(t, user, "name"), Add, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, src)
	})
}

func TestAccessorGenerator_SkipDeclared(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	declared := load.Declared{}
	declared.Add("User", "GetName")

	core, logs := observer.New(zapcore.DebugLevel)
	acc := NewAccessorGenerator(declared, zap.New(core))

	src, err := acc.Source(user, mustField(t, user, "name"), Get, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, src)

	src, err = acc.Source(user, mustField(t, user, "name"), Set, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, src)

	// A member is emitted once per type.
	src, err = acc.Source(user, mustField(t, user, "name"), Set, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, src)

	// Members of the runtime model are never redeclared.
	assert.False(t, acc.Declare(user, "GetID"))
	assert.True(t, acc.Declare(user, "GetNickname"))

	skips := logs.FilterMessage("skip declared member")
	assert.Equal(t, 3, skips.Len())
	assert.Equal(t, 1, skips.FilterField(zap.String("member", "GetName")).Len())
}

func TestAccessorGenerator_Methods(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	acc := NewAccessorGenerator(nil, nil)

	// Each method is followed by a blank line.
	assert.Len(t, acc.Methods(user, mustField(t, user, "name")), 6)
	assert.Len(t, acc.Methods(user, mustEdge(t, user, "posts")), 10)
	assert.Empty(t, acc.Methods(user, mustField(t, user, "createdAt")))
}

func TestAccessorGenerator_Inherit(t *testing.T) {
	g, err := NewGraph(testConfig(t), keyedTables())
	require.NoError(t, err)
	post, code := mustType(t, g, "posts"), mustType(t, g, "codes")

	acc := NewAccessorGenerator(nil, nil)
	acc.Inherit("GetTitle")
	assert.False(t, acc.Declare(post, "GetTitle"))
	assert.True(t, acc.Declare(post, "SetTitle"))

	// Accessors of a string key replace the promoted integer ones.
	assert.True(t, code.Shadows("GetID"))
	assert.True(t, code.Shadows("HasID"))
	assert.False(t, code.Shadows("AssignID"))
	assert.False(t, post.Shadows("GetID"))
	assert.True(t, acc.Declare(code, "GetID"))
	assert.False(t, acc.Declare(code, "AssignID"))
	assert.False(t, acc.Declare(post, "GetID"))
}

func TestReceiver(t *testing.T) {
	for name, want := range map[string]string{
		"User":   "u",
		"Video":  "vi",
		"Item":   "it",
		"I":      "ix",
		"Iframe": "_if",
		"Func":   "f",
	} {
		assert.Equal(t, want, receiver(name), name)
	}
}
