package gen

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen/dialect/sql/schema"
	"github.com/syssam/recordgen/dialect/sqlschema"
)

func ptr[T any](v T) *T { return &v }

// blogTables returns a small blog schema:
//
//	users 1-1 profiles, users 1-n posts (author, editor), posts n-n tags.
func blogTables() []*schema.Table {
	var (
		usersID = &schema.Column{Name: "id", Type: schema.TypeInt64, Increment: true}
		users   = schema.NewTable("users").
			AddPrimary(usersID).
			AddColumn(&schema.Column{Name: "name", Type: schema.TypeString, Size: 255}).
			AddColumn(&schema.Column{Name: "email", Type: schema.TypeString, Nullable: true, Unique: true}).
			AddColumn(&schema.Column{Name: "active", Type: schema.TypeBool, Default: ptr("1")}).
			AddColumn(&schema.Column{Name: "created_at", Type: schema.TypeTime}).
			AddColumn(&schema.Column{Name: "updated_at", Type: schema.TypeTime, Nullable: true}).
			AddColumn(&schema.Column{Name: "archived_at", Type: schema.TypeTime, Nullable: true})

		profileUser = &schema.Column{Name: "user_id", Type: schema.TypeInt64, Unique: true}
		profiles    = schema.NewTable("profiles").
				AddPrimary(&schema.Column{Name: "id", Type: schema.TypeInt64, Increment: true}).
				AddColumn(profileUser).
				AddColumn(&schema.Column{Name: "bio", Type: schema.TypeString, Nullable: true, Comment: "short biography"})

		postsID    = &schema.Column{Name: "id", Type: schema.TypeInt64, Increment: true}
		postAuthor = &schema.Column{Name: "author_id", Type: schema.TypeInt64}
		postEditor = &schema.Column{Name: "editor_id", Type: schema.TypeInt64, Nullable: true}
		posts      = schema.NewTable("posts").
				AddPrimary(postsID).
				AddColumn(postAuthor).
				AddColumn(postEditor).
				AddColumn(&schema.Column{Name: "title", Type: schema.TypeString}).
				AddColumn(&schema.Column{Name: "score", Type: schema.TypeFloat, Nullable: true})

		tagsID = &schema.Column{Name: "uuid", Type: schema.TypeUUID}
		tags   = schema.NewTable("tags").
			AddPrimary(tagsID).
			AddColumn(&schema.Column{Name: "label", Type: schema.TypeString})

		ptPost   = &schema.Column{Name: "post_id", Type: schema.TypeInt64}
		ptTag    = &schema.Column{Name: "tag_uuid", Type: schema.TypeUUID}
		postTags = schema.NewTable("post_tags").AddPrimary(ptPost).AddPrimary(ptTag)
	)
	profiles.AddForeignKeys(&schema.ForeignKey{
		Symbol: "profiles_user_id_fkey", Columns: []*schema.Column{profileUser},
		RefTable: users, RefColumns: []*schema.Column{usersID}, OnDelete: sqlschema.Cascade,
	})
	posts.AddForeignKeys(
		&schema.ForeignKey{
			Symbol: "posts_author_id_fkey", Columns: []*schema.Column{postAuthor},
			RefTable: users, RefColumns: []*schema.Column{usersID}, OnDelete: sqlschema.Cascade,
		},
		&schema.ForeignKey{
			Symbol: "posts_editor_id_fkey", Columns: []*schema.Column{postEditor},
			RefTable: users, RefColumns: []*schema.Column{usersID}, OnDelete: sqlschema.SetNull,
		},
	)
	postTags.AddForeignKeys(
		&schema.ForeignKey{
			Symbol: "post_tags_post_id_fkey", Columns: []*schema.Column{ptPost},
			RefTable: posts, RefColumns: []*schema.Column{postsID},
		},
		&schema.ForeignKey{
			Symbol: "post_tags_tag_uuid_fkey", Columns: []*schema.Column{ptTag},
			RefTable: tags, RefColumns: []*schema.Column{tagsID},
		},
	)
	return []*schema.Table{users, profiles, posts, tags, postTags}
}

func testConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	base := []Option{
		WithTarget("/out/entity"),
		WithPackage("example.com/app/entity"),
		WithFs(afero.NewMemMapFs()),
	}
	c, err := NewConfig(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func blogGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g, err := NewGraph(testConfig(t, opts...), blogTables())
	require.NoError(t, err)
	return g
}

func mustType(t *testing.T, g *Graph, table string) *Type {
	t.Helper()
	typ, err := g.Lookup(table)
	require.NoError(t, err)
	return typ
}

func mustEdge(t *testing.T, typ *Type, name string) *Edge {
	t.Helper()
	e, ok := typ.Edge(name)
	require.Truef(t, ok, "%s has no association %q", typ.Name, name)
	return e
}
