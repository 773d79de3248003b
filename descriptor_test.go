package recordgen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen"
)

func TestFromDataFiltersKeys(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	u, err := recordgen.Create(ctx, newUser(store), map[string]any{
		"name":    "Ann",
		"secret":  "x",
		"unknown": 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.GetName(""))
	assert.Equal(t, "", u.GetSecret(""))

	require.Len(t, store.persisted, 1)
	assert.NotContains(t, store.persisted[0], "secret")
	assert.Contains(t, store.persisted[0], "name")
}

func TestFromDataKeepsExistingValues(t *testing.T) {
	u := newUser(nil).SetName("Ann")
	recordgen.FromData(u, map[string]any{"name": "Bob"})
	assert.Equal(t, "Ann", u.GetName(""))

	recordgen.Fill(u, map[string]any{"name": "Bob"})
	assert.Equal(t, "Bob", u.GetName(""))
}

func TestFillToleratesMalformedInput(t *testing.T) {
	u := newUser(nil).SetName("Ann")
	assert.NotPanics(t, func() {
		recordgen.Fill(u, map[string]any{
			"name":      []int{1, 2},
			"posts":     "no setter",
			"createdAt": "not a time",
			"id":        99,
		})
	})
	assert.Equal(t, "Ann", u.GetName(""))
	assert.False(t, u.HasID())
	assert.Equal(t, recordgen.Transient, u.State())
}

func TestFillNullableField(t *testing.T) {
	email := "ann@example.com"
	u := newUser(nil).SetEmail(&email)
	recordgen.Fill(u, map[string]any{"email": nil})
	assert.Nil(t, u.GetEmail(nil))
}

func TestDescriptor(t *testing.T) {
	assert.Equal(t, []string{"archivedAt", "createdAt", "email", "id", "name", "posts", "secret", "updatedAt"}, userDescriptor.FieldNames())
	assert.True(t, userDescriptor.HasField("secret"))
	assert.False(t, userDescriptor.HasField("password"))

	col, ok := userDescriptor.Column("createdAt")
	assert.True(t, ok)
	assert.Equal(t, "created_at", col)
	_, ok = userDescriptor.Column("posts")
	assert.False(t, ok, "inverse associations have no column")

	col, ok = userDescriptor.ArchiveColumn()
	assert.True(t, ok)
	assert.Equal(t, "archived_at", col)
	_, ok = postDescriptor.ArchiveColumn()
	assert.False(t, ok)

	assert.Equal(t, []string{"archivedAt", "createdAt", "email", "id", "name", "secret", "updatedAt"}, userDescriptor.StoredFields(),
		"validators see columns, not associations")
	assert.NotContains(t, userDescriptor.Columns(), "posts")
	assert.Equal(t, "name", userDescriptor.Columns()["name"])
}

func TestStrategyGenerated(t *testing.T) {
	assert.True(t, recordgen.StrategyIdentity.Generated())
	assert.True(t, recordgen.StrategySequence.Generated())
	assert.True(t, recordgen.StrategyUUID.Generated())
	assert.False(t, recordgen.StrategyNone.Generated())
}

func TestQueryAndFind(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ann := newUser(store).SetName("Ann")
	bob := newUser(store).SetName("Bob")
	require.NoError(t, ann.save(ctx))
	require.NoError(t, bob.save(ctx))
	require.NoError(t, recordgen.Archive(ctx, bob))

	users, err := recordgen.Query[*user](ctx, store, userDescriptor)
	require.NoError(t, err)
	assert.Equal(t, []*user{ann}, users)

	n, err := recordgen.Count(ctx, store, userDescriptor, recordgen.WithArchived())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, err := recordgen.Find[*user](ctx, store, userDescriptor, int64(1))
	require.NoError(t, err)
	assert.Same(t, ann, found)

	_, err = recordgen.Find[*user](ctx, store, userDescriptor, bob.GetID(0))
	assert.True(t, recordgen.IsNotFound(err), "archived rows are hidden by default")

	found, err = recordgen.Find[*user](ctx, store, userDescriptor, bob.GetID(0), recordgen.WithArchived())
	require.NoError(t, err)
	assert.Same(t, bob, found)
}

func TestNewScope(t *testing.T) {
	s := recordgen.NewScope()
	assert.False(t, s.IncludeArchived)

	s = recordgen.NewScope(recordgen.WithArchived(), recordgen.Where("name", "Ann"), recordgen.OrderBy("name:desc"), recordgen.Limit(3))
	assert.True(t, s.IncludeArchived)
	assert.Equal(t, map[string]any{"name": "Ann"}, s.Where)
	assert.Equal(t, []string{"name:desc"}, s.OrderBy)
	assert.Equal(t, 3, s.Limit)
}
