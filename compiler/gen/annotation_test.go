package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordgen"
)

func TestTag(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	tag := mustType(t, g, "tags")
	profile := mustType(t, g, "profiles")

	tests := []struct {
		name string
		m    Member
		want string
	}{
		{"generated key", mustField(t, user, "id"), "id;generated=identity;column=id;type=int64"},
		{"uuid key", mustField(t, tag, "uuid"), "id;generated=uuid;column=uuid;type=uuid"},
		{"plain column", mustField(t, user, "name"), "column=name;type=string"},
		{"nullable unique", mustField(t, user, "email"), "column=email;type=string;nullable;unique"},
		{"default", mustField(t, user, "active"), "column=active;type=bool;default=1"},
		{"owning one to one", mustEdge(t, profile, "user"), "oneToOne;targetEntity=users;inversedBy=profile;joinColumns=user_id:id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := Tag(tt.m)
			assert.Equal(t, map[string]string{recordgen.MappingTag: tt.want}, tag)
			m, err := recordgen.ParseMapping(tag[recordgen.MappingTag])
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestDoc(t *testing.T) {
	g := blogGraph(t)
	user := mustType(t, g, "users")
	profile := mustType(t, g, "profiles")

	assert.Equal(t, `name maps column "name".`, Doc(mustField(t, user, "name")))
	assert.Equal(t, `bio maps column "bio": short biography`, Doc(mustField(t, profile, "bio")))
	assert.Equal(t, "posts is the inverse side of the oneToMany association with Post.", Doc(mustEdge(t, user, "posts")))
	assert.Equal(t, "user is the owning side of the oneToOne association with User.", Doc(mustEdge(t, profile, "user")))
}
