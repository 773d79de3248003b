package recordgen_test

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/syssam/recordgen"
)

// user and post are hand-written in the shape produced by the generator.

var userManifest = recordgen.NewManifest("createdAt", "name", "email", "posts")

type user struct {
	recordgen.Model
	name   *string
	email  *string
	secret *string
	posts  []*post
}

func newUser(s recordgen.Store) *user {
	u := &user{posts: []*post{}}
	u.Bind(s)
	return u
}

func (u *user) GetName(fallback string) string {
	if u.name != nil {
		return *u.name
	}
	return fallback
}

func (u *user) SetName(v string) *user {
	u.name = &v
	return u
}

func (u *user) InitName(v string) *user {
	if u.name == nil {
		u.name = &v
	}
	return u
}

func (u *user) GetEmail(fallback *string) *string {
	if u.email != nil {
		return u.email
	}
	return fallback
}

func (u *user) SetEmail(v *string) *user {
	u.email = v
	return u
}

func (u *user) GetSecret(fallback string) string {
	if u.secret != nil {
		return *u.secret
	}
	return fallback
}

func (u *user) AddPost(p *post) *user {
	u.posts = append(u.posts, p)
	return u
}

func (u *user) RemovePost(p *post) {
	if i := slices.Index(u.posts, p); i >= 0 {
		u.posts = slices.Delete(u.posts, i, i+1)
	}
}

func (u *user) PrintableFields() recordgen.Manifest { return userManifest }

func (u *user) Descriptor() *recordgen.Descriptor { return userDescriptor }

var userDescriptor = &recordgen.Descriptor{
	Name:       "User",
	Table:      "users",
	Strategy:   recordgen.StrategyIdentity,
	PrimaryKey: []string{recordgen.FieldID},
	Accessors: map[string]recordgen.Accessor{
		recordgen.FieldID:         recordgen.IDAccessor("id"),
		recordgen.FieldCreatedAt:  recordgen.CreatedAtAccessor("created_at"),
		recordgen.FieldUpdatedAt:  recordgen.UpdatedAtAccessor("updated_at"),
		recordgen.FieldArchivedAt: recordgen.ArchivedAtAccessor("archived_at"),
		"name": {
			Column: "name",
			Get: func(e recordgen.Entity) (any, bool) {
				u := e.(*user)
				if u.name == nil {
					return nil, false
				}
				return *u.name, true
			},
			Set: func(e recordgen.Entity, v any) bool {
				x, ok := recordgen.Convert[string](v)
				if ok {
					e.(*user).SetName(x)
				}
				return ok
			},
			Init: func(e recordgen.Entity, v any) bool {
				x, ok := recordgen.Convert[string](v)
				if ok {
					e.(*user).InitName(x)
				}
				return ok
			},
		},
		"email": {
			Column: "email",
			Get: func(e recordgen.Entity) (any, bool) {
				u := e.(*user)
				if u.email == nil {
					return nil, false
				}
				return *u.email, true
			},
			Set: func(e recordgen.Entity, v any) bool {
				x, ok := recordgen.ConvertPtr[string](v)
				if ok {
					e.(*user).SetEmail(x)
				}
				return ok
			},
		},
		"secret": {
			Column: "secret",
			Get: func(e recordgen.Entity) (any, bool) {
				u := e.(*user)
				if u.secret == nil {
					return nil, false
				}
				return *u.secret, true
			},
			Set: func(e recordgen.Entity, v any) bool {
				x, ok := recordgen.Convert[string](v)
				if ok {
					e.(*user).secret = &x
				}
				return ok
			},
			Init: func(e recordgen.Entity, v any) bool {
				x, ok := recordgen.Convert[string](v)
				if ok && e.(*user).secret == nil {
					e.(*user).secret = &x
				}
				return ok
			},
		},
		"posts": {
			Get: func(e recordgen.Entity) (any, bool) {
				return recordgen.Collection(e.(*user).posts), true
			},
		},
	},
	Relations: []recordgen.Relation{{
		Field:   "posts",
		Kind:    recordgen.OneToMany,
		Cascade: recordgen.CascadePersist | recordgen.CascadeRemove,
		Targets: func(e recordgen.Entity) []recordgen.Entity {
			return recordgen.Collection(e.(*user).posts)
		},
	}},
	New: func() recordgen.Entity { return newUser(nil) },
}

var postManifest = recordgen.NewManifest("title", "author")

type post struct {
	recordgen.Model
	title  *string
	author *user
}

func (p *post) SetTitle(v string) *post {
	p.title = &v
	return p
}

func (p *post) SetAuthor(u *user) *post {
	p.author = u
	return p
}

func (p *post) PrintableFields() recordgen.Manifest { return postManifest }

func (p *post) Descriptor() *recordgen.Descriptor { return postDescriptor }

var postDescriptor = &recordgen.Descriptor{
	Name:       "Post",
	Table:      "posts",
	Strategy:   recordgen.StrategyIdentity,
	PrimaryKey: []string{recordgen.FieldID},
	Accessors: map[string]recordgen.Accessor{
		recordgen.FieldID: recordgen.IDAccessor("id"),
		"title": {
			Column: "title",
			Get: func(e recordgen.Entity) (any, bool) {
				p := e.(*post)
				if p.title == nil {
					return nil, false
				}
				return *p.title, true
			},
		},
		"author": {
			Get: func(e recordgen.Entity) (any, bool) {
				p := e.(*post)
				if p.author == nil {
					return nil, false
				}
				return p.author, true
			},
		},
	},
	New: func() recordgen.Entity { return &post{} },
}

// memStore records every call and assigns sequential identifiers on flush.
type memStore struct {
	now       time.Time
	pending   []recordgen.Entity
	persisted [][]string
	flushes   int
	nextID    int64
	rows      []recordgen.Entity
	snapshots map[recordgen.Entity]map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		now:       time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		snapshots: make(map[recordgen.Entity]map[string]any),
	}
}

func (s *memStore) Now() time.Time { return s.now }

func (s *memStore) Persist(_ context.Context, e recordgen.Entity) error {
	s.pending = append(s.pending, e)
	return nil
}

func (s *memStore) Flush(context.Context) error {
	s.flushes++
	for _, e := range s.pending {
		vals := recordgen.Values(e)
		var written []string
		for f, v := range vals {
			if v != nil {
				written = append(written, f)
			}
		}
		slices.Sort(written)
		s.persisted = append(s.persisted, written)
		if !e.Base().HasID() {
			s.nextID++
			e.Base().AssignID(s.nextID)
			s.rows = append(s.rows, e)
		}
		e.Base().MarkPersisted()
		s.snapshots[e] = recordgen.Values(e)
	}
	s.pending = nil
	return nil
}

func (s *memStore) Select(_ context.Context, d *recordgen.Descriptor, sc recordgen.Scope) ([]recordgen.Entity, error) {
	var out []recordgen.Entity
	for _, e := range s.rows {
		if e.Descriptor() != d {
			continue
		}
		if !sc.IncludeArchived && e.Base().IsArchived() {
			continue
		}
		match := true
		for f, want := range sc.Where {
			got, _ := d.Accessors[f].Get(e)
			if got != want {
				match = false
			}
		}
		if match {
			out = append(out, e)
		}
		if sc.Limit > 0 && len(out) == sc.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context, d *recordgen.Descriptor, sc recordgen.Scope) (int, error) {
	rows, err := s.Select(ctx, d, sc)
	return len(rows), err
}

func (s *memStore) OriginalFieldValues(e recordgen.Entity) map[string]any {
	if snap, ok := s.snapshots[e]; ok {
		return maps.Clone(snap)
	}
	return nil
}
