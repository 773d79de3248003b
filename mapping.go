package recordgen

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// MappingTag is the struct tag key holding field mappings.
const MappingTag = "orm"

// RelationKind is the cardinality of an association.
type RelationKind string

// Cardinalities.
const (
	OneToOne   RelationKind = "oneToOne"
	ManyToOne  RelationKind = "manyToOne"
	OneToMany  RelationKind = "oneToMany"
	ManyToMany RelationKind = "manyToMany"
)

// ToMany reports whether the association holds a collection.
func (k RelationKind) ToMany() bool { return k == OneToMany || k == ManyToMany }

// Cascade is the set of operations cascaded along an association.
type Cascade uint8

// Cascaded operations.
const (
	CascadePersist Cascade = 1 << iota
	CascadeRemove
	CascadeDetach
	CascadeMerge
	CascadeRefresh

	CascadeAll = CascadePersist | CascadeRemove | CascadeDetach | CascadeMerge | CascadeRefresh
)

var cascadeTokens = []struct {
	op    Cascade
	token string
}{
	{CascadePersist, "persist"},
	{CascadeRemove, "remove"},
	{CascadeDetach, "detach"},
	{CascadeMerge, "merge"},
	{CascadeRefresh, "refresh"},
}

// Has reports whether every operation of op is cascaded.
func (c Cascade) Has(op Cascade) bool { return c&op == op }

// Tokens returns the cascade tokens: nil when empty, "all" when every
// operation is present.
func (c Cascade) Tokens() []string {
	switch {
	case c == 0:
		return nil
	case c.Has(CascadeAll):
		return []string{"all"}
	}
	var tokens []string
	for _, t := range cascadeTokens {
		if c.Has(t.op) {
			tokens = append(tokens, t.token)
		}
	}
	return tokens
}

// ParseCascade parses cascade tokens.
func ParseCascade(tokens ...string) (Cascade, error) {
	var c Cascade
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "all" {
			c |= CascadeAll
			continue
		}
		found := false
		for _, t := range cascadeTokens {
			if t.token == token {
				c |= t.op
				found = true
			}
		}
		if !found {
			return 0, errors.Newf("recordgen: unknown cascade operation %q", token)
		}
	}
	return c, nil
}

// Fetch is the loading policy of an association.
type Fetch string

// Fetch policies.
const (
	FetchLazy      Fetch = "lazy"
	FetchExtraLazy Fetch = "extra-lazy"
	FetchEager     Fetch = "eager"
)

// ParseFetch parses a fetch token. The empty string is lazy.
func ParseFetch(s string) (Fetch, error) {
	switch f := Fetch(strings.ToLower(s)); f {
	case "", FetchLazy:
		return FetchLazy, nil
	case FetchExtraLazy, FetchEager:
		return f, nil
	default:
		return "", errors.Newf("recordgen: unknown fetch policy %q", s)
	}
}

// JoinColumn links a local column to a referenced column.
type JoinColumn struct {
	Name       string
	Referenced string
}

// OrderTerm is one ordering term of a to-many association.
type OrderTerm struct {
	Field string
	Desc  bool
}

// Mapping is the declarative mapping of one struct field, stored in the
// "orm" struct tag. Segments are separated by ";" and rendered in a fixed
// order: identity markers, column or relation declaration, inversedBy or
// mappedBy, cascade, orphanRemoval, fetch, join columns or join table,
// orderBy.
type Mapping struct {
	ID        bool
	Generated Strategy

	Column   string
	Type     string
	Nullable bool
	Unique   bool
	Default  *string

	Relation           RelationKind
	TargetEntity       string
	InversedBy         string
	MappedBy           string
	Cascade            Cascade
	OrphanRemoval      bool
	Fetch              Fetch
	JoinColumns        []JoinColumn
	JoinTable          string
	InverseJoinColumns []JoinColumn
	OrderBy            []OrderTerm
}

// String renders the tag value.
func (m *Mapping) String() string {
	var segs []string
	if m.ID {
		segs = append(segs, "id")
		if m.Generated != "" && m.Generated != StrategyNone {
			segs = append(segs, "generated="+string(m.Generated))
		}
	}
	if m.Relation == "" {
		segs = append(segs, "column="+m.Column)
		if m.Type != "" {
			segs = append(segs, "type="+m.Type)
		}
		if m.Nullable {
			segs = append(segs, "nullable")
		}
		if m.Unique {
			segs = append(segs, "unique")
		}
		if m.Default != nil {
			segs = append(segs, "default="+url.PathEscape(*m.Default))
		}
		return strings.Join(segs, ";")
	}
	segs = append(segs, string(m.Relation), "targetEntity="+m.TargetEntity)
	switch {
	case m.InversedBy != "":
		segs = append(segs, "inversedBy="+m.InversedBy)
	case m.MappedBy != "":
		segs = append(segs, "mappedBy="+m.MappedBy)
	}
	if tokens := m.Cascade.Tokens(); len(tokens) > 0 {
		segs = append(segs, "cascade="+strings.Join(tokens, ","))
	}
	if m.OrphanRemoval {
		segs = append(segs, "orphanRemoval")
	}
	if m.Fetch != "" && m.Fetch != FetchLazy {
		segs = append(segs, "fetch="+string(m.Fetch))
	}
	if m.JoinTable != "" {
		segs = append(segs,
			"joinTable="+m.JoinTable,
			"joinColumns="+joinColumns(m.JoinColumns),
			"inverseJoinColumns="+joinColumns(m.InverseJoinColumns),
		)
	} else if len(m.JoinColumns) > 0 {
		segs = append(segs, "joinColumns="+joinColumns(m.JoinColumns))
	}
	if len(m.OrderBy) > 0 {
		terms := make([]string, len(m.OrderBy))
		for i, o := range m.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			terms[i] = o.Field + ":" + dir
		}
		segs = append(segs, "orderBy="+strings.Join(terms, ","))
	}
	return strings.Join(segs, ";")
}

func joinColumns(cols []JoinColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.Name + ":" + c.Referenced
	}
	return strings.Join(parts, ",")
}

// ParseMapping parses an "orm" tag value and validates it.
func ParseMapping(tag string) (*Mapping, error) {
	m := &Mapping{}
	for _, seg := range strings.Split(tag, ";") {
		key, value, hasValue := strings.Cut(seg, "=")
		var err error
		switch key {
		case "id":
			m.ID = true
		case "generated":
			m.Generated = Strategy(value)
		case "column":
			m.Column = value
		case "type":
			m.Type = value
		case "nullable":
			m.Nullable = true
		case "unique":
			m.Unique = true
		case "default":
			var v string
			if v, err = url.PathUnescape(value); err == nil {
				m.Default = &v
			}
		case string(OneToOne), string(ManyToOne), string(OneToMany), string(ManyToMany):
			m.Relation = RelationKind(key)
		case "targetEntity":
			m.TargetEntity = value
		case "inversedBy":
			m.InversedBy = value
		case "mappedBy":
			m.MappedBy = value
		case "cascade":
			m.Cascade, err = ParseCascade(strings.Split(value, ",")...)
		case "orphanRemoval":
			m.OrphanRemoval = true
		case "fetch":
			m.Fetch, err = ParseFetch(value)
		case "joinColumns":
			m.JoinColumns, err = parseJoinColumns(value)
		case "joinTable":
			m.JoinTable = value
		case "inverseJoinColumns":
			m.InverseJoinColumns, err = parseJoinColumns(value)
		case "orderBy":
			m.OrderBy, err = parseOrderBy(value)
		default:
			err = errors.Newf("unknown segment %q", key)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "recordgen: parse mapping %q", tag)
		}
		if hasValue && value == "" && key != "default" {
			return nil, errors.Newf("recordgen: parse mapping %q: empty value for %q", tag, key)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the structural invariants of the mapping.
func (m *Mapping) Validate() error {
	if m.Relation == "" {
		if m.Column == "" {
			return errors.New("recordgen: mapping declares neither a column nor a relation")
		}
		return nil
	}
	switch {
	case m.TargetEntity == "":
		return errors.Newf("recordgen: %s mapping without targetEntity", m.Relation)
	case m.InversedBy != "" && m.MappedBy != "":
		return errors.New("recordgen: inversedBy and mappedBy are mutually exclusive")
	case m.MappedBy != "" && (len(m.JoinColumns) > 0 || m.JoinTable != ""):
		return errors.New("recordgen: the inverse side declares no join columns")
	case m.Relation == OneToMany && m.MappedBy == "":
		return errors.New("recordgen: oneToMany must be the inverse side (mappedBy)")
	case m.MappedBy != "":
		return nil
	case m.Relation == ManyToMany && m.JoinTable == "":
		return errors.New("recordgen: owning manyToMany requires a joinTable")
	case m.Relation != ManyToMany && m.JoinTable != "":
		return errors.Newf("recordgen: %s cannot declare a joinTable", m.Relation)
	case m.Relation != ManyToMany && len(m.JoinColumns) == 0:
		return errors.Newf("recordgen: owning %s requires joinColumns", m.Relation)
	}
	return nil
}

func parseJoinColumns(s string) ([]JoinColumn, error) {
	var cols []JoinColumn
	for _, part := range strings.Split(s, ",") {
		name, ref, ok := strings.Cut(part, ":")
		if !ok || name == "" || ref == "" {
			return nil, errors.Newf("invalid join column %q", part)
		}
		cols = append(cols, JoinColumn{Name: name, Referenced: ref})
	}
	return cols, nil
}

func parseOrderBy(s string) ([]OrderTerm, error) {
	var terms []OrderTerm
	for _, part := range strings.Split(s, ",") {
		field, dir, _ := strings.Cut(part, ":")
		switch strings.ToLower(dir) {
		case "", "asc":
			terms = append(terms, OrderTerm{Field: field})
		case "desc":
			terms = append(terms, OrderTerm{Field: field, Desc: true})
		default:
			return nil, errors.Newf("invalid order direction %q", dir)
		}
	}
	return terms, nil
}
