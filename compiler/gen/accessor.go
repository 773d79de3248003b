package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/syssam/recordgen/compiler/load"
)

// MethodKind selects the accessor method to generate.
type MethodKind int

// Accessor method kinds.
const (
	Get MethodKind = iota
	Set
	Init
	Add
	Remove
)

// String returns the kind name.
func (k MethodKind) String() string {
	switch k {
	case Get:
		return "get"
	case Set:
		return "set"
	case Init:
		return "init"
	case Add:
		return "add"
	case Remove:
		return "remove"
	}
	return "unknown"
}

// Member is a field or an association of a type.
type Member interface {
	MemberName() string
	StructField() string
	MethodSuffix() string
	GoType() jen.Code
	ToMany() bool
}

var (
	_ Member = (*Field)(nil)
	_ Member = (*Edge)(nil)
)

// MethodName returns the name of the accessor of kind for m.
func MethodName(m Member, kind MethodKind) string {
	switch kind {
	case Add, Remove:
		if e, ok := m.(*Edge); ok {
			return capitalize(kind.String()) + e.ElementSuffix()
		}
	}
	return capitalize(kind.String()) + m.MethodSuffix()
}

// Kinds returns the accessor kinds generated for m. Fields backed by the
// runtime model get none, keys assigned by storage only a getter.
func Kinds(m Member) []MethodKind {
	switch m := m.(type) {
	case *Field:
		switch {
		case m.Base():
			return nil
		case m.Generated():
			return []MethodKind{Get}
		}
		return []MethodKind{Get, Set, Init}
	case *Edge:
		if m.ToMany() {
			return []MethodKind{Get, Set, Init, Add, Remove}
		}
	}
	return []MethodKind{Get, Set, Init}
}

// AccessorGenerator emits accessor methods. A method already declared by
// hand, by the embedded base or by an earlier call is skipped.
type AccessorGenerator struct {
	declared load.Declared
	emitted  load.Declared
	base     load.Declared
	log      *zap.Logger
}

// NewAccessorGenerator returns a generator honouring the declared members.
func NewAccessorGenerator(declared load.Declared, log *zap.Logger) *AccessorGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessorGenerator{
		declared: declared,
		emitted:  make(load.Declared),
		base:     baseMembers,
		log:      log,
	}
}

// Inherit adds the members of the embedded base type. Entities never
// redeclare them, unless a field of the entity replaces a runtime field.
func (g *AccessorGenerator) Inherit(members ...string) {
	base := make(load.Declared)
	base.Merge(g.base)
	base.Add("", members...)
	g.base = base
}

// Declare reserves the member name for t. It reports false, and logs the
// skip, when the name is already declared.
func (g *AccessorGenerator) Declare(t *Type, name string) bool {
	if g.declared.Has(t.Name, name) || g.emitted.Has(t.Name, name) || (!t.Embeddable && g.base.Has("", name) && !t.Shadows(name)) {
		g.log.Debug("skip declared member", zap.String("type", t.Name), zap.String("member", name))
		return false
	}
	g.emitted.Add(t.Name, name)
	return true
}

// Method returns the accessor of kind for m. hint overrides the value type
// and def, when set, documents the column default. The second result is
// false when the method is skipped or does not apply to m.
func (g *AccessorGenerator) Method(t *Type, m Member, kind MethodKind, hint jen.Code, def *jen.Statement) (jen.Code, bool) {
	e, isEdge := m.(*Edge)
	if (kind == Add || kind == Remove) && (!isEdge || !e.ToMany()) {
		return nil, false
	}
	name := MethodName(m, kind)
	if !g.Declare(t, name) {
		return nil, false
	}
	if hint == nil {
		hint = m.GoType()
	}
	var (
		r     = t.Receiver()
		field = jen.Id(r).Dot(m.StructField())
		self  = jen.Id(r).Op("*").Id(t.Name)
		ptr   = false
		label = m.MemberName()
		code  = &jen.Statement{}
	)
	if f, ok := m.(*Field); ok {
		ptr = !f.Nullable
	}
	switch kind {
	case Get:
		code.Commentf("%s returns the %s, or fallback when it is null.", name, label)
		if def != nil {
			code.Line().Commentf("The column defaults to %#v.", def)
		}
		value := field.Clone()
		if ptr {
			value = jen.Op("*").Add(field.Clone())
		}
		code.Line().Func().Params(self).Id(name).Params(jen.Id("fallback").Add(hint)).Add(hint).Block(
			jen.If(field.Clone().Op("!=").Nil()).Block(jen.Return(value)),
			jen.Return(jen.Id("fallback")),
		)
	case Set:
		code.Commentf("%s sets the %s.", name, label)
		code.Line().Func().Params(self).Id(name).Params(jen.Id("v").Add(hint)).Op("*").Id(t.Name).Block(
			assign(field, ptr),
			jen.Return(jen.Id(r)),
		)
	case Init:
		code.Commentf("%s sets the %s unless it is already set.", name, label)
		code.Line().Func().Params(self).Id(name).Params(jen.Id("v").Add(hint)).Op("*").Id(t.Name).Block(
			jen.If(field.Clone().Op("==").Nil()).Block(assign(field, ptr)),
			jen.Return(jen.Id(r)),
		)
	case Add:
		code.Commentf("%s appends v to the %s.", name, label)
		code.Line().Func().Params(self).Id(name).Params(jen.Id("v").Add(e.ElemType())).Op("*").Id(t.Name).Block(
			field.Clone().Op("=").Append(field.Clone(), jen.Id("v")),
			jen.Return(jen.Id(r)),
		)
	case Remove:
		code.Commentf("%s removes the first occurrence of v from the %s.", name, label)
		code.Line().Func().Params(self).Id(name).Params(jen.Id("v").Add(e.ElemType())).Block(
			jen.If(
				jen.Id("i").Op(":=").Qual("slices", "Index").Call(field.Clone(), jen.Id("v")),
				jen.Id("i").Op(">=").Lit(0),
			).Block(
				field.Clone().Op("=").Qual("slices", "Delete").Call(field.Clone(), jen.Id("i"), jen.Id("i").Op("+").Lit(1)),
			),
		)
	}
	return code, true
}

// Methods returns every accessor of m that is not skipped.
func (g *AccessorGenerator) Methods(t *Type, m Member) []jen.Code {
	var def *jen.Statement
	if f, ok := m.(*Field); ok && f.Default != nil {
		def = jen.Lit(*f.Default)
	}
	var methods []jen.Code
	for _, kind := range Kinds(m) {
		if code, ok := g.Method(t, m, kind, nil, def); ok {
			methods = append(methods, code, jen.Line())
		}
	}
	return methods
}

// Source renders the accessor of kind for m as Go source. It returns an
// empty string when the method is skipped.
func (g *AccessorGenerator) Source(t *Type, m Member, kind MethodKind, hint jen.Code, def *jen.Statement) (string, error) {
	code, ok := g.Method(t, m, kind, hint, def)
	if !ok {
		return "", nil
	}
	var buf bytes.Buffer
	if err := code.(*jen.Statement).Render(&buf); err != nil {
		return "", NewGenerationError("accessor", "", fmt.Sprintf("render %s.%s", t.Name, MethodName(m, kind)), err)
	}
	return buf.String(), nil
}

func assign(field *jen.Statement, ptr bool) jen.Code {
	if ptr {
		return field.Clone().Op("=").Op("&").Id("v")
	}
	return field.Clone().Op("=").Id("v")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
