package gen

import (
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/recordgen"
)

// ArtifactKind identifies a generated file.
type ArtifactKind int

// Artifact kinds.
const (
	FieldManifest ArtifactKind = iota
	EntityClass
	ValidatorStub
)

// String returns the kind name.
func (k ArtifactKind) String() string {
	switch k {
	case FieldManifest:
		return "manifest"
	case EntityClass:
		return "entity"
	case ValidatorStub:
		return "validator"
	}
	return "unknown"
}

// curatedHeader heads the files written once and then maintained by hand.
const curatedHeader = "Code generated by recordgen. Edits are kept: the file is only written when missing."

// Artifact is one file produced for a type.
type Artifact struct {
	Kind ArtifactKind
	Type *Type
	Path string
	File *jen.File
}

// Assembler produces the artifacts of the graph types.
type Assembler struct {
	graph *Graph
	acc   *AccessorGenerator
}

// NewAssembler returns an assembler over g.
func NewAssembler(g *Graph) *Assembler {
	acc := NewAccessorGenerator(g.Declared, g.logger())
	acc.Inherit(g.Ancestor...)
	return &Assembler{graph: g, acc: acc}
}

// Assemble returns the artifacts of every type selected for generation.
func (a *Assembler) Assemble() []*Artifact {
	var out []*Artifact
	for _, t := range a.graph.Nodes {
		out = append(out, a.Type(t)...)
	}
	return out
}

// Type returns the three artifacts of t: field manifest, entity and
// validator stub.
func (a *Assembler) Type(t *Type) []*Artifact {
	return []*Artifact{
		{Kind: FieldManifest, Type: t, Path: a.path(t, "manifest"), File: a.manifest(t)},
		{Kind: EntityClass, Type: t, Path: a.path(t, ""), File: a.entity(t)},
		{Kind: ValidatorStub, Type: t, Path: a.path(t, "validators"), File: a.validator(t)},
	}
}

func (a *Assembler) path(t *Type, sub string) string {
	return filepath.Join(a.graph.Target, sub, t.Label()+".go")
}

func (a *Assembler) manifest(t *Type) *jen.File {
	f := jen.NewFilePathName(a.graph.ManifestPkg(), "manifest")
	f.HeaderComment(curatedHeader)
	lits := make([]jen.Code, 0, len(t.Fields)+len(t.Edges))
	for _, name := range t.Printable() {
		lits = append(lits, jen.Lit(name))
	}
	f.Commentf("%s lists the printable fields of %s.", t.Name, t.Name)
	f.Var().Id(t.Name).Op("=").Qual(runtimePkg, "NewManifest").Call(lits...)
	return f
}

func (a *Assembler) validator(t *Type) *jen.File {
	f := jen.NewFilePathName(a.graph.ValidatorsPkg(), "validators")
	f.HeaderComment(curatedHeader)
	f.Commentf("%s validates the values of %s entities.", t.Name, t.Name)
	f.Type().Id(t.Name).Struct(jen.Op("*").Qual(validatePkg, "Base"))
	f.Line()
	f.Commentf("New%s returns a validator over vars, restricted to fields.", t.Name)
	f.Func().Id("New"+t.Name).Params(
		jen.Id("vars").Map(jen.String()).Any(),
		jen.Id("fields").Index().String(),
	).Op("*").Id(t.Name).Block(
		jen.Id("v").Op(":=").Op("&").Id(t.Name).Values(),
		jen.Id("v").Dot("Base").Op("=").Qual(validatePkg, "New").Call(jen.Id("vars"), jen.Id("fields"), jen.Id("v")),
		jen.Return(jen.Id("v")),
	)
	f.Line()
	f.Comment("Check records failures with b.Error. It runs once per validation.")
	f.Func().Params(jen.Id("v").Op("*").Id(t.Name)).Id("Check").Params(jen.Id("b").Op("*").Qual(validatePkg, "Base")).Block()
	return f
}

func (a *Assembler) entity(t *Type) *jen.File {
	f := jen.NewFilePathName(a.graph.Package, a.graph.Pkg())
	f.HeaderComment(a.graph.header())
	a.structType(f, t)
	a.constructor(f, t)
	for _, m := range a.members(t) {
		for _, code := range a.acc.Methods(t, m) {
			f.Add(code)
		}
	}
	a.hasID(f, t)
	a.printable(f, t)
	if t.Entity() {
		a.descriptor(f, t)
		a.persistence(f, t)
	}
	return f
}

// members returns the fields stored by the struct and the associations,
// leaving out associations to types without a runtime identity.
func (a *Assembler) members(t *Type) []Member {
	var ms []Member
	for _, f := range t.OwnFields() {
		ms = append(ms, f)
	}
	for _, e := range t.Edges {
		if e.Type.Entity() {
			ms = append(ms, e)
		}
	}
	return ms
}

func (a *Assembler) structType(f *jen.File, t *Type) {
	switch {
	case t.Embeddable:
		f.Commentf("%s is an embeddable value of table %q.", t.Name, t.Table())
	case t.MappedSuperclass:
		f.Commentf("%s holds the mapping of table %q shared by the types embedding it.", t.Name, t.Table())
	default:
		f.Commentf("%s maps table %q.", t.Name, t.Table())
	}
	f.Type().Id(t.Name).StructFunc(func(group *jen.Group) {
		if !t.Embeddable {
			pkg, name := a.graph.extend()
			group.Qual(pkg, name)
			group.Line()
		}
		for _, m := range a.members(t) {
			group.Comment(Doc(m))
			group.Id(m.StructField()).Add(storedType(m)).Tag(Tag(m))
		}
	})
}

func storedType(m Member) jen.Code {
	switch m := m.(type) {
	case *Field:
		return m.StoredType()
	case *Edge:
		return m.StoredType()
	}
	return jen.Any()
}

func (a *Assembler) constructor(f *jen.File, t *Type) {
	r := t.Receiver()
	name := "New" + t.Name
	if t.Embeddable {
		var (
			params []jen.Code
			values = jen.Dict{}
		)
		for _, fd := range t.OwnFields() {
			p := fd.StructField()
			params = append(params, jen.Id(p).Add(fd.GoType()))
			if fd.Nullable {
				values[jen.Id(p)] = jen.Id(p)
			} else {
				values[jen.Id(p)] = jen.Op("&").Id(p)
			}
		}
		f.Commentf("%s returns a %s holding the given values.", name, t.Name)
		f.Func().Id(name).Params(params...).Op("*").Id(t.Name).Block(
			jen.Return(jen.Op("&").Id(t.Name).Values(values)),
		)
		return
	}
	values := jen.Dict{}
	for _, e := range t.ToMany() {
		if e.Type.Entity() {
			values[jen.Id(e.StructField())] = jen.Index().Add(e.ElemType()).Values()
		}
	}
	f.Commentf("%s returns a transient %s bound to s.", name, t.Name)
	f.Func().Id(name).Params(jen.Id("s").Qual(runtimePkg, "Store")).Op("*").Id(t.Name).Block(
		jen.Id(r).Op(":=").Op("&").Id(t.Name).Values(values),
		jen.Id(r).Dot("Bind").Call(jen.Id("s")),
		jen.Return(jen.Id(r)),
	)
}

// hasID replaces the promoted HasID of types whose "id" key is stored by
// the type itself.
func (a *Assembler) hasID(f *jen.File, t *Type) {
	id, ok := t.Field(recordgen.FieldID)
	if !ok || id.Base() || t.Embeddable || !a.acc.Declare(t, "HasID") {
		return
	}
	f.Comment("HasID reports whether the key is set.")
	f.Func().Params(jen.Id(t.Receiver()).Op("*").Id(t.Name)).Id("HasID").Params().Bool().Block(
		jen.Return(jen.Id(t.Receiver()).Dot(id.StructField()).Op("!=").Nil()),
	)
}

func (a *Assembler) printable(f *jen.File, t *Type) {
	if !a.acc.Declare(t, "PrintableFields") {
		return
	}
	f.Comment("PrintableFields returns the field manifest.")
	f.Func().Params(jen.Id(t.Receiver()).Op("*").Id(t.Name)).Id("PrintableFields").Params().Qual(runtimePkg, "Manifest").Block(
		jen.Return(jen.Qual(a.graph.ManifestPkg(), t.Name)),
	)
}

func descriptorVar(t *Type) string { return receiverLower(t.Name) + "Descriptor" }

func receiverLower(name string) string {
	if name == "" {
		return name
	}
	return string(name[0]|0x20) + name[1:]
}

func (a *Assembler) descriptor(f *jen.File, t *Type) {
	accessors := jen.Dict{}
	for _, fd := range t.Fields {
		accessors[jen.Lit(fd.Name)] = a.fieldAccessor(t, fd)
	}
	var relations []jen.Code
	for _, e := range t.Edges {
		if !e.Type.Entity() {
			continue
		}
		accessors[jen.Lit(e.Name)] = a.edgeAccessor(t, e)
		relations = append(relations, a.relation(t, e))
	}
	pk := make([]jen.Code, len(t.ID))
	for i, fd := range t.ID {
		pk[i] = jen.Lit(fd.Name)
	}
	values := jen.Dict{
		jen.Id("Name"):       jen.Lit(t.Name),
		jen.Id("Table"):      jen.Lit(t.Table()),
		jen.Id("Strategy"):   strategyCode(t.Strategy),
		jen.Id("PrimaryKey"): jen.Index().String().Values(pk...),
		jen.Id("Accessors"):  jen.Map(jen.String()).Qual(runtimePkg, "Accessor").Values(accessors),
		jen.Id("New"): jen.Func().Params().Qual(runtimePkg, "Entity").Block(
			jen.Return(jen.Id("New" + t.Name).Call(jen.Nil())),
		),
	}
	if len(relations) > 0 {
		values[jen.Id("Relations")] = jen.Index().Qual(runtimePkg, "Relation").Values(relations...)
	}
	f.Var().Id(descriptorVar(t)).Op("=").Op("&").Qual(runtimePkg, "Descriptor").Values(values)
	if a.acc.Declare(t, "Descriptor") {
		f.Comment("Descriptor returns the capability table of " + t.Name + ".")
		f.Func().Params(jen.Id(t.Receiver()).Op("*").Id(t.Name)).Id("Descriptor").Params().Op("*").Qual(runtimePkg, "Descriptor").Block(
			jen.Return(jen.Id(descriptorVar(t))),
		)
	}
}

var baseAccessors = map[string]string{
	recordgen.FieldID:         "IDAccessor",
	recordgen.FieldCreatedAt:  "CreatedAtAccessor",
	recordgen.FieldUpdatedAt:  "UpdatedAtAccessor",
	recordgen.FieldArchivedAt: "ArchivedAtAccessor",
}

// entityParam is the parameter list shared by the accessor closures.
func entityParam() jen.Code { return jen.Id("e").Qual(runtimePkg, "Entity") }

func (a *Assembler) fieldAccessor(t *Type, fd *Field) jen.Code {
	if fd.Base() {
		return jen.Qual(runtimePkg, baseAccessors[fd.Name]).Call(jen.Lit(fd.Column))
	}
	var (
		self   = jen.Id("e").Assert(jen.Op("*").Id(t.Name))
		member = func() *jen.Statement { return self.Clone().Dot(fd.StructField()) }
		conv   = "Convert"
		value  = jen.Op("&").Id("x")
	)
	if fd.Nullable {
		conv, value = "ConvertPtr", jen.Id("x")
	}
	convert := jen.List(jen.Id("x"), jen.Id("ok")).Op(":=").Qual(runtimePkg, conv).Types(fd.ScalarType()).Call(jen.Id("v"))
	write := func(cond jen.Code) jen.Code {
		return jen.Func().Params(entityParam(), jen.Id("v").Any()).Bool().Block(
			convert.Clone(),
			jen.If(cond).Block(member().Op("=").Add(value)),
			jen.Return(jen.Id("ok")),
		)
	}
	values := jen.Dict{
		jen.Id("Column"): jen.Lit(fd.Column),
		jen.Id("Get"): jen.Func().Params(entityParam()).Params(jen.Any(), jen.Bool()).Block(
			jen.Id("x").Op(":=").Add(self.Clone()),
			jen.If(jen.Id("x").Dot(fd.StructField()).Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.False())),
			jen.Return(jen.Op("*").Id("x").Dot(fd.StructField()), jen.True()),
		),
	}
	if fd.Generated() {
		values[jen.Id("Load")] = write(jen.Id("ok"))
	} else {
		values[jen.Id("Set")] = write(jen.Id("ok"))
		values[jen.Id("Init")] = write(jen.Id("ok").Op("&&").Add(member()).Op("==").Nil())
	}
	return jen.Values(values)
}

func (a *Assembler) edgeAccessor(t *Type, e *Edge) jen.Code {
	var (
		self   = jen.Id("e").Assert(jen.Op("*").Id(t.Name))
		member = func() *jen.Statement { return self.Clone().Dot(e.StructField()) }
		value  = jen.Id("x").Dot(e.StructField())
	)
	if e.ToMany() {
		value = jen.Qual(runtimePkg, "Collection").Call(jen.Id("x").Dot(e.StructField()))
	}
	write := func(cond jen.Code) jen.Code {
		return jen.Func().Params(entityParam(), jen.Id("v").Any()).Bool().Block(
			jen.List(jen.Id("x"), jen.Id("ok")).Op(":=").Id("v").Assert(e.GoType()),
			jen.If(cond).Block(member().Op("=").Id("x")),
			jen.Return(jen.Id("ok")),
		)
	}
	return jen.Values(jen.Dict{
		jen.Id("Get"): jen.Func().Params(entityParam()).Params(jen.Any(), jen.Bool()).Block(
			jen.Id("x").Op(":=").Add(self.Clone()),
			jen.If(jen.Id("x").Dot(e.StructField()).Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.False())),
			jen.Return(value, jen.True()),
		),
		jen.Id("Set"):  write(jen.Id("ok")),
		jen.Id("Init"): write(jen.Id("ok").Op("&&").Add(member()).Op("==").Nil()),
	})
}

func (a *Assembler) relation(t *Type, e *Edge) jen.Code {
	values := jen.Dict{
		jen.Id("Field"): jen.Lit(e.Name),
		jen.Id("Kind"):  jen.Qual(runtimePkg, relationConst(e.Rel)),
	}
	if c := cascadeCode(e.Cascade); c != nil {
		values[jen.Id("Cascade")] = c
	}
	if e.Owner && e.JoinTable == nil && len(e.JoinColumns) > 0 {
		cols := make([]jen.Code, len(e.JoinColumns))
		for i, c := range e.JoinColumns {
			cols[i] = jen.Lit(c.Name)
		}
		values[jen.Id("Columns")] = jen.Index().String().Values(cols...)
	}
	targets := jen.Func().Params(entityParam()).Index().Qual(runtimePkg, "Entity")
	if e.ToMany() {
		values[jen.Id("Targets")] = targets.Block(
			jen.Return(jen.Qual(runtimePkg, "Collection").Call(jen.Id("e").Assert(jen.Op("*").Id(t.Name)).Dot(e.StructField()))),
		)
	} else {
		values[jen.Id("Targets")] = targets.Block(
			jen.Id("x").Op(":=").Id("e").Assert(jen.Op("*").Id(t.Name)),
			jen.If(jen.Id("x").Dot(e.StructField()).Op("==").Nil()).Block(jen.Return(jen.Nil())),
			jen.Return(jen.Index().Qual(runtimePkg, "Entity").Values(jen.Id("x").Dot(e.StructField()))),
		)
	}
	return jen.Values(values)
}

func relationConst(r Rel) string {
	switch r {
	case O2O:
		return "OneToOne"
	case O2M:
		return "OneToMany"
	case M2O:
		return "ManyToOne"
	}
	return "ManyToMany"
}

var cascadeConsts = []struct {
	op   recordgen.Cascade
	name string
}{
	{recordgen.CascadePersist, "CascadePersist"},
	{recordgen.CascadeRemove, "CascadeRemove"},
	{recordgen.CascadeDetach, "CascadeDetach"},
	{recordgen.CascadeMerge, "CascadeMerge"},
	{recordgen.CascadeRefresh, "CascadeRefresh"},
}

func cascadeCode(c recordgen.Cascade) jen.Code {
	if c == 0 {
		return nil
	}
	if c.Has(recordgen.CascadeAll) {
		return jen.Qual(runtimePkg, "CascadeAll")
	}
	var code *jen.Statement
	for _, cc := range cascadeConsts {
		if !c.Has(cc.op) {
			continue
		}
		if code == nil {
			code = jen.Qual(runtimePkg, cc.name)
		} else {
			code = code.Op("|").Qual(runtimePkg, cc.name)
		}
	}
	return code
}

func strategyCode(s recordgen.Strategy) jen.Code {
	switch s {
	case recordgen.StrategyIdentity:
		return jen.Qual(runtimePkg, "StrategyIdentity")
	case recordgen.StrategySequence:
		return jen.Qual(runtimePkg, "StrategySequence")
	case recordgen.StrategyUUID:
		return jen.Qual(runtimePkg, "StrategyUUID")
	case "", recordgen.StrategyNone:
		return jen.Qual(runtimePkg, "StrategyNone")
	}
	return jen.Qual(runtimePkg, "Strategy").Call(jen.Lit(string(s)))
}

// persistence emits the lifecycle, serialization and query members of an
// entity type.
func (a *Assembler) persistence(f *jen.File, t *Type) {
	var (
		r    = t.Receiver()
		self = jen.Id(r).Op("*").Id(t.Name)
		ctx  = jen.Id("ctx").Qual("context", "Context")
		data = jen.Id("data").Map(jen.String()).Any()
	)
	method := func(name, doc string, build func(*jen.Statement)) {
		if !a.acc.Declare(t, name) {
			return
		}
		f.Comment(doc)
		s := f.Func().Params(self.Clone()).Id(name)
		build(s)
	}
	method("Save", "Save persists the "+t.Name+" and flushes the store.", func(s *jen.Statement) {
		s.Params(ctx.Clone()).Error().Block(jen.Return(jen.Qual(runtimePkg, "Save").Call(jen.Id("ctx"), jen.Id(r))))
	})
	method("Archive", "Archive marks the "+t.Name+" as archived and saves it.", func(s *jen.Statement) {
		s.Params(ctx.Clone()).Error().Block(jen.Return(jen.Qual(runtimePkg, "Archive").Call(jen.Id("ctx"), jen.Id(r))))
	})
	method("Validate", "Validate runs the "+t.Name+" validator over the values of the stored fields.", func(s *jen.Statement) {
		s.Params().Error().Block(jen.Return(
			jen.Qual(a.graph.ValidatorsPkg(), "New"+t.Name).Call(
				jen.Qual(runtimePkg, "Values").Call(jen.Id(r)),
				jen.Id(descriptorVar(t)).Dot("StoredFields").Call(),
			).Dot("Err").Call(),
		))
	})
	method("ToObject", "ToObject projects the printable fields.", func(s *jen.Statement) {
		s.Params().Qual(runtimePkg, "Object").Block(jen.Return(jen.Qual(runtimePkg, "ToObject").Call(jen.Id(r))))
	})
	method("ToArray", "ToArray projects the printable fields into a plain map.", func(s *jen.Statement) {
		s.Params().Map(jen.String()).Any().Block(jen.Return(jen.Qual(runtimePkg, "ToArray").Call(jen.Id(r))))
	})
	method("ToJSON", "ToJSON encodes the projection as JSON.", func(s *jen.Statement) {
		s.Params().Params(jen.Index().Byte(), jen.Error()).Block(jen.Return(jen.Qual(runtimePkg, "ToJSON").Call(jen.Id(r))))
	})
	method("ToMsgpack", "ToMsgpack encodes the projection as msgpack.", func(s *jen.Statement) {
		s.Params().Params(jen.Index().Byte(), jen.Error()).Block(jen.Return(jen.Qual(runtimePkg, "ToMsgpack").Call(jen.Id(r))))
	})
	method("MarshalJSON", "MarshalJSON implements json.Marshaler.", func(s *jen.Statement) {
		s.Params().Params(jen.Index().Byte(), jen.Error()).Block(jen.Return(jen.Qual(runtimePkg, "ToJSON").Call(jen.Id(r))))
	})
	method("Fill", "Fill overwrites fields from data. Unknown keys and invalid values are ignored.", func(s *jen.Statement) {
		s.Params(data.Clone()).Op("*").Id(t.Name).Block(jen.Return(jen.Qual(runtimePkg, "Fill").Call(jen.Id(r), jen.Id("data"))))
	})

	store := jen.Id("s").Qual(runtimePkg, "Store")
	opts := jen.Id("opts").Op("...").Qual(runtimePkg, "ScopeOption")
	d := jen.Id(descriptorVar(t))

	f.Commentf("%sFromData returns a new %s initialised from data.", t.Name, t.Name)
	f.Func().Id(t.Name+"FromData").Params(store.Clone(), data.Clone()).Op("*").Id(t.Name).Block(
		jen.Return(jen.Qual(runtimePkg, "FromData").Call(jen.Id("New"+t.Name).Call(jen.Id("s")), jen.Id("data"))),
	)
	f.Commentf("Query%s returns the %s rows matching opts. Archived rows are excluded unless requested.", t.Plural(), t.Name)
	f.Func().Id("Query"+t.Plural()).Params(ctx.Clone(), store.Clone(), opts.Clone()).Params(jen.Index().Op("*").Id(t.Name), jen.Error()).Block(
		jen.Return(jen.Qual(runtimePkg, "Query").Types(jen.Op("*").Id(t.Name)).Call(jen.Id("ctx"), jen.Id("s"), d.Clone(), jen.Id("opts").Op("..."))),
	)
	f.Commentf("Count%s counts the %s rows matching opts.", t.Plural(), t.Name)
	f.Func().Id("Count"+t.Plural()).Params(ctx.Clone(), store.Clone(), opts.Clone()).Params(jen.Int(), jen.Error()).Block(
		jen.Return(jen.Qual(runtimePkg, "Count").Call(jen.Id("ctx"), jen.Id("s"), d.Clone(), jen.Id("opts").Op("..."))),
	)
	f.Commentf("Find%s returns the %s with the given primary key.", t.Name, t.Name)
	f.Func().Id("Find"+t.Name).Params(ctx.Clone(), store.Clone(), jen.Id("id").Any(), opts.Clone()).Params(jen.Op("*").Id(t.Name), jen.Error()).Block(
		jen.Return(jen.Qual(runtimePkg, "Find").Types(jen.Op("*").Id(t.Name)).Call(jen.Id("ctx"), jen.Id("s"), d.Clone(), jen.Id("id"), jen.Id("opts").Op("..."))),
	)
}
