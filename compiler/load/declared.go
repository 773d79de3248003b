package load

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"golang.org/x/tools/go/packages"
)

// Declared maps a Go type name to the members already declared for it,
// methods and struct fields alike.
type Declared map[string]map[string]bool

// Has reports whether member is declared for typ.
func (d Declared) Has(typ, member string) bool {
	return d[typ][member]
}

// Add records members of typ.
func (d Declared) Add(typ string, members ...string) {
	if d[typ] == nil {
		d[typ] = make(map[string]bool, len(members))
	}
	for _, m := range members {
		d[typ][m] = true
	}
}

// Merge copies the members of o into d.
func (d Declared) Merge(o Declared) {
	for typ, members := range o {
		if d[typ] == nil {
			d[typ] = make(map[string]bool, len(members))
		}
		maps.Copy(d[typ], members)
	}
}

// ScanDeclared parses the hand-written Go files of dir and collects their
// declared members. Test files and files carrying the generated-code
// header are ignored, so a regenerated file never hides its own members.
// A missing directory yields an empty set.
func ScanDeclared(fs afero.Fs, dir string) (Declared, error) {
	decl := make(Declared)
	entries, err := afero.ReadDir(fs, dir)
	switch {
	case err != nil && isNotExist(fs, dir):
		return decl, nil
	case err != nil:
		return nil, errors.Wrapf(err, "load: read %s", dir)
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, errors.Wrapf(err, "load: read %s", path)
		}
		f, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, errors.Wrapf(err, "load: parse %s", path)
		}
		if ast.IsGenerated(f) {
			continue
		}
		collect(decl, f)
	}
	return decl, nil
}

func collect(decl Declared, f *ast.File) {
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				continue
			}
			if typ := receiverName(d.Recv.List[0].Type); typ != "" {
				decl.Add(typ, d.Name.Name)
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				decl.Add(ts.Name.Name)
				for _, field := range st.Fields.List {
					for _, n := range field.Names {
						decl.Add(ts.Name.Name, n.Name)
					}
				}
			}
		}
	}
}

func receiverName(expr ast.Expr) string {
	switch x := expr.(type) {
	case *ast.StarExpr:
		return receiverName(x.X)
	case *ast.Ident:
		return x.Name
	case *ast.IndexExpr:
		return receiverName(x.X)
	case *ast.IndexListExpr:
		return receiverName(x.X)
	}
	return ""
}

func isNotExist(fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	return err == nil && !ok
}

// ScanAncestor loads the package of the qualified type "import/path.Type"
// from dir and returns the exported members of the type: its fields and
// the method set of its pointer, promoted members included.
func ScanAncestor(ctx context.Context, dir, qualified string) ([]string, error) {
	i := strings.LastIndex(qualified, ".")
	if i <= 0 || i == len(qualified)-1 {
		return nil, errors.Newf("load: base type %q is not qualified as \"import/path.Type\"", qualified)
	}
	pkgPath, name := qualified[:i], qualified[i+1:]
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedTypes,
	}, pkgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load: package %s", pkgPath)
	}
	if len(pkgs) != 1 {
		return nil, errors.Newf("load: package %s not found", pkgPath)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, errors.Wrapf(pkg.Errors[0], "load: package %s", pkgPath)
	}
	obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, errors.Newf("load: type %s not found in %s", name, pkgPath)
	}
	seen := make(map[string]bool)
	var members []string
	add := func(n string) {
		if token.IsExported(n) && !seen[n] {
			seen[n] = true
			members = append(members, n)
		}
	}
	ms := types.NewMethodSet(types.NewPointer(obj.Type()))
	for i := 0; i < ms.Len(); i++ {
		add(ms.At(i).Obj().Name())
	}
	fields(obj.Type(), add, make(map[types.Type]bool))
	slices.Sort(members)
	return members, nil
}

// fields walks the struct fields of t, descending into embedded ones.
func fields(t types.Type, add func(string), visited map[types.Type]bool) {
	if visited[t] {
		return
	}
	visited[t] = true
	if p, ok := t.Underlying().(*types.Pointer); ok {
		t = p.Elem()
	}
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		add(f.Name())
		if f.Embedded() {
			fields(f.Type(), add, visited)
		}
	}
}
