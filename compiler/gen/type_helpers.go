package gen

import (
	"go/token"
	"reflect"
	"strings"
	"unicode"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/compiler/load"
)

// Import paths referenced by generated code.
const (
	runtimePkg  = "github.com/syssam/recordgen"
	validatePkg = "github.com/syssam/recordgen/validate"
)

// builderField returns the struct member for the given name and ensures
// it doesn't conflict with Go keywords and the runtime model members, is
// a valid identifier and is not exported.
func builderField(name string) string {
	if name == "" {
		return "_"
	}
	_, ok := privateField[name]
	first := []rune(name)[0]
	if ok || token.Lookup(name).IsKeyword() || unicode.IsUpper(first) || (!unicode.IsLetter(first) && first != '_') {
		return "_" + name
	}
	return name
}

// receiver returns the receiver name of a type: its lowercased initial,
// or its first two letters when the initial names a method parameter.
func receiver(name string) string {
	for _, r := range name {
		s := string(unicode.ToLower(r))
		if _, ok := methodLocals[s]; ok {
			s = strings.ToLower(string([]rune(name)[:min(2, len([]rune(name)))]))
			if _, ok := methodLocals[s]; ok || len(s) < 2 {
				s += "x"
			}
		}
		if token.Lookup(s).IsKeyword() {
			return "_" + s
		}
		return s
	}
	return "x"
}

// identifiers declared inside generated methods.
var methodLocals = names("v", "i")

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

// private fields used by the runtime model and the generated methods.
var privateField = names(
	"store",
	"persisted",
	"descriptor",
)

// baseMembers returns the members declared by the runtime model, so that
// generated types never redeclare them.
var baseMembers = func() load.Declared {
	d := make(load.Declared)
	t := reflect.TypeOf(new(recordgen.Model))
	members := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		members = append(members, t.Method(i).Name)
	}
	d.Add("", members...)
	return d
}()
