package gen

import (
	"fmt"

	"github.com/syssam/recordgen"
)

// Mapping returns the mapping annotation of a member.
func Mapping(m Member) *recordgen.Mapping {
	switch m := m.(type) {
	case *Field:
		return m.Mapping()
	case *Edge:
		return m.Mapping()
	}
	return nil
}

// Tag returns the struct tag carrying the mapping annotation of a member.
func Tag(m Member) map[string]string {
	a := Mapping(m)
	if a == nil {
		return nil
	}
	return map[string]string{recordgen.MappingTag: a.String()}
}

// Doc returns the one-line doc comment of a member.
func Doc(m Member) string {
	switch m := m.(type) {
	case *Field:
		if m.Comment != "" {
			return fmt.Sprintf("%s maps column %q: %s", m.Name, m.Column, m.Comment)
		}
		return fmt.Sprintf("%s maps column %q.", m.Name, m.Column)
	case *Edge:
		side := "inverse"
		if m.Owner {
			side = "owning"
		}
		return fmt.Sprintf("%s is the %s side of the %s association with %s.", m.Name, side, m.Rel.Kind(), m.Type.Name)
	}
	return ""
}
