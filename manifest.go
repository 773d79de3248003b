package recordgen

import (
	"slices"
)

// Manifest is the ordered set of printable fields of an entity type. Only
// fields listed here are projected by ToObject, ToArray and ToJSON, and
// accepted by FromData and Fill.
type Manifest struct {
	fields []string
}

// NewManifest returns a manifest of the given fields, sorted and without
// duplicates.
func NewManifest(fields ...string) Manifest {
	fs := slices.Clone(fields)
	slices.Sort(fs)
	return Manifest{fields: slices.Compact(fs)}
}

// Fields returns the printable fields in order.
func (m Manifest) Fields() []string {
	return slices.Clone(m.fields)
}

// Contains reports whether field is printable.
func (m Manifest) Contains(field string) bool {
	_, ok := slices.BinarySearch(m.fields, field)
	return ok
}

// Len returns the number of printable fields.
func (m Manifest) Len() int { return len(m.fields) }

// PrintableFields implements Printable.
func (m Manifest) PrintableFields() Manifest { return m }
