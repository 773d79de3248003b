// Package naming maps between logical (camelCase, singular or plural)
// identifiers and physical (snake_case table and column) identifiers.
//
// The inflection rules come from go-openapi/inflect. Irregular plurals are
// best effort: words without a matching rule are returned unchanged.
package naming

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy converts identifiers between the logical and the physical
// namespace. Implementations must be pure: the same input always yields
// the same output.
type Strategy interface {
	// ColumnName returns the physical column name of a logical field.
	ColumnName(field string) string
	// FieldName is the inverse of ColumnName.
	FieldName(column string) string
	// TableName returns the physical table name of a class name.
	TableName(class string) string
	// ClassName returns the class (type) name of a physical table.
	ClassName(table string) string
	// JoinTableName returns the link table name for a many-to-many pair.
	JoinTableName(owner, target string) string
	// JoinKeyColumnName returns the column referencing table.referenced.
	JoinKeyColumnName(table, referenced string) string
}

// Underscore is the default Strategy: snake_case physical names and
// camelCase logical names.
type Underscore struct{}

var _ Strategy = Underscore{}

// ColumnName implements Strategy.
func (Underscore) ColumnName(field string) string { return Snake(field) }

// FieldName implements Strategy.
func (Underscore) FieldName(column string) string { return Camelize(column) }

// TableName implements Strategy.
func (Underscore) TableName(class string) string { return Pluralize(Snake(class)) }

// ClassName implements Strategy.
func (Underscore) ClassName(table string) string { return Classify(table) }

// JoinTableName implements Strategy.
func (Underscore) JoinTableName(owner, target string) string {
	return Singularize(Snake(owner)) + "_" + Pluralize(Snake(target))
}

// JoinKeyColumnName implements Strategy.
func (Underscore) JoinKeyColumnName(table, referenced string) string {
	return Singularize(Snake(table)) + "_" + Snake(referenced)
}

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"data", "metadata", "info", "media"} {
		r.AddUncountable(w)
	}
	return r
}

// initialisms are rendered fully upper-cased by Pascal, as golint expects.
var initialisms = map[string]bool{
	"acl": true, "api": true, "ascii": true, "cpu": true, "css": true,
	"dns": true, "eof": true, "guid": true, "html": true, "http": true,
	"https": true, "id": true, "ip": true, "json": true, "rpc": true,
	"sla": true, "sql": true, "ssh": true, "tcp": true, "tls": true,
	"ttl": true, "udp": true, "ui": true, "uid": true, "uri": true,
	"url": true, "utf8": true, "uuid": true, "xml": true,
}

// Pluralize returns the plural form of word.
func Pluralize(word string) string {
	if !inflectable(word) {
		return word
	}
	return rules.Pluralize(word)
}

// Singularize returns the singular form of word.
func Singularize(word string) string {
	if !inflectable(word) {
		return word
	}
	return rules.Singularize(word)
}

// inflectable reports whether word is something the inflection rules
// can safely operate on.
func inflectable(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}

// Classify returns the PascalCase singular form of a table name.
//
//	Classify("user_groups") // UserGroup
func Classify(table string) string {
	return Pascal(Singularize(Snake(table)))
}

// Camelize returns the lowerCamelCase form of s without initialism
// handling. It is the logical field name of a column.
//
//	Camelize("created_at") // createdAt
//	Camelize("company_id") // companyId
func Camelize(s string) string {
	words := split(s)
	for i, w := range words {
		if i == 0 {
			continue
		}
		words[i] = title(w)
	}
	return strings.Join(words, "")
}

// Pascal returns the PascalCase form of s, upper-casing known initialisms.
// A result that would not start with a letter is prefixed with "X".
//
//	Pascal("user_id")      // UserID
//	Pascal("2023_reports") // X2023Reports
func Pascal(s string) string {
	words := split(s)
	for i, w := range words {
		words[i] = initialism(w)
	}
	name := strings.Join(words, "")
	if name != "" && !startsWithLetter(name) {
		name = "X" + name
	}
	return name
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r)
	}
	return false
}

// LowerPascal is like Pascal but lower-cases the first word. It is used
// for unexported Go identifiers.
//
//	LowerPascal("company_id") // companyID
func LowerPascal(s string) string {
	words := split(s)
	for i, w := range words {
		if i == 0 {
			continue
		}
		words[i] = initialism(w)
	}
	return strings.Join(words, "")
}

// Snake returns the snake_case form of s.
//
//	Snake("UserID")   // user_id
//	Snake("HTTPCode") // http_code
func Snake(s string) string {
	var (
		b     strings.Builder
		runes = []rune(s)
	)
	b.Grow(len(s) + 4)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			r = '_'
		case unicode.IsUpper(r):
			if i > 0 && boundary(runes, i) && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// boundary reports whether the upper-case rune at i starts a new word.
func boundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if !unicode.IsUpper(prev) || i+1 >= len(runes) || !unicode.IsLower(runes[i+1]) {
		return false
	}
	// A trailing "s" after an initialism is its plural ("IDs"), not a word.
	if runes[i+1] == 's' && (i+2 == len(runes) || !unicode.IsLower(runes[i+2])) {
		return false
	}
	return true
}

// AssociationName derives the logical name of a to-one association from
// its foreign key column.
//
//	AssociationName("company_id") // company
//	AssociationName("owner")      // owner
func AssociationName(column string) string {
	name := Snake(column)
	for _, suffix := range []string{"_id", "_uuid", "_key"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			return Camelize(trimmed)
		}
	}
	return Camelize(name)
}

func split(s string) []string {
	return strings.FieldsFunc(Snake(s), func(r rune) bool { return r == '_' })
}

func initialism(w string) string {
	if initialisms[w] {
		return strings.ToUpper(w)
	}
	return title(w)
}

func title(w string) string {
	return cases.Title(language.Und, cases.NoLower).String(w)
}
