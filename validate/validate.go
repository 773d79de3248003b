// Package validate provides the base embedded by generated validator stubs.
//
// A stub looks like
//
//	type User struct{ *validate.Base }
//
//	func NewUser(vars map[string]any, fields []string) *User {
//		v := &User{}
//		v.Base = validate.New(vars, fields, v)
//		return v
//	}
//
// and becomes a real validator once it implements Checker:
//
//	func (v *User) Check(b *validate.Base) {
//		b.Required("name")
//	}
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalid is matched by every error returned from Base.Err.
var ErrInvalid = errors.New("validate: invalid entity")

// FieldError is one validation failure. Field is empty for failures that
// concern the entity as a whole.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Checker is implemented by validators that add rules to their base.
type Checker interface {
	Check(b *Base)
}

// Base collects the errors of one validation run over a set of variables.
type Base struct {
	vars      map[string]any
	fields    []string
	self      any
	errs      []*FieldError
	validated bool
}

// New returns a base over vars, the field values of an entity, and fields,
// its printable field names. self is the embedding validator; when it
// implements Checker its Check method is run by Validate.
func New(vars map[string]any, fields []string, self any) *Base {
	if vars == nil {
		vars = make(map[string]any)
	}
	return &Base{vars: vars, fields: slices.Clone(fields), self: self}
}

// Error records a failure. The optional field names the offending field.
func (b *Base) Error(msg string, field ...string) *Base {
	e := &FieldError{Message: msg}
	if len(field) > 0 {
		e.Field = field[0]
	}
	b.errs = append(b.errs, e)
	return b
}

// Validate runs the checks once. Later calls are no-ops.
func (b *Base) Validate() *Base {
	if b.validated {
		return b
	}
	b.validated = true
	if c, ok := b.self.(Checker); ok {
		c.Check(b)
	}
	return b
}

// IsValid validates if needed and reports whether no error was recorded.
func (b *Base) IsValid() bool {
	b.Validate()
	return len(b.errs) == 0
}

// Errors returns the recorded failures in order.
func (b *Base) Errors() []*FieldError {
	return slices.Clone(b.errs)
}

// ErrorsFor returns the failures recorded for field.
func (b *Base) ErrorsFor(field string) []*FieldError {
	var errs []*FieldError
	for _, e := range b.errs {
		if e.Field == field {
			errs = append(errs, e)
		}
	}
	return errs
}

// Vars returns the validated variables.
func (b *Base) Vars() map[string]any { return b.vars }

// Var returns one variable and whether it is set and non-nil.
func (b *Base) Var(name string) (any, bool) {
	v, ok := b.vars[name]
	return v, ok && v != nil
}

// Fields returns the printable field names.
func (b *Base) Fields() []string { return slices.Clone(b.fields) }

// Required records an error for every named field that is null or an empty
// string.
func (b *Base) Required(fields ...string) *Base {
	for _, f := range fields {
		v, ok := b.Var(f)
		if s, isString := v.(string); !ok || (isString && strings.TrimSpace(s) == "") {
			b.Error("is required", f)
		}
	}
	return b
}

// Err validates if needed and returns nil or an *Error holding every
// failure.
func (b *Base) Err() error {
	if b.IsValid() {
		return nil
	}
	return &Error{Errors: b.Errors()}
}

// Error is the error form of a failed validation run.
type Error struct {
	Errors []*FieldError
}

// Error returns the error string.
func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return "validate: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("validate: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Is matches ErrInvalid.
func (e *Error) Is(err error) bool { return err == ErrInvalid }

// IsValidationError reports whether err is or wraps an *Error.
func IsValidationError(err error) bool {
	var e *Error
	return err != nil && errors.As(err, &e)
}
