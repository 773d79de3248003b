package gen

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates reflected metadata that cannot be mapped.
	ErrInvalidSchema = errors.New("recordgen: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("recordgen: missing configuration")
	// ErrOutputPath indicates a destination that cannot be created or written.
	ErrOutputPath = errors.New("recordgen: output path not writable")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("recordgen: code generation failed")
)

// UnknownTableError is returned when a table or column is looked up that
// is not part of the reflected set.
type UnknownTableError struct {
	Table  string
	Column string // Column name (if applicable)
}

// Error implements the error interface.
func (e *UnknownTableError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("recordgen: unknown column %q in table %q", e.Column, e.Table)
	}
	return fmt.Sprintf("recordgen: unknown table %q", e.Table)
}

// Is reports whether the target matches the sentinel error for UnknownTableError.
func (e *UnknownTableError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewUnknownTableError creates a new UnknownTableError.
func NewUnknownTableError(table, column string) *UnknownTableError {
	return &UnknownTableError{Table: table, Column: column}
}

// UnresolvedAssociationTargetError is returned for a foreign key whose
// referenced table was not reflected.
type UnresolvedAssociationTargetError struct {
	Table  string // Table holding the foreign key
	Symbol string // Constraint name
	Target string // Referenced table
}

// Error implements the error interface.
func (e *UnresolvedAssociationTargetError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "recordgen: association target %q of table %q is not reflected", e.Target, e.Table)
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (constraint %s)", e.Symbol)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnresolvedAssociationTargetError.
func (e *UnresolvedAssociationTargetError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewUnresolvedAssociationTargetError creates a new UnresolvedAssociationTargetError.
func NewUnresolvedAssociationTargetError(table, symbol, target string) *UnresolvedAssociationTargetError {
	return &UnresolvedAssociationTargetError{Table: table, Symbol: symbol, Target: target}
}

// SchemaError represents reflected metadata rejected by validation.
type SchemaError struct {
	Table   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("recordgen: schema error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(table, message string, cause error) *SchemaError {
	return &SchemaError{Table: table, Message: message, Cause: cause}
}

// OutputPathError is returned when a destination directory cannot be
// created or a file cannot be written.
type OutputPathError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *OutputPathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("recordgen: output path %q: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("recordgen: output path %q", e.Path)
}

// Unwrap returns the underlying error.
func (e *OutputPathError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for OutputPathError.
func (e *OutputPathError) Is(target error) bool {
	return target == ErrOutputPath
}

// NewOutputPathError creates a new OutputPathError.
func NewOutputPathError(path string, cause error) *OutputPathError {
	return &OutputPathError{Path: path, Cause: cause}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("recordgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("recordgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "manifest", "entity", "validator", "export"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("recordgen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsUnknownTableError reports whether the error is an UnknownTableError.
func IsUnknownTableError(err error) bool {
	var e *UnknownTableError
	return errors.As(err, &e)
}

// IsUnresolvedAssociationTargetError reports whether the error is an
// UnresolvedAssociationTargetError.
func IsUnresolvedAssociationTargetError(err error) bool {
	var e *UnresolvedAssociationTargetError
	return errors.As(err, &e)
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsOutputPathError reports whether the error is an OutputPathError.
func IsOutputPathError(err error) bool {
	var e *OutputPathError
	return errors.As(err, &e)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
