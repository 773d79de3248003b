package gen

import (
	"path"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/syssam/recordgen/compiler/load"
	"github.com/syssam/recordgen/compiler/naming"
)

// DefaultHeader is the first line of every generated entity file.
const DefaultHeader = "Code generated by recordgen. DO NOT EDIT."

// Config holds the global configuration of one generation run.
type Config struct {
	// Target is the destination directory.
	Target string
	// Package is the import path of the destination package, used to
	// import its manifest and validators subpackages.
	Package string
	// PackageName overrides the package name. It defaults to the last
	// element of Package.
	PackageName string
	// Extend is the qualified base type embedded by entities, as
	// "import/path.Type". Empty means recordgen.Model.
	Extend string
	// Ancestor holds the members of the Extend type, methods and fields,
	// promoted ones included. Generated members never shadow them.
	Ancestor []string
	// Header is the generated-code header.
	Header string
	// Naming converts between logical and physical names.
	Naming naming.Strategy
	// Declared holds the members declared by hand for the destination
	// types. Generated members with the same name are skipped.
	Declared load.Declared
	// Force re-renders entity files that already exist.
	Force bool
	// Filters restricts generation to tables whose name contains one of
	// the filters.
	Filters []string
	// Fs is the filesystem written to.
	Fs afero.Fs
	// Logger receives debug and progress records.
	Logger *zap.Logger
}

// Pkg returns the package name of the generated files.
func (c *Config) Pkg() string {
	if c.PackageName != "" {
		return c.PackageName
	}
	if c.Package != "" {
		return path.Base(c.Package)
	}
	if c.Target != "" {
		return path.Base(strings.ReplaceAll(c.Target, "\\", "/"))
	}
	return "entity"
}

// ManifestPkg returns the import path of the manifest subpackage.
func (c *Config) ManifestPkg() string { return path.Join(c.Package, "manifest") }

// ValidatorsPkg returns the import path of the validators subpackage.
func (c *Config) ValidatorsPkg() string { return path.Join(c.Package, "validators") }

// extend splits Extend into import path and type name.
func (c *Config) extend() (pkg, name string) {
	if c.Extend == "" {
		return runtimePkg, "Model"
	}
	i := strings.LastIndex(c.Extend, ".")
	if i < 0 {
		return "", c.Extend
	}
	return c.Extend[:i], c.Extend[i+1:]
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) fs() afero.Fs {
	if c.Fs == nil {
		return afero.NewOsFs()
	}
	return c.Fs
}

func (c *Config) naming() naming.Strategy {
	if c.Naming == nil {
		return naming.Underscore{}
	}
	return c.Naming
}

func (c *Config) header() string {
	if c.Header == "" {
		return DefaultHeader
	}
	return c.Header
}
