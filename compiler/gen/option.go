package gen

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/syssam/recordgen/compiler/load"
	"github.com/syssam/recordgen/compiler/naming"
)

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/entity".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithPackageName overrides the package name of the generated files.
func WithPackageName(name string) Option {
	return func(c *Config) error {
		c.PackageName = name
		return nil
	}
}

// WithExtend sets the base type embedded by entities, as
// "import/path.Type".
func WithExtend(typ string) Option {
	return func(c *Config) error {
		if typ != "" && !strings.Contains(typ, ".") {
			return NewConfigError("Extend", typ, `base type must be qualified as "import/path.Type"`)
		}
		c.Extend = typ
		return nil
	}
}

// WithAncestor adds members declared by the base type set with
// WithExtend. See load.ScanAncestor.
func WithAncestor(members ...string) Option {
	return func(c *Config) error {
		c.Ancestor = append(c.Ancestor, members...)
		return nil
	}
}

// WithHeader sets the file header comment of entity files.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithNaming sets the naming strategy.
func WithNaming(s naming.Strategy) Option {
	return func(c *Config) error {
		if s == nil {
			return NewConfigError("Naming", nil, "naming strategy cannot be nil")
		}
		c.Naming = s
		return nil
	}
}

// WithDeclared adds members that are already declared by hand.
func WithDeclared(d load.Declared) Option {
	return func(c *Config) error {
		if c.Declared == nil {
			c.Declared = make(load.Declared)
		}
		c.Declared.Merge(d)
		return nil
	}
}

// WithForce re-renders existing entity files. Manifests and validator
// stubs are never overwritten.
func WithForce(force bool) Option {
	return func(c *Config) error {
		c.Force = force
		return nil
	}
}

// WithFilters restricts generation to tables matching one of filters.
func WithFilters(filters ...string) Option {
	return func(c *Config) error {
		for _, f := range filters {
			if f != "" {
				c.Filters = append(c.Filters, f)
			}
		}
		return nil
	}
}

// WithFs sets the filesystem generated files are written to.
func WithFs(fs afero.Fs) Option {
	return func(c *Config) error {
		if fs == nil {
			return NewConfigError("Fs", nil, "filesystem cannot be nil")
		}
		c.Fs = fs
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Config) error {
		c.Logger = log
		return nil
	}
}

// Apply applies options in order and stops at the first failing one.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig returns a config with every option applied. All invalid
// options are reported together.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}
