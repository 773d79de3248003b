// Package load reflects table metadata from a database or a schema file
// and scans hand-written Go sources for already declared members.
package load

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/syssam/recordgen/dialect/sql/schema"
)

// Reflector supplies the tables of one generation run.
type Reflector interface {
	Reflect(ctx context.Context) ([]*schema.Table, error)
}

// ReflectFunc adapts a function to the Reflector interface.
type ReflectFunc func(ctx context.Context) ([]*schema.Table, error)

// Reflect calls f(ctx).
func (f ReflectFunc) Reflect(ctx context.Context) ([]*schema.Table, error) { return f(ctx) }

// FileReflector reads tables declared in a schema file. The format is
// chosen by extension: .yaml/.yml, .toml or .json.
type FileReflector struct {
	Fs   afero.Fs
	Path string
}

// Reflect implements Reflector.
func (r *FileReflector) Reflect(context.Context) ([]*schema.Table, error) {
	s, err := ReadSchema(r.fs(), r.Path)
	if err != nil {
		return nil, err
	}
	return s.Build()
}

func (r *FileReflector) fs() afero.Fs {
	if r.Fs == nil {
		return afero.NewOsFs()
	}
	return r.Fs
}

// ReadSchema reads and decodes a schema file.
func ReadSchema(fs afero.Fs, path string) (*Schema, error) {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "load: read schema file")
	}
	s := &Schema{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(buf, s)
	case ".toml":
		err = toml.Unmarshal(buf, s)
	case ".json":
		s, err = UnmarshalSchema(buf)
	default:
		return nil, errors.Newf("load: unsupported schema file extension %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load: decode %s", path)
	}
	return s, nil
}

// Annotated wraps a reflector and merges the annotations of a schema file
// into the reflected tables.
func Annotated(r Reflector, s *Schema) Reflector {
	return ReflectFunc(func(ctx context.Context) ([]*schema.Table, error) {
		tables, err := r.Reflect(ctx)
		if err != nil {
			return nil, err
		}
		s.Annotate(tables)
		return tables, nil
	})
}
