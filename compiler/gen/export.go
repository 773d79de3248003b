package gen

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Exporter writes the mapping information of types in one format and
// returns the written paths.
type Exporter interface {
	Export(ctx context.Context, types []*Type) ([]string, error)
}

// Export formats.
const (
	FormatGo      = "go"
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Formats lists the supported export formats.
var Formats = []string{FormatGo, FormatYAML, FormatJSON, FormatMsgpack}

// NewExporter returns the exporter of format over g.
func NewExporter(format string, g *Graph) (Exporter, error) {
	switch format {
	case FormatGo:
		return goExporter{g: g}, nil
	case FormatYAML:
		return docExporter{g: g, ext: "yaml", marshal: yaml.Marshal}, nil
	case FormatJSON:
		return docExporter{g: g, ext: "json", marshal: func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}}, nil
	case FormatMsgpack:
		return docExporter{g: g, ext: "msgpack", marshal: msgpack.Marshal}, nil
	}
	return nil, NewConfigError("to-type", format, "unsupported mapping type")
}

// goExporter renders the annotated entity sources.
type goExporter struct{ g *Graph }

func (e goExporter) Export(ctx context.Context, types []*Type) ([]string, error) {
	if e.g.Package == "" {
		return nil, NewConfigError("Package", e.g.Package, "missing import path of the target package")
	}
	res, err := generate(ctx, e.g, types)
	if err != nil {
		return nil, err
	}
	return res.Written, nil
}

// docExporter writes one mapping document per type.
type docExporter struct {
	g       *Graph
	ext     string
	marshal func(any) ([]byte, error)
}

func (e docExporter) Export(ctx context.Context, types []*Type) ([]string, error) {
	w := NewWriter(e.g.Config)
	if err := e.g.fs().MkdirAll(e.g.Target, 0o755); err != nil {
		return nil, NewOutputPathError(e.g.Target, err)
	}
	var written []string
	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(e.g.Target, t.Name+".mapping."+e.ext)
		b, err := e.marshal(NewTypeDocument(t))
		if err != nil {
			return written, NewGenerationError("export", path, "encode "+e.ext, err)
		}
		ok, err := w.WriteFile(path, b)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}
	return written, nil
}

// TypeDocument is the format-neutral mapping information of a type.
type TypeDocument struct {
	Name             string                `json:"name" yaml:"name" msgpack:"name"`
	Table            string                `json:"table" yaml:"table" msgpack:"table"`
	Strategy         string                `json:"strategy,omitempty" yaml:"strategy,omitempty" msgpack:"strategy,omitempty"`
	MappedSuperclass bool                  `json:"mappedSuperclass,omitempty" yaml:"mappedSuperclass,omitempty" msgpack:"mappedSuperclass,omitempty"`
	Embeddable       bool                  `json:"embeddable,omitempty" yaml:"embeddable,omitempty" msgpack:"embeddable,omitempty"`
	Printable        []string              `json:"printable" yaml:"printable" msgpack:"printable"`
	Fields           []FieldDocument       `json:"fields" yaml:"fields" msgpack:"fields"`
	Associations     []AssociationDocument `json:"associations,omitempty" yaml:"associations,omitempty" msgpack:"associations,omitempty"`
}

// FieldDocument is the mapping information of a column.
type FieldDocument struct {
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Column  string `json:"column" yaml:"column" msgpack:"column"`
	Mapping string `json:"mapping" yaml:"mapping" msgpack:"mapping"`
}

// AssociationDocument is the mapping information of an association.
type AssociationDocument struct {
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Target  string `json:"target" yaml:"target" msgpack:"target"`
	Mapping string `json:"mapping" yaml:"mapping" msgpack:"mapping"`
}

// NewTypeDocument returns the document of t.
func NewTypeDocument(t *Type) *TypeDocument {
	doc := &TypeDocument{
		Name:             t.Name,
		Table:            t.Table(),
		Strategy:         string(t.Strategy),
		MappedSuperclass: t.MappedSuperclass,
		Embeddable:       t.Embeddable,
		Printable:        t.Printable(),
		Fields:           make([]FieldDocument, 0, len(t.Fields)),
	}
	for _, f := range t.Fields {
		doc.Fields = append(doc.Fields, FieldDocument{Name: f.Name, Column: f.Column, Mapping: f.Mapping().String()})
	}
	for _, e := range t.Edges {
		doc.Associations = append(doc.Associations, AssociationDocument{Name: e.Name, Target: e.Type.Name, Mapping: e.Mapping().String()})
	}
	return doc
}
