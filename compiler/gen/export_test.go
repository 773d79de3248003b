package gen

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

func TestNewExporter(t *testing.T) {
	g := blogGraph(t)
	for _, format := range Formats {
		e, err := NewExporter(format, g)
		require.NoError(t, err, format)
		assert.NotNil(t, e)
	}
	_, err := NewExporter("xml", g)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestDocExporter(t *testing.T) {
	ctx := context.Background()
	decoders := map[string]func([]byte, any) error{
		FormatYAML:    yaml.Unmarshal,
		FormatJSON:    json.Unmarshal,
		FormatMsgpack: msgpack.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			g := blogGraph(t)
			e, err := NewExporter(format, g)
			require.NoError(t, err)

			written, err := e.Export(ctx, g.Nodes)
			require.NoError(t, err)
			require.Len(t, written, 4)
			path := filepath.Join("/out/entity", "User.mapping."+format)
			assert.Contains(t, written, path)

			b, err := afero.ReadFile(g.Fs, path)
			require.NoError(t, err)
			var doc TypeDocument
			require.NoError(t, decode(b, &doc))
			assert.Equal(t, "User", doc.Name)
			assert.Equal(t, "users", doc.Table)
			assert.Equal(t, "identity", doc.Strategy)
			require.Len(t, doc.Fields, 7)
			assert.Equal(t, FieldDocument{Name: "email", Column: "email", Mapping: "column=email;type=string;nullable;unique"}, doc.Fields[2])
			require.Len(t, doc.Associations, 3)
			assert.Equal(t, "Profile", doc.Associations[0].Target)

			// Existing documents are kept unless forced.
			written, err = e.Export(ctx, g.Nodes)
			require.NoError(t, err)
			assert.Empty(t, written)
			g.Force = true
			written, err = e.Export(ctx, g.Nodes)
			require.NoError(t, err)
			assert.Len(t, written, 4)
		})
	}
}

func TestGoExporter(t *testing.T) {
	g := blogGraph(t, WithFilters("tag"))
	e, err := NewExporter(FormatGo, g)
	require.NoError(t, err)
	written, err := e.Export(context.Background(), g.Nodes)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join("/out/entity", "tag.go"),
		filepath.Join("/out/entity", "manifest", "tag.go"),
		filepath.Join("/out/entity", "validators", "tag.go"),
	}, written)
}
