package jsonschema_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/jsonschema"
)

func TestFromClass(t *testing.T) {
	u8, err := catalog.Default().Resolve("uint8")
	require.NoError(t, err)
	node := &convert.ClassDescriptor{Name: "Node", Attrs: []convert.Attr{
		{Name: "level", Type: u8},
		{Name: "sym", Type: catalog.FixedString(4)},
	}}
	leaf := &convert.ClassDescriptor{Name: "Node"}
	node.Refs = []convert.Ref{
		{Name: "kids", Class: node, Container: true},
		{Name: "leaf", Class: leaf},
	}

	s := jsonschema.FromClass(node)
	assert.Equal(t, jsonschema.Draft, s.Schema)
	assert.Equal(t, "#/$defs/Node", s.Ref)
	require.Len(t, s.Defs, 2)

	def := s.Defs["Node"]
	assert.Equal(t, []string{"level", "sym", "leaf"}, def.Required)
	assert.Equal(t, "integer", def.Properties["level"].Type)
	assert.Equal(t, 255.0, *def.Properties["level"].Maximum)
	assert.Equal(t, 4, *def.Properties["sym"].MaxLength)
	assert.Equal(t, "#/$defs/Node", def.Properties["kids"].Items.Ref)
	assert.Equal(t, "#/$defs/Node_2", def.Properties["leaf"].Ref)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$defs":{"Node":`)
}
