package schemakit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/convert/jsonconv"
	"github.com/cgalavis/schemakit/convert/structconv"
	"github.com/cgalavis/schemakit/convert/xmlconv"
	"github.com/cgalavis/schemakit/schemaerr"
)

const bookSchema = `{"version":"1.0.0","members":[
	{"type":"enum","name":"Side","value_type":"uint8","values":[{"name":"Buy","value":1},{"name":"Sell","value":2}]},
	{"type":"struct","name":"Level","members":[
		{"type":"double","name":"px"},
		{"type":"uint32","name":"qty"}]},
	{"type":"struct","name":"Book","members":[
		{"type":"string","name":"sym","size":8},
		{"type":"Side","name":"side"},
		{"type":"struct","members":[{"type":"int64","name":"seq"}]},
		{"type":"Level","name":"levels","max_count":-1},
		{"type":"array","name":"tags","value_type":"string"},
		{"type":"struct","name":"meta","members":[{"type":"bool","name":"live"}]}]},
	{"type":"struct","name":"Tree","members":[
		{"type":"string","name":"label"},
		{"type":"Tree","name":"kids","max_count":-1}]}]}`

func loadBook(t *testing.T) (*schemakit.Registry, *schemakit.Document) {
	t.Helper()
	p := writeSchema(t, t.TempDir(), "book.json", bookSchema)
	reg := schemakit.NewRegistry()
	doc, err := reg.Load(p)
	require.NoError(t, err)
	return reg, doc
}

func TestClass_Derivation(t *testing.T) {
	reg, doc := loadBook(t)
	c, err := reg.Class(doc, "Book")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	var attrs, refs []string
	for _, a := range c.Attrs {
		attrs = append(attrs, a.Name)
	}
	for _, r := range c.Refs {
		refs = append(refs, r.Name)
	}
	assert.Equal(t, []string{"sym", "side", "seq"}, attrs)
	assert.Equal(t, []string{"levels", "tags", "meta"}, refs)

	side, _ := c.Attr("side")
	assert.Equal(t, "uint8", side.Type.Name)
	sym, _ := c.Attr("sym")
	assert.True(t, sym.Type.Fixed)

	levels, _ := c.Ref("levels")
	assert.True(t, levels.Container)
	assert.Equal(t, "Level", levels.Class.Name)
	tags, _ := c.Ref("tags")
	assert.True(t, tags.Container)
	_, ok := tags.Class.Attr(schemakit.ValueAttr)
	assert.True(t, ok)
	meta, _ := c.Ref("meta")
	assert.False(t, meta.Container)
}

func TestClass_SelfReference(t *testing.T) {
	reg, doc := loadBook(t)
	c, err := reg.Class(doc, "Tree")
	require.NoError(t, err)
	kids, ok := c.Ref("kids")
	require.True(t, ok)
	assert.Same(t, c, kids.Class)

	l1, err := structconv.LayoutFor(c)
	require.NoError(t, err)
	l2, err := structconv.LayoutFor(c)
	require.NoError(t, err)
	assert.Same(t, l1, l2)
}

func TestClass_Errors(t *testing.T) {
	reg, doc := loadBook(t)
	_, err := reg.Class(doc, "Missing")
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeUnknownType))
	_, err = reg.Class(doc, "Side")
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeUnsupportedType))
}

func TestClass_RoundTripAllConverters(t *testing.T) {
	reg, doc := loadBook(t)
	c, err := reg.Class(doc, "Book")
	require.NoError(t, err)

	obj := convert.Object{
		"sym":  "ESZ5",
		"side": 2,
		"seq":  int64(42),
		"levels": []any{
			convert.Object{"px": 101.25, "qty": 3},
			convert.Object{"px": 101.5, "qty": 7},
		},
		"tags": []any{convert.Object{"value": "cme"}},
		"meta": convert.Object{"live": true},
	}

	converters := []convert.Converter{xmlconv.New(), jsonconv.New(), structconv.New(0)}
	for _, cv := range converters {
		first, err := cv.FromObject(obj, c)
		require.NoError(t, err, cv.Name())
		back, err := cv.ToObject(first, c)
		require.NoError(t, err, cv.Name())
		second, err := cv.FromObject(back, c)
		require.NoError(t, err, cv.Name())
		assert.Equal(t, string(first), string(second), cv.Name())
	}
}

const boundedXML = `<?xml version="1.0"?>
<CrabelObjectSchema Version="1.0.0" Name="bounded">
  <Groups><Group><Name>G</Name><ObjectTypes>
    <ObjectDef><Name>M</Name><Attributes>
      <Attribute><Name>x</Name><Type>int32</Type><MinValue>0</MinValue><MaxValue>1000</MaxValue></Attribute>
      <Attribute><Name>y</Name><Type>int32</Type></Attribute>
    </Attributes></ObjectDef>
  </ObjectTypes></Group></Groups>
</CrabelObjectSchema>`

func TestClass_DeclaredBoundsPickCodec(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		file, body, class string
	}{
		{"bounded.json", `{"version":"1.0.0","members":[{"type":"struct","name":"M","members":[
			{"type":"int32","name":"x","min":0,"max":1000},
			{"type":"int32","name":"y"}]}]}`, "M"},
		{"bounded.xml", boundedXML, "G::M"},
	}
	for _, tc := range cases {
		reg := schemakit.NewRegistry()
		doc, err := reg.Load(writeSchema(t, dir, tc.file, tc.body))
		require.NoError(t, err, tc.file)
		c, err := reg.Class(doc, tc.class)
		require.NoError(t, err, tc.file)

		x, ok := c.Attr("x")
		require.True(t, ok, tc.file)
		assert.False(t, x.Type.Signed(), tc.file)
		require.NotNil(t, x.Type.Max, tc.file)
		assert.Equal(t, 1000.0, *x.Type.Max, tc.file)
		codec, err := structconv.BinaryTypeFor(x.Type)
		require.NoError(t, err, tc.file)
		assert.Equal(t, structconv.Uint, codec.Kind, tc.file)
		assert.Equal(t, 4, codec.Width, tc.file)

		y, _ := c.Attr("y")
		codec, err = structconv.BinaryTypeFor(y.Type)
		require.NoError(t, err, tc.file)
		assert.Equal(t, structconv.Int, codec.Kind, tc.file)
	}

	base, err := catalog.Default().Resolve("int32")
	require.NoError(t, err)
	assert.True(t, base.Signed(), "catalog type must stay untouched")
}
