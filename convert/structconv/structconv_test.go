package structconv_test

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/convert/structconv"
	"github.com/cgalavis/schemakit/schemaerr"
)

func builtin(t *testing.T, name string) *catalog.TypeDescriptor {
	t.Helper()
	td, err := catalog.Default().Resolve(name)
	require.NoError(t, err)
	return td
}

func TestBinaryTypeFor(t *testing.T) {
	cases := []struct {
		typ  *catalog.TypeDescriptor
		want string
	}{
		{builtin(t, "int8"), "int8"},
		{builtin(t, "uint16"), "uint16"},
		{builtin(t, "int64"), "int64"},
		{builtin(t, "float"), "float32"},
		{builtin(t, "double"), "float64"},
		{builtin(t, "bool"), "bool8"},
		{builtin(t, "string"), "string"},
		{catalog.FixedString(8), "fixed_string64"},
	}
	for _, tc := range cases {
		c, err := structconv.BinaryTypeFor(tc.typ)
		require.NoError(t, err, tc.typ.String())
		assert.Equal(t, tc.want, c.String(), tc.typ.String())
	}

	for _, bad := range []*catalog.TypeDescriptor{
		nil,
		builtin(t, "object"),
		{Name: "int24", Category: catalog.Integer, Size: 3},
		{Name: "half", Category: catalog.Numeric, Size: 2},
	} {
		_, err := structconv.BinaryTypeFor(bad)
		assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType), "%v", bad)
	}
}

func quoteClass(t *testing.T) *convert.ClassDescriptor {
	t.Helper()
	px := &convert.ClassDescriptor{Name: "Px", Attrs: []convert.Attr{{Name: "v", Type: builtin(t, "double")}}}
	return &convert.ClassDescriptor{
		Name: "Quote",
		Attrs: []convert.Attr{
			{Name: "id", Type: builtin(t, "int32")},
			{Name: "live", Type: builtin(t, "bool")},
			{Name: "sym", Type: catalog.FixedString(4)},
		},
		Refs: []convert.Ref{{Name: "px", Class: px}},
	}
}

func TestFixedLayout(t *testing.T) {
	class := quoteClass(t)
	c := structconv.New(4)
	l, err := c.LayoutFor(class)
	require.NoError(t, err)
	size, fixed := l.FixedSize()
	require.True(t, fixed)
	assert.Equal(t, 17, size)

	out, err := c.FromObject(convert.Object{"id": -2, "live": true, "sym": "ES", "px": convert.Object{"v": 1.0}}, class)
	require.NoError(t, err)
	assert.Len(t, out, size)
	assert.Equal(t, "feffffff"+"01"+"45530000"+"000000000000f03f", hex.EncodeToString(out))

	obj, err := c.ToObject(out, class)
	require.NoError(t, err)
	assert.Equal(t, convert.Object{"id": int64(-2), "live": true, "sym": "ES", "px": convert.Object{"v": 1.0}}, obj)

	again, err := c.LayoutFor(class)
	require.NoError(t, err)
	assert.Same(t, l, again)
}

func TestVariableLayout(t *testing.T) {
	item := &convert.ClassDescriptor{Name: "Item", Attrs: []convert.Attr{{Name: "name", Type: builtin(t, "string")}}}
	class := &convert.ClassDescriptor{
		Name:  "Bag",
		Attrs: []convert.Attr{{Name: "n", Type: builtin(t, "uint8")}},
		Refs:  []convert.Ref{{Name: "items", Class: item, Container: true}},
	}
	c := structconv.New(0)
	l, err := c.LayoutFor(class)
	require.NoError(t, err)
	_, fixed := l.FixedSize()
	assert.False(t, fixed)

	out, err := c.FromObject(convert.Object{"n": "2", "items": []any{convert.Object{"name": "a"}, convert.Object{"name": "bc"}}}, class)
	require.NoError(t, err)
	assert.Equal(t, "02"+"02000000"+"0100000061"+"020000006263", hex.EncodeToString(out))

	obj, err := c.ToObject(out, class)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), obj["n"])
	assert.Equal(t, []any{convert.Object{"name": "a"}, convert.Object{"name": "bc"}}, obj["items"])

	empty, err := c.FromObject(convert.Object{"n": 0}, class)
	require.NoError(t, err)
	assert.Equal(t, "0000000000", hex.EncodeToString(empty))
}

func TestDecodeErrors(t *testing.T) {
	class := quoteClass(t)
	c := structconv.New(0)
	out, err := c.FromObject(convert.Object{"id": 1, "live": false, "sym": "A", "px": convert.Object{"v": 2.5}}, class)
	require.NoError(t, err)

	_, err = c.ToObject(out[:len(out)-1], class)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeShortBuffer), "got %v", err)

	_, err = c.ToObject(append(append([]byte{}, out...), 0), class)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeTrailingBytes), "got %v", err)

	bad := append([]byte{}, out...)
	bad[4] = 7
	_, err = c.ToObject(bad, class)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeInvalidValue), "got %v", err)
}

func TestEncodeErrors(t *testing.T) {
	class := quoteClass(t)
	c := structconv.New(0)
	cases := []struct {
		name string
		obj  convert.Object
	}{
		{"missing attr", convert.Object{"live": true, "sym": "A", "px": convert.Object{"v": 1}}},
		{"overflow", convert.Object{"id": 1 << 40, "live": true, "sym": "A", "px": convert.Object{"v": 1}}},
		{"wide string", convert.Object{"id": 1, "live": true, "sym": "TOOLONG", "px": convert.Object{"v": 1}}},
		{"missing ref", convert.Object{"id": 1, "live": true, "sym": "A"}},
		{"scalar ref", convert.Object{"id": 1, "live": true, "sym": "A", "px": 3}},
	}
	for _, tc := range cases {
		_, err := c.FromObject(tc.obj, class)
		e, ok := schemaerr.As(err)
		require.True(t, ok, "%s: %v", tc.name, err)
		assert.Equal(t, schemaerr.CodeInvalidValue, e.Code, tc.name)
	}
}

func TestRecursiveReferences(t *testing.T) {
	tree := &convert.ClassDescriptor{Name: "Tree", Attrs: []convert.Attr{{Name: "v", Type: builtin(t, "int16")}}}
	tree.Refs = []convert.Ref{{Name: "kids", Class: tree, Container: true}}
	c := structconv.New(0)
	obj := convert.Object{"v": int64(1), "kids": []any{
		convert.Object{"v": int64(2), "kids": []any{}},
	}}
	out, err := c.FromObject(obj, tree)
	require.NoError(t, err)
	back, err := c.ToObject(out, tree)
	require.NoError(t, err)
	assert.Equal(t, obj, back)

	loop := &convert.ClassDescriptor{Name: "Loop", Attrs: []convert.Attr{{Name: "v", Type: builtin(t, "int8")}}}
	loop.Refs = []convert.Ref{{Name: "next", Class: loop}}
	_, err = c.LayoutFor(loop)
	assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType), "got %v", err)
}

func TestHugeCountIsShortBuffer(t *testing.T) {
	item := &convert.ClassDescriptor{Name: "Item", Attrs: []convert.Attr{{Name: "b", Type: builtin(t, "uint8")}}}
	class := &convert.ClassDescriptor{Name: "Bag", Refs: []convert.Ref{{Name: "items", Class: item, Container: true}}}
	_, err := structconv.New(0).ToObject([]byte{0xff, 0xff, 0xff, 0x7f, 1}, class)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeShortBuffer), "got %v", err)
}

func TestSizedStringWithoutFixedFlag(t *testing.T) {
	class := &convert.ClassDescriptor{Name: "Tag", Attrs: []convert.Attr{
		{Name: "s", Type: &catalog.TypeDescriptor{Name: "code", Category: catalog.Alpha, Size: 4}},
	}}
	c := structconv.New(0)
	_, err := c.FromObject(convert.Object{"s": "toolong"}, class)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeInvalidValue), "got %v", err)

	out, err := c.FromObject(convert.Object{"s": "ab"}, class)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0}, out)
}

func TestEmptyContainerElementRejected(t *testing.T) {
	empty := &convert.ClassDescriptor{Name: "Empty"}
	class := &convert.ClassDescriptor{Name: "Bag", Refs: []convert.Ref{{Name: "xs", Class: empty, Container: true}}}
	c := structconv.New(0)
	_, err := c.LayoutFor(class)
	assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType), "got %v", err)

	_, err = c.ToObject([]byte{0x00, 0xc2, 0xeb, 0x0b}, class)
	assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType), "got %v", err)
}
