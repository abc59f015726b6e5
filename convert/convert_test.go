package convert_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/schemaerr"
)

func typeOf(t *testing.T, name string) *catalog.TypeDescriptor {
	t.Helper()
	td, err := catalog.Default().Resolve(name)
	require.NoError(t, err)
	return td
}

func TestClassDescriptor_Validate(t *testing.T) {
	node := &convert.ClassDescriptor{Name: "Node", Attrs: []convert.Attr{{Name: "id", Type: typeOf(t, "int32")}}}
	node.Refs = []convert.Ref{{Name: "next", Class: node, Container: true}}
	require.NoError(t, node.Validate())

	bad := []*convert.ClassDescriptor{
		nil,
		{},
		{Name: "A", Attrs: []convert.Attr{{Name: "x"}}},
		{Name: "A", Refs: []convert.Ref{{Name: "r"}}},
		{Name: "A", Attrs: []convert.Attr{{Name: "x", Type: typeOf(t, "bool")}}, Refs: []convert.Ref{{Name: "x", Class: node}}},
	}
	for i, c := range bad {
		err := c.Validate()
		assert.True(t, errors.Is(err, schemaerr.ErrConversion), "case %d: %v", i, err)
		assert.True(t, schemaerr.HasCode(err, schemaerr.CodeInvalidDescriptor), "case %d: %v", i, err)
	}
}

func TestParseHelpers(t *testing.T) {
	n, err := convert.ParseInt("-12", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(-12), n)
	_, err = convert.ParseInt("200", 8)
	assert.Error(t, err)
	_, err = convert.ParseInt(1.5, 32)
	assert.Error(t, err)

	u, err := convert.ParseUint(json.Number("65535"), 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(65535), u)
	_, err = convert.ParseUint(-1, 16)
	assert.Error(t, err)
	_, err = convert.ParseUint(70000, 16)
	assert.Error(t, err)

	f, err := convert.ParseFloat("2.5", 64)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	b, err := convert.ParseBool("1")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = convert.ParseBool(2)
	assert.Error(t, err)

	s, err := convert.FormatScalar(3.0)
	require.NoError(t, err)
	assert.Equal(t, "3", s)
	assert.False(t, convert.IsScalar(map[string]any{}))
}

func TestCoerce(t *testing.T) {
	v, err := convert.Coerce("n", "7", typeOf(t, "uint16"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = convert.Coerce("n", json.Number("-7"), typeOf(t, "int16"))
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	_, err = convert.Coerce("sym", "TOOLONG", catalog.FixedString(4))
	e, ok := schemaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, schemaerr.CodeInvalidValue, e.Code)
	assert.Equal(t, "sym", e.Param("name"))

	sized := &catalog.TypeDescriptor{Name: "code", Category: catalog.Alpha, Size: 4}
	_, err = convert.Coerce("code", "TOOLONG", sized)
	assert.True(t, schemaerr.HasCode(err, schemaerr.CodeInvalidValue), "got %v", err)

	_, err = convert.Coerce("o", "x", typeOf(t, "object"))
	assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType))
}

type stubConverter struct{ name string }

func (s stubConverter) Name() string { return s.name }
func (stubConverter) ToObject([]byte, *convert.ClassDescriptor) (convert.Object, error) {
	return convert.Object{}, nil
}
func (stubConverter) FromObject(convert.Object, *convert.ClassDescriptor) ([]byte, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := convert.NewRegistry(stubConverter{"xml"}, stubConverter{"json"})
	r.Register(nil)
	assert.Equal(t, []string{"json", "xml"}, r.Names())
	c, ok := r.Get("xml")
	require.True(t, ok)
	assert.Equal(t, "xml", c.Name())
	_, ok = r.Get("struct")
	assert.False(t, ok)
}
