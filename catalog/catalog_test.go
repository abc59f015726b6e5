package catalog

import (
	"errors"
	"testing"

	"github.com/cgalavis/schemakit/schemaerr"
)

func TestResolve_Builtins(t *testing.T) {
	c := Default()
	cases := []struct {
		name   string
		cat    Category
		size   int
		signed bool
	}{
		{"int8", Integer, 1, true},
		{"int32", Integer, 4, true},
		{"uint16", Integer, 2, false},
		{"uint64", Integer, 8, false},
		{"float", Numeric, 4, true},
		{"double", Numeric, 8, true},
		{"bool", Boolean, 1, true},
		{"string", Alpha, 0, true},
	}
	for _, tc := range cases {
		td, err := c.Resolve(tc.name)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.name, err)
		}
		if td.Category != tc.cat || td.Size != tc.size || td.Signed() != tc.signed {
			t.Fatalf("%s: got cat=%v size=%d signed=%v", tc.name, td.Category, td.Size, td.Signed())
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Default().Resolve("int24")
	if !errors.Is(err, schemaerr.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestPredicates(t *testing.T) {
	c := Default()
	if !c.IsPrimitive("string") || !c.IsPrimitive("bool") {
		t.Fatalf("string and bool are primitive")
	}
	if c.IsPrimitive("object") || c.IsPrimitive("struct") {
		t.Fatalf("object/struct are not primitive")
	}
	if !c.IsNumeric("double") || !c.IsNumeric("int8") || c.IsNumeric("string") {
		t.Fatalf("numeric predicate mismatch")
	}
	if !c.IsInteger("uint32") || c.IsInteger("float") {
		t.Fatalf("integer predicate mismatch")
	}
}

func TestDefine_OnClone(t *testing.T) {
	c := Default().Clone()
	zero := 0.0
	td, err := c.Define("Price", "int32", 0, &zero, nil)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if td.Signed() {
		t.Fatalf("min 0 should make the alias unsigned")
	}
	if Default().Has("Price") {
		t.Fatalf("default catalog must not change")
	}
	s, err := c.Define("Symbol", "string", 8, nil, nil)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if !s.Fixed || s.Size != 8 {
		t.Fatalf("expected fixed string, got %+v", s)
	}
	if _, err := c.Define("X", "nope", 0, nil, nil); !errors.Is(err, schemaerr.ErrUnknownType) {
		t.Fatalf("expected unknown base error, got %v", err)
	}
}

func TestFixedVariants(t *testing.T) {
	s := FixedString(16)
	if s.Category != Alpha || s.Size != 16 || !s.Fixed {
		t.Fatalf("fixed string: %+v", s)
	}
	i32, _ := Default().Resolve("int32")
	a := FixedArray(i32, 3)
	if a.Elem != i32 || a.Size != 3 || a.String() != "int32[3]" {
		t.Fatalf("fixed array: %+v", a)
	}
	if Default().Has("array") {
		t.Fatalf("fixed variants must not be registered")
	}
}

func TestCategoryNative(t *testing.T) {
	seen := map[Native]Category{}
	for _, c := range []Category{Integer, Numeric, Boolean, Alpha, Node} {
		n := c.Native()
		if n == NativeNone {
			t.Fatalf("%v has no native codec", c)
		}
		if prev, ok := seen[n]; ok {
			t.Fatalf("%v and %v share native %v", prev, c, n)
		}
		seen[n] = c
	}
}
