package schemakit_test

import (
	"testing"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/schemaerr"
)

func TestIsValidVersion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"1.0.0", true},
		{"1.1.0", false},
		{"2.0.0", false},
		{"1.0.99", true},
		{"0.9.0", false},
		{"1", true},
		{"1.x.0", false},
		{"", false},
		{"1.0.0.0", false},
	}
	for _, tc := range cases {
		if got := schemakit.IsValidVersion(tc.in); got != tc.want {
			t.Fatalf("IsValidVersion(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestVersion_CompatibleWith(t *testing.T) {
	supported := schemakit.Version{Major: 1, Minor: 2}
	for in, want := range map[string]bool{
		"1.0.0": true,
		"1.2.7": true,
		"1.3.0": false,
		"0.2.0": false,
	} {
		v, err := schemakit.ParseVersion(in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", in, err)
		}
		if got := v.CompatibleWith(supported); got != want {
			t.Fatalf("%s compatible with %s = %v, want %v", v, supported, got, want)
		}
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	_, err := schemakit.ParseVersion("-1.0.0")
	if !schemaerr.HasCode(err, schemaerr.CodeInvalidVersion) {
		t.Fatalf("expected invalid_version, got %v", err)
	}
}
