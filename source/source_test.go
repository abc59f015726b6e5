package source

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cgalavis/schemakit/schemaerr"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

const pointJSON = `{
  "version": "1.0.0",
  "name": "geometry",
  "templates": {"struct": "plain"},
  "dependencies": ["common/*.json"],
  "members": [
    {"type": "struct", "name": "Point", "members": [
      {"type": "int32", "name": "x"},
      {"type": "int32", "name": "y", "optional": true}
    ]},
    {"type": "enum", "name": "Color", "values": [{"name": "Red", "value": 1}]}
  ]
}`

func TestReadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "geo.json", pointJSON)
	doc, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Format != "json" || doc.Path != p || doc.Version != "1.0.0" || doc.Name != "geometry" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if doc.Templates["struct"] != "plain" || len(doc.Dependencies) != 1 {
		t.Fatalf("templates/deps: %+v", doc)
	}
	if len(doc.Members) != 2 || len(doc.Members[0].Members) != 2 {
		t.Fatalf("members: %+v", doc.Members)
	}
	y := doc.Members[0].Members[1]
	if !y.Optional || y.Pointer != "/members/0/members/1" {
		t.Fatalf("field y: %+v", y)
	}
	color := doc.Members[1]
	if !color.HasValues || color.Values[0].Value != json.Number("1") {
		t.Fatalf("enum values: %+v", color.Values)
	}
}

func TestReadFile_VersionArray(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "v.json", `{"version":[1,2,3],"members":[]}`)
	doc, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Version != "1.2.3" {
		t.Fatalf("version = %q", doc.Version)
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"), Options{})
	if !errors.Is(err, schemaerr.ErrIO) || !schemaerr.HasCode(err, schemaerr.CodeFileNotFound) {
		t.Fatalf("expected file_not_found, got %v", err)
	}

	dup := writeFile(t, dir, "dup.json", `{"version":"1.0.0","version":"1.0.1","members":[]}`)
	_, err = ReadFile(dup, Options{})
	e, ok := schemaerr.As(err)
	if !ok || e.Code != schemaerr.CodeDuplicateKey || e.Path != "/version" || e.Document != dup {
		t.Fatalf("expected duplicate_key at /version, got %v", err)
	}
	if _, err := ReadFile(dup, Options{AllowDuplicateKeys: true}); err != nil {
		t.Fatalf("duplicates allowed: %v", err)
	}

	bad := writeFile(t, dir, "bad.json", `{"version":"1.0.0","members":[{"type":3}]}`)
	_, err = ReadFile(bad, Options{})
	e, ok = schemaerr.As(err)
	if !ok || e.Code != schemaerr.CodeMalformedDocument || e.Path != "/members/0/type" {
		t.Fatalf("expected malformed type, got %v", err)
	}

	txt := writeFile(t, dir, "notes.txt", "hello")
	if _, err := ReadFile(txt, Options{}); !errors.Is(err, schemaerr.ErrSchema) {
		t.Fatalf("unsupported extension should be a schema error, got %v", err)
	}
}

func TestReadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "geo.yaml", `
version: "1.0.0"
members:
  - type: struct
    name: Point
    members:
      - {type: int32, name: x}
      - {type: string, name: label, size: 8}
  - type: enum
    name: Side
    value_type: int8
    values:
      - {name: Buy, value: 1}
      - {name: Sell, value: "2"}
`)
	doc, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Format != "yaml" || len(doc.Members) != 2 {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if doc.Members[0].Members[1].Size != 8 {
		t.Fatalf("size: %+v", doc.Members[0].Members[1])
	}
	if doc.Members[1].Values[0].Value != 1 || doc.Members[1].Values[1].Value != "2" {
		t.Fatalf("values: %+v", doc.Members[1].Values)
	}
}

const crabelXML = `<?xml version="1.0"?>
<CrabelObjectSchema Version="1.0.0" Name="orders">
  <Dependencies><Dependency>common.xml</Dependency></Dependencies>
  <AttributeTypes>
    <Attribute><Name>Price</Name><Type>int64</Type><MinValue>0</MinValue></Attribute>
    <Attribute><Name>Symbol</Name><Type>string</Type><Size>8</Size></Attribute>
    <Attribute>
      <Name>Side</Name><Type>int8</Type>
      <AllowedValues>
        <AllowedValue><Value>1</Value><Meaning>Buy</Meaning></AllowedValue>
        <AllowedValue><Value>2</Value><Meaning>Sell</Meaning></AllowedValue>
      </AllowedValues>
    </Attribute>
  </AttributeTypes>
  <Groups>
    <Group>
      <Name>Trading</Name>
      <ObjectTypes>
        <ObjectDef>
          <Name>Order</Name>
          <Attributes>
            <Attribute><Name>qty</Name><Index>2</Index><Type>uint32</Type></Attribute>
            <Attribute><Name>price</Name><Index>1</Index><Type>Price</Type></Attribute>
          </Attributes>
          <References>
            <Object><Name>fills</Name><Index>3</Index><Type>Fill</Type><MaxCount>unbounded</MaxCount></Object>
          </References>
        </ObjectDef>
      </ObjectTypes>
      <Groups>
        <Group>
          <Name>Exec</Name>
          <ObjectTypes>
            <ObjectDef><Name>Fill</Name><Attributes><Attribute><Name>px</Name><Type>double</Type></Attribute></Attributes></ObjectDef>
          </ObjectTypes>
        </Group>
      </Groups>
    </Group>
  </Groups>
</CrabelObjectSchema>`

func TestReadFile_CrabelXML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "orders.xml", crabelXML)
	doc, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Version != "1.0.0" || doc.Name != "orders" || len(doc.Dependencies) != 1 {
		t.Fatalf("header: %+v", doc)
	}
	if len(doc.Types) != 2 || doc.Types[0].Name != "Price" || doc.Types[1].Size != 8 {
		t.Fatalf("types: %+v", doc.Types)
	}
	if *doc.Types[0].Min != 0 {
		t.Fatalf("price min: %v", *doc.Types[0].Min)
	}
	// enum first, then Order, then the nested Fill
	if len(doc.Members) != 3 {
		t.Fatalf("members: %+v", doc.Members)
	}
	side, order, fill := doc.Members[0], doc.Members[1], doc.Members[2]
	if side.Type != "enum" || side.Values[1].Name != "Sell" || side.Values[1].Value != "2" {
		t.Fatalf("side: %+v", side)
	}
	if order.Namespace != "Trading" || fill.Namespace != "Trading::Exec" {
		t.Fatalf("namespaces: %q %q", order.Namespace, fill.Namespace)
	}
	names := []string{order.Members[0].Name, order.Members[1].Name, order.Members[2].Name}
	if names[0] != "price" || names[1] != "qty" || names[2] != "fills" {
		t.Fatalf("index order: %v", names)
	}
	if order.Members[2].MaxCount != -1 || order.Members[2].Type != "Fill" {
		t.Fatalf("fills ref: %+v", order.Members[2])
	}
}

func TestSniffFile(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		body string
		want bool
	}{
		"ok.json":        {`{"version":"1.0.0","members":[]}`, true},
		"arr.json":       {`{"version":[1,0,0]}`, true},
		"noversion.json": {`{"members":[]}`, false},
		"short.json":     {`{"version":"1.0"}`, false},
		"broken.json":    {`{"version":`, false},
		"ok.yaml":        {"version: \"2.1.0\"\n", true},
		"ok.xml":         {`<CrabelObjectSchema Version="1.0.0"/>`, true},
		"other.xml":      {`<Project Version="1.0.0"/>`, false},
		"readme.md":      {`version 1.0.0`, false},
	}
	for name, tc := range cases {
		p := writeFile(t, dir, name, tc.body)
		if got := SniffFile(p); got != tc.want {
			t.Fatalf("%s: sniff = %v, want %v", name, got, tc.want)
		}
	}
	if SniffFile(filepath.Join(dir, "nope.json")) {
		t.Fatalf("missing file should not sniff")
	}
}
