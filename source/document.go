// Package source decodes schema files into raw, format-independent documents.
//
// Three formats are understood: JSON (decoded through the go-json backed
// engine with duplicate-key rejection), YAML (same shape as JSON) and the
// Crabel XML object schema. Each format also provides a cheap Sniff used by
// dependency discovery to skip files that are not schema documents.
package source

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cgalavis/schemakit/schemaerr"
)

// Document is one schema file before validation.
type Document struct {
	Path          string
	Format        string
	Name          string
	Author        string
	Doc           string
	RootNamespace string
	// Version is the textual "major.minor.revision" form; array forms are
	// joined with dots. Empty when absent.
	Version      string
	Templates    map[string]string
	Dependencies []string
	Members      []Member
	// Types are scalar aliases declared by the document (XML AttributeTypes).
	Types []TypeAlias
}

// Member is a raw member record.
type Member struct {
	Pointer   string // location in the raw document, for diagnostics
	Type      string
	Name      string
	Namespace string
	Doc       string
	Template  string
	ValueType string
	Values    []Value
	// HasValues distinguishes an absent "values" key from an empty list.
	HasValues bool
	Members   []Member
	Size      int
	Min       *float64
	Max       *float64
	Optional  bool
	MinCount  int
	MaxCount  int // -1 means unbounded
}

// Value is a raw enum entry. Value holds a string, json.Number, int or float64
// depending on the format; nil when absent.
type Value struct {
	Pointer string
	Name    string
	Value   any
	Doc     string
}

// TypeAlias names a scalar type with optional width and bounds.
type TypeAlias struct {
	Pointer string
	Name    string
	Base    string
	Size    int
	Min     *float64
	Max     *float64
	Doc     string
}

// FromMap builds a Document from a JSON-shaped tree (map[string]any, []any,
// json.Number/float64/int, string, bool).
func FromMap(m map[string]any) (*Document, error) {
	root := schemaerr.Root()
	doc := &Document{}
	var err error
	if doc.Version, err = versionString(m["version"], root.Field("version")); err != nil {
		return nil, err
	}
	for _, f := range []stringField{
		{"name", &doc.Name},
		{"author", &doc.Author},
		{"doc", &doc.Doc},
		{"root_namespace", &doc.RootNamespace},
	} {
		if *f.dst, err = optString(m, f.key, root); err != nil {
			return nil, err
		}
	}
	if t, ok := m["templates"]; ok && t != nil {
		tm, ok := t.(map[string]any)
		if !ok {
			return nil, root.Field("templates").Schema(schemaerr.CodeMalformedDocument, "field", "templates")
		}
		doc.Templates = make(map[string]string, len(tm))
		for k, v := range tm {
			s, ok := v.(string)
			if !ok {
				return nil, root.Field("templates").Field(k).Schema(schemaerr.CodeMalformedDocument, "field", k)
			}
			doc.Templates[k] = s
		}
	}
	if d, ok := m["dependencies"]; ok && d != nil {
		arr, ok := d.([]any)
		if !ok {
			return nil, root.Field("dependencies").Schema(schemaerr.CodeMalformedDocument, "field", "dependencies")
		}
		for i, v := range arr {
			s, ok := v.(string)
			if !ok {
				return nil, root.Field("dependencies").Index(i).Schema(schemaerr.CodeMalformedDocument, "field", "dependencies")
			}
			doc.Dependencies = append(doc.Dependencies, s)
		}
	}
	if doc.Members, err = membersFrom(m["members"], root.Field("members")); err != nil {
		return nil, err
	}
	return doc, nil
}

func membersFrom(v any, at schemaerr.Pointer) ([]Member, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, at.Schema(schemaerr.CodeMalformedDocument, "field", "members")
	}
	out := make([]Member, 0, len(arr))
	for i, e := range arr {
		p := at.Index(i)
		em, ok := e.(map[string]any)
		if !ok {
			return nil, p.Schema(schemaerr.CodeMalformedDocument, "field", "members")
		}
		mem, err := memberFrom(em, p)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, nil
}

func memberFrom(m map[string]any, at schemaerr.Pointer) (Member, error) {
	mem := Member{Pointer: at.String(), MaxCount: 1}
	var err error
	for _, f := range []stringField{
		{"type", &mem.Type},
		{"name", &mem.Name},
		{"namespace", &mem.Namespace},
		{"doc", &mem.Doc},
		{"template", &mem.Template},
		{"value_type", &mem.ValueType},
	} {
		if *f.dst, err = optString(m, f.key, at); err != nil {
			return mem, err
		}
	}
	if mem.Size, err = optInt(m, "size", at, 0); err != nil {
		return mem, err
	}
	if mem.MinCount, err = optInt(m, "min_count", at, 0); err != nil {
		return mem, err
	}
	if mem.MaxCount, err = optInt(m, "max_count", at, 1); err != nil {
		return mem, err
	}
	if mem.Min, err = optFloat(m, "min", at); err != nil {
		return mem, err
	}
	if mem.Max, err = optFloat(m, "max", at); err != nil {
		return mem, err
	}
	if b, ok := m["optional"]; ok && b != nil {
		bv, ok := b.(bool)
		if !ok {
			return mem, at.Field("optional").Schema(schemaerr.CodeMalformedDocument, "field", "optional")
		}
		mem.Optional = bv
	}
	if vs, ok := m["values"]; ok && vs != nil {
		arr, ok := vs.([]any)
		if !ok {
			return mem, at.Field("values").Schema(schemaerr.CodeInvalidValues)
		}
		mem.HasValues = true
		for i, e := range arr {
			p := at.Field("values").Index(i)
			em, ok := e.(map[string]any)
			if !ok {
				return mem, p.Schema(schemaerr.CodeInvalidValues)
			}
			val := Value{Pointer: p.String(), Value: em["value"]}
			if val.Name, err = optString(em, "name", p); err != nil {
				return mem, err
			}
			if val.Doc, err = optString(em, "doc", p); err != nil {
				return mem, err
			}
			mem.Values = append(mem.Values, val)
		}
	}
	if mem.Members, err = membersFrom(m["members"], at.Field("members")); err != nil {
		return mem, err
	}
	return mem, nil
}

type stringField struct {
	key string
	dst *string
}

func optString(m map[string]any, key string, at schemaerr.Pointer) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", at.Field(key).Schema(schemaerr.CodeMalformedDocument, "field", key)
	}
	return s, nil
}

func optInt(m map[string]any, key string, at schemaerr.Pointer, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, at.Field(key).Schema(schemaerr.CodeMalformedDocument, "field", key)
	}
	return int(f), nil
}

func optFloat(m map[string]any, key string, at schemaerr.Pointer) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, at.Field(key).Schema(schemaerr.CodeMalformedDocument, "field", key)
	}
	return &f, nil
}

// toFloat accepts the numeric shapes produced by the JSON engine and yaml.v3.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// versionString accepts "1.2.3" or [1, 2, 3].
func versionString(v any, at schemaerr.Pointer) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			f, ok := toFloat(p)
			if !ok || f != math.Trunc(f) || f < 0 {
				return "", at.Schema(schemaerr.CodeInvalidVersion)
			}
			parts = append(parts, strconv.FormatInt(int64(f), 10))
		}
		return strings.Join(parts, "."), nil
	default:
		return "", at.Schema(schemaerr.CodeInvalidVersion)
	}
}

func (d *Document) String() string {
	return fmt.Sprintf("%s(%s, %d members)", d.Path, d.Format, len(d.Members))
}
