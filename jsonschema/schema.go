// Package jsonschema exports converter classes as JSON Schema documents
// describing the payloads the JSON converter accepts.
package jsonschema

import (
	"strconv"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
)

// Draft is the JSON Schema dialect of exported documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	// Core
	Schema string             `json:"$schema,omitempty"`
	Ref    string             `json:"$ref,omitempty"`
	Defs   map[string]*Schema `json:"$defs,omitempty"`
	Title  string             `json:"title,omitempty"`
	Type   string             `json:"type,omitempty"`

	// Scalars
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`

	// Object
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`
}

// FromClass exports class. Every class becomes an entry of $defs so
// recursive classes refer to themselves by $ref. Attributes and
// non-container references are required, as the binary converter requires
// them.
func FromClass(class *convert.ClassDescriptor) *Schema {
	e := &exporter{names: map[*convert.ClassDescriptor]string{}, taken: map[string]bool{}, defs: map[string]*Schema{}}
	return &Schema{Schema: Draft, Ref: e.ref(class), Defs: e.defs}
}

type exporter struct {
	names map[*convert.ClassDescriptor]string
	taken map[string]bool
	defs  map[string]*Schema
}

func (e *exporter) ref(c *convert.ClassDescriptor) string {
	if n, ok := e.names[c]; ok {
		return "#/$defs/" + n
	}
	name := c.Name
	for i := 2; e.taken[name]; i++ {
		name = c.Name + "_" + strconv.Itoa(i)
	}
	e.taken[name] = true
	e.names[c] = name

	s := &Schema{Title: c.Name, Type: "object", Properties: map[string]*Schema{}}
	e.defs[name] = s
	for _, a := range c.Attrs {
		s.Properties[a.Name] = scalar(a.Type)
		s.Required = append(s.Required, a.Name)
	}
	for _, r := range c.Refs {
		item := &Schema{Ref: e.ref(r.Class)}
		if r.Container {
			s.Properties[r.Name] = &Schema{Type: "array", Items: item}
			continue
		}
		s.Properties[r.Name] = item
		s.Required = append(s.Required, r.Name)
	}
	return "#/$defs/" + name
}

func scalar(t *catalog.TypeDescriptor) *Schema {
	switch t.Category {
	case catalog.Integer:
		return &Schema{Type: "integer", Minimum: t.Min, Maximum: t.Max}
	case catalog.Numeric:
		return &Schema{Type: "number", Minimum: t.Min, Maximum: t.Max}
	case catalog.Boolean:
		return &Schema{Type: "boolean"}
	case catalog.Alpha:
		s := &Schema{Type: "string"}
		if t.Size > 0 {
			n := t.Size
			s.MaxLength = &n
		}
		return s
	}
	return &Schema{}
}
