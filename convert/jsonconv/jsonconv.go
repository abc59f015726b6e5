// Package jsonconv converts between JSON text and convert.Object values.
// The JSON object body is the class object; numbers are kept exact as
// json.Number and container references always read as lists.
package jsonconv

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-json"

	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/schemaerr"
)

// Converter is the JSON converter.
type Converter struct {
	// Indent, when set, pretty-prints output with this per-level indent.
	Indent string
}

// New returns a JSON converter producing compact output.
func New() *Converter { return &Converter{} }

func (*Converter) Name() string { return "json" }

// ToObject decodes data, which must be a JSON object.
func (c *Converter) ToObject(data []byte, class *convert.ClassDescriptor) (convert.Object, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, schemaerr.Conversion(schemaerr.CodeMalformedPayload).Wrap(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, schemaerr.Conversion(schemaerr.CodeMalformedPayload, "reason", "trailing data")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, schemaerr.Conversion(schemaerr.CodeMalformedPayload, "reason", "payload is not an object")
	}
	return normalize(obj, class), nil
}

// FromObject encodes obj with map keys sorted.
func (c *Converter) FromObject(obj convert.Object, class *convert.ClassDescriptor) ([]byte, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = convert.Object{}
	}
	norm := normalize(obj, class)
	var (
		out []byte
		err error
	)
	if c.Indent != "" {
		out, err = json.MarshalIndent(norm, "", c.Indent)
	} else {
		out, err = json.Marshal(norm)
	}
	if err != nil {
		return nil, schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", class.Name).Wrap(err)
	}
	return out, nil
}

// normalize returns a shallow copy of obj in which every container reference
// holds a list and nested references are normalized against their class.
func normalize(obj convert.Object, class *convert.ClassDescriptor) convert.Object {
	out := make(convert.Object, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	if class == nil {
		return out
	}
	for _, r := range class.Refs {
		v, ok := out[r.Name]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			n := normalize(t, r.Class)
			if r.Container {
				out[r.Name] = []any{n}
			} else {
				out[r.Name] = n
			}
		case []any:
			items := make([]any, len(t))
			for i, item := range t {
				if m, ok := item.(map[string]any); ok {
					items[i] = normalize(m, r.Class)
				} else {
					items[i] = item
				}
			}
			out[r.Name] = items
		}
	}
	return out
}
