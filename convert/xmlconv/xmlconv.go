// Package xmlconv converts between XML text and convert.Object values.
//
// The mapping is symmetric. On write, scalar values become attributes of
// the class element and nested objects or lists become child elements. On
// read, attributes become string fields and child elements are lowered
// recursively; children named by a container reference, and children that
// repeat, become lists. A leaf child (no attributes, no children) lowers to
// its raw text unless a reference declares it as an object. Text content of
// an element that also has attributes or children is kept under "#text".
//
// Values are never coerced: use the convert.Parse helpers on the strings.
package xmlconv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/schemaerr"
)

// TextKey holds element text alongside attributes or children.
const TextKey = "#text"

// Converter is the XML converter. The zero value indents with two spaces.
type Converter struct {
	// Indent overrides the per-level indentation; "" uses two spaces.
	Indent string
}

// New returns an XML converter.
func New() *Converter { return &Converter{} }

func (*Converter) Name() string { return "xml" }

type element struct {
	name     string
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func parse(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*element
	var root *element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("unexpected element %s after document end", t.Name.Local)
			}
			el := &element{name: t.Name.Local, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// ToObject parses data, checks the root element against class and lowers it.
func (c *Converter) ToObject(data []byte, class *convert.ClassDescriptor) (convert.Object, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	root, err := parse(data)
	if err != nil {
		return nil, schemaerr.Conversion(schemaerr.CodeMalformedPayload).Wrap(err)
	}
	if root.name != class.Name {
		return nil, schemaerr.Conversion(schemaerr.CodeWrongRoot, "name", root.name, "expected", class.Name)
	}
	return lowerObject(root, class), nil
}

func (e *element) leaf() bool { return len(e.attrs) == 0 && len(e.children) == 0 }

func lowerObject(e *element, class *convert.ClassDescriptor) convert.Object {
	obj := convert.Object{}
	for _, a := range e.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		obj[a.Name.Local] = a.Value
	}
	if len(e.children) > 0 || len(e.attrs) > 0 {
		if txt := strings.TrimSpace(e.text.String()); txt != "" {
			obj[TextKey] = txt
		}
	}

	var order []string
	groups := map[string][]*element{}
	for _, ch := range e.children {
		if _, ok := groups[ch.name]; !ok {
			order = append(order, ch.name)
		}
		groups[ch.name] = append(groups[ch.name], ch)
	}
	for _, name := range order {
		var ref convert.Ref
		var known bool
		if class != nil {
			ref, known = class.Ref(name)
		}
		elems := groups[name]
		values := make([]any, 0, len(elems))
		for _, ch := range elems {
			switch {
			case known:
				values = append(values, lowerObject(ch, ref.Class))
			case ch.leaf():
				values = append(values, ch.text.String())
			default:
				values = append(values, lowerObject(ch, nil))
			}
		}
		if len(values) == 1 && !(known && ref.Container) {
			obj[name] = values[0]
		} else {
			obj[name] = values
		}
	}
	return obj
}

// FromObject writes obj as indented XML rooted at an element named after
// class.
func (c *Converter) FromObject(obj convert.Object, class *convert.ClassDescriptor) ([]byte, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	indent := c.Indent
	if indent == "" {
		indent = "  "
	}
	enc.Indent("", indent)
	if err := writeObject(enc, class.Name, obj, class); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, schemaerr.Conversion(schemaerr.CodeMalformedPayload).Wrap(err)
	}
	return buf.Bytes(), nil
}

// fieldOrder lists declared attributes and references first, in declaration
// order, then any other keys sorted.
func fieldOrder(obj convert.Object, class *convert.ClassDescriptor) []string {
	var keys []string
	declared := map[string]bool{}
	if class != nil {
		for _, a := range class.Attrs {
			declared[a.Name] = true
			if _, ok := obj[a.Name]; ok {
				keys = append(keys, a.Name)
			}
		}
		for _, r := range class.Refs {
			declared[r.Name] = true
			if _, ok := obj[r.Name]; ok {
				keys = append(keys, r.Name)
			}
		}
	}
	var rest []string
	for k := range obj {
		if !declared[k] && k != TextKey {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func writeObject(enc *xml.Encoder, name string, obj convert.Object, class *convert.ClassDescriptor) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	type child struct {
		name  string
		value any
		class *convert.ClassDescriptor
	}
	var children []child
	for _, k := range fieldOrder(obj, class) {
		v := obj[k]
		if v == nil {
			continue
		}
		var refClass *convert.ClassDescriptor
		ref, isRef := convert.Ref{}, false
		if class != nil {
			ref, isRef = class.Ref(k)
			refClass = ref.Class
		}
		if !isRef && convert.IsScalar(v) {
			s, _ := convert.FormatScalar(v)
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: s})
			continue
		}
		children = append(children, child{name: k, value: v, class: refClass})
	}
	if err := enc.EncodeToken(start); err != nil {
		return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", name).Wrap(err)
	}
	if txt, ok := obj[TextKey]; ok && txt != nil {
		s, err := convert.FormatScalar(txt)
		if err != nil {
			return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", TextKey).Of(name).Wrap(err)
		}
		if err := enc.EncodeToken(xml.CharData(s)); err != nil {
			return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", TextKey).Of(name).Wrap(err)
		}
	}
	for _, ch := range children {
		if err := writeValue(enc, ch.name, ch.value, ch.class); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func writeValue(enc *xml.Encoder, name string, v any, class *convert.ClassDescriptor) error {
	switch t := v.(type) {
	case convert.Object:
		if len(t) == 0 && class == nil {
			return nil
		}
		return writeObject(enc, name, t, class)
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			if err := writeValue(enc, name, item, class); err != nil {
				return err
			}
		}
		return nil
	case []convert.Object:
		for _, item := range t {
			if err := writeObject(enc, name, item, class); err != nil {
				return err
			}
		}
		return nil
	}
	s, err := convert.FormatScalar(v)
	if err != nil {
		return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", name).Wrap(err)
	}
	if class != nil {
		return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", name, "value", s)
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	for _, tok := range []xml.Token{start, xml.CharData(s), start.End()} {
		if err := enc.EncodeToken(tok); err != nil {
			return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", name).Wrap(err)
		}
	}
	return nil
}
