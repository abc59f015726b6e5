package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/schemaerr"
)

// Build lowers doc into a File for package pkg. References are resolved
// through r, so types declared in dependencies are referenced by the Go name
// they get when their own document is built.
func Build(r *schemakit.Registry, doc *schemakit.Document, pkg string) (*File, error) {
	b := &builder{
		r:     r,
		doc:   doc,
		names: map[string]string{},
		ns:    map[string]*Namespace{},
		file: &File{
			Package:  pkg,
			Source:   doc.Path(),
			Version:  doc.Version().String(),
			Template: doc.TemplateFor(schemakit.TemplateFile),
		},
	}
	for _, m := range doc.Members() {
		if err := b.top(m); err != nil {
			return nil, err
		}
	}
	return b.file, nil
}

// GoName is the Go type name of a declared member: its full name without the
// namespace, each segment exported and concatenated.
func GoName(m *schemakit.Member) string {
	top := m
	for top.Parent() != nil {
		top = top.Parent()
	}
	rest := m.FullName()
	if ns := top.Namespace(); ns != "" {
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, ns), schemakit.Separator)
	}
	var sb strings.Builder
	for _, seg := range strings.Split(rest, schemakit.Separator) {
		sb.WriteString(Exported(seg))
	}
	return sb.String()
}

type builder struct {
	r     *schemakit.Registry
	doc   *schemakit.Document
	file  *File
	names map[string]string
	ns    map[string]*Namespace
}

func (b *builder) top(m *schemakit.Member) error {
	if m.Anonymous() {
		for _, c := range m.Children() {
			if err := b.top(c); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := b.declare(m, GoName(m))
	return err
}

func (b *builder) namespace(m *schemakit.Member) *Namespace {
	for m.Parent() != nil {
		m = m.Parent()
	}
	name := m.Namespace()
	if ns, ok := b.ns[name]; ok {
		return ns
	}
	ns := &Namespace{Name: name, Template: b.doc.TemplateFor(schemakit.TemplateNamespace)}
	b.ns[name] = ns
	b.file.Namespaces = append(b.file.Namespaces, ns)
	return ns
}

// declare adds a top-level type for m. Its schema is computed after the type
// is registered so nested declarations follow their owner.
func (b *builder) declare(m *schemakit.Member, name string) (*Type, error) {
	if prev, ok := b.names[name]; ok {
		return nil, schemaerr.Schema(schemaerr.CodeDuplicateMember, "name", name, "owner", prev).
			Of(m.FullName()).In(b.doc.Path())
	}
	b.names[name] = m.FullName()
	t := &Type{
		Name:      name,
		FullName:  m.FullName(),
		Namespace: b.namespace(m).Name,
		Doc:       m.Doc(),
		Template:  m.Template(),
	}
	ns := b.namespace(m)
	ns.Types = append(ns.Types, t)

	var err error
	switch m.Kind() {
	case schemakit.KindStruct:
		var fields []Field
		fields, err = b.fields(m, name, false)
		t.Schema = &Object{Fields: fields}
	case schemakit.KindUnion:
		var fields []Field
		fields, err = b.fields(m, name, true)
		t.Schema = &OneOf{Variants: fields}
	case schemakit.KindArray:
		t.Schema, err = b.array(m, name+"Item")
	default:
		t.Schema, err = b.scalar(m)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// fields lowers the children of m. Anonymous structs and unions are folded
// into the owner; named nested structs, unions and enums are hoisted to
// top-level types named after their full name.
func (b *builder) fields(m *schemakit.Member, owner string, union bool) ([]Field, error) {
	var out []Field
	for _, c := range m.Children() {
		if c.Anonymous() {
			sub, err := b.fields(c, owner, union || c.Kind() == schemakit.KindUnion)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		var (
			s   Schema
			err error
		)
		switch c.Kind() {
		case schemakit.KindStruct, schemakit.KindUnion, schemakit.KindEnum:
			var t *Type
			if t, err = b.declare(c, owner+Exported(c.Name())); err == nil {
				s = &Ref{Name: t.Name, FullName: t.FullName, Scalar: c.Kind() == schemakit.KindEnum}
			}
		case schemakit.KindArray:
			s, err = b.array(c, owner+Exported(c.Name()))
		default:
			s, err = b.scalar(c)
		}
		if err != nil {
			return nil, err
		}
		if c.Container() && c.Kind() != schemakit.KindArray {
			s = &Array{Item: s, Len: fixedLen(c)}
		}
		out = append(out, Field{
			Name:     Exported(c.Name()),
			Wire:     c.Name(),
			Schema:   s,
			Optional: union || c.Optional(),
			Doc:      c.Doc(),
		})
	}
	return out, nil
}

func fixedLen(m *schemakit.Member) int {
	lo, hi := m.Counts()
	if lo == hi && hi > 1 {
		return hi
	}
	return 0
}

// array lowers an array member. Arrays of objects get an element type named
// elem built from the array's children.
func (b *builder) array(m *schemakit.Member, elem string) (Schema, error) {
	td, err := m.Descriptor()
	if err != nil {
		return nil, err
	}
	n := 0
	if td.Elem != nil {
		n = td.Size
		td = td.Elem
	}
	if td.Primitive() {
		return &Array{Item: primitive(td), Len: n}, nil
	}
	if _, ok := b.names[elem]; ok {
		return nil, schemaerr.Schema(schemaerr.CodeDuplicateMember, "name", elem, "owner", b.names[elem]).
			Of(m.FullName()).In(b.doc.Path())
	}
	b.names[elem] = m.FullName()
	fields, err := b.fields(m, elem, false)
	if err != nil {
		return nil, err
	}
	ns := b.namespace(m)
	ns.Types = append(ns.Types, &Type{
		Name:      elem,
		FullName:  m.FullName(),
		Namespace: ns.Name,
		Doc:       m.Doc(),
		Template:  m.Template(),
		Schema:    &Object{Fields: fields},
	})
	return &Array{Item: &Ref{Name: elem, FullName: m.FullName()}, Len: n}, nil
}

// scalar lowers fields, enums and references.
func (b *builder) scalar(m *schemakit.Member) (Schema, error) {
	switch m.Kind() {
	case schemakit.KindReference:
		target, err := b.r.ResolveType(b.doc, m.Type())
		if err != nil {
			return nil, err
		}
		scalar := target.Kind() == schemakit.KindEnum || target.Kind() == schemakit.KindField
		return &Ref{Name: GoName(target), FullName: target.FullName(), Scalar: scalar}, nil
	case schemakit.KindEnum:
		td, err := m.Descriptor()
		if err != nil {
			return nil, err
		}
		e := &Enum{Base: primitive(td)}
		for _, v := range m.Values() {
			e.Values = append(e.Values, EnumValue{
				Name:    Exported(v.Name),
				Wire:    v.Name,
				Literal: literal(v.Value),
				Doc:     v.Doc,
			})
		}
		return e, nil
	}
	td, err := m.Descriptor()
	if err != nil {
		return nil, err
	}
	return primitive(td), nil
}

func primitive(td *catalog.TypeDescriptor) *Primitive {
	p := &Primitive{Name: td.Name, GoType: goType(td)}
	if td.Fixed && td.Category == catalog.Alpha {
		p.Size = td.Size
	}
	return p
}

func goType(td *catalog.TypeDescriptor) string {
	switch td.Category {
	case catalog.Integer:
		bits := td.Size * 8
		if bits == 0 {
			bits = 64
		}
		if td.Signed() {
			return "int" + strconv.Itoa(bits)
		}
		return "uint" + strconv.Itoa(bits)
	case catalog.Numeric:
		if td.Size == 4 {
			return "float32"
		}
		return "float64"
	case catalog.Boolean:
		return "bool"
	case catalog.Alpha:
		return "string"
	}
	return "any"
}

func literal(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	case string:
		return strconv.Quote(x)
	}
	return strconv.Quote(fmt.Sprint(v))
}
