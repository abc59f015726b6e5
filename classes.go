package schemakit

import (
	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/schemaerr"
)

// ValueAttr names the single attribute of the classes derived for arrays of
// scalars.
const ValueAttr = "value"

// Class derives the converter class of the struct or union named fullName in
// doc:
//   - fields and enums become attributes typed by the catalog (enums by
//     their value type);
//   - named structs and unions become references, containers when their
//     max_count is not 1;
//   - arrays become container references: to a class built from the array's
//     children when its value type is not a scalar, otherwise to a class with
//     a single "value" attribute;
//   - references to user-defined types are resolved with ResolveType;
//   - the members of anonymous structs and unions are folded into the
//     enclosing class.
//
// Derived classes are shared within one call, so self-referencing types
// produce self-referencing descriptors.
func (r *Registry) Class(doc *Document, fullName string) (*convert.ClassDescriptor, error) {
	m, ok := doc.FindMember(fullName)
	if !ok {
		return nil, schemaerr.New(schemaerr.ErrUnknownType, schemaerr.CodeUnknownType, "type", fullName).In(doc.path)
	}
	if !m.Inline() {
		return nil, schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType, "type", m.typ).
			Of(m.FullName()).In(doc.path)
	}
	d := &deriver{r: r, classes: map[*Member]*convert.ClassDescriptor{}}
	return d.class(m, m.name)
}

type deriver struct {
	r       *Registry
	classes map[*Member]*convert.ClassDescriptor
}

func (d *deriver) class(m *Member, name string) (*convert.ClassDescriptor, error) {
	if c, ok := d.classes[m]; ok {
		return c, nil
	}
	c := &convert.ClassDescriptor{Name: name}
	d.classes[m] = c
	if err := d.fill(c, m.children); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *deriver) fill(c *convert.ClassDescriptor, children []*Member) error {
	for _, ch := range children {
		if err := d.add(c, ch); err != nil {
			return err
		}
	}
	return nil
}

func (d *deriver) add(c *convert.ClassDescriptor, m *Member) error {
	fail := func(err error) error {
		if e, ok := schemaerr.As(err); ok {
			return e.Of(m.FullName()).In(m.document.path)
		}
		return err
	}
	switch m.kind {
	case KindStruct, KindUnion:
		if m.Anonymous() {
			return d.fill(c, m.children)
		}
		rc, err := d.class(m, m.name)
		if err != nil {
			return err
		}
		c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: rc, Container: m.Container()})
	case KindField, KindEnum:
		t, err := m.Descriptor()
		if err != nil {
			return fail(err)
		}
		if m.Container() {
			c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: valueClass(m.name, t), Container: true})
			return nil
		}
		c.Attrs = append(c.Attrs, convert.Attr{Name: m.name, Type: t})
	case KindArray:
		elem, err := m.document.catalog.Resolve(m.valueType)
		if err != nil {
			return fail(err)
		}
		if elem.Primitive() {
			c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: valueClass(m.name, elem), Container: true})
			return nil
		}
		rc, err := d.class(m, m.name)
		if err != nil {
			return err
		}
		c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: rc, Container: true})
	case KindReference:
		target, err := d.r.ResolveType(m.document, m.typ)
		if err != nil {
			return fail(err)
		}
		switch target.kind {
		case KindStruct, KindUnion:
			rc, err := d.class(target, target.name)
			if err != nil {
				return err
			}
			c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: rc, Container: m.Container()})
		case KindEnum:
			t, err := target.Descriptor()
			if err != nil {
				return fail(err)
			}
			if m.Container() {
				c.Refs = append(c.Refs, convert.Ref{Name: m.name, Class: valueClass(m.name, t), Container: true})
				return nil
			}
			c.Attrs = append(c.Attrs, convert.Attr{Name: m.name, Type: t})
		default:
			return fail(schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType, "type", m.typ))
		}
	}
	return nil
}

func valueClass(name string, t *catalog.TypeDescriptor) *convert.ClassDescriptor {
	return &convert.ClassDescriptor{Name: name, Attrs: []convert.Attr{{Name: ValueAttr, Type: t}}}
}
