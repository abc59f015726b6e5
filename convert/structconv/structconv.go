// Package structconv converts between a binary wire layout and convert.Object
// values.
//
// Fields are written in declaration order, attributes first, then
// references. Fixed-width scalars are little-endian; strings carry a 4-byte
// length prefix unless the type is fixed width; container references carry
// a 4-byte element count followed by the elements. There is no message
// header.
package structconv

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/internal/depgraph"
	"github.com/cgalavis/schemakit/schemaerr"
)

// DefaultCacheSize bounds the number of cached layouts per converter.
const DefaultCacheSize = 256

// Field is one entry of a layout: either a scalar with a Codec or a
// reference with the referenced class's Layout.
type Field struct {
	Name      string
	Codec     *Codec
	Ref       *Layout
	Container bool
}

// Layout is the ordered field list of one class.
type Layout struct {
	Class  *convert.ClassDescriptor
	Fields []Field
}

// FixedSize returns the encoded size of every message of the layout, and
// false when the size depends on the value (strings or containers).
func (l *Layout) FixedSize() (int, bool) {
	n := 0
	for _, f := range l.Fields {
		switch {
		case f.Container:
			return 0, false
		case f.Ref != nil:
			sz, ok := f.Ref.FixedSize()
			if !ok {
				return 0, false
			}
			n += sz
		case !f.Codec.Fixed():
			return 0, false
		default:
			n += f.Codec.Width
		}
	}
	return n, true
}

// Converter is the binary converter. Layouts are cached by descriptor
// identity.
type Converter struct {
	mu    sync.Mutex
	cache *lru.Cache[*convert.ClassDescriptor, *Layout]
}

// New returns a converter caching up to size layouts; size <= 0 uses
// DefaultCacheSize.
func New(size int) *Converter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[*convert.ClassDescriptor, *Layout](size)
	if err != nil {
		panic(err)
	}
	return &Converter{cache: cache}
}

var std = New(DefaultCacheSize)

// LayoutFor returns the layout of class from the package-level converter.
func LayoutFor(class *convert.ClassDescriptor) (*Layout, error) { return std.LayoutFor(class) }

func (*Converter) Name() string { return "struct" }

// LayoutFor builds the layout of class, or returns the cached one. Classes
// may reference themselves through container references; a cycle made only
// of non-container references has no finite encoding and fails with
// UnsupportedType.
func (c *Converter) LayoutFor(class *convert.ClassDescriptor) (*Layout, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.cache.Get(class); ok {
		return l, nil
	}
	b := &builder{c: c, building: map[*convert.ClassDescriptor]*Layout{}}
	l, err := b.build(class)
	if err != nil {
		return nil, err
	}
	if err := b.checkCycles(); err != nil {
		return nil, err
	}
	if err := b.checkContainers(); err != nil {
		return nil, err
	}
	for cd, bl := range b.building {
		c.cache.Add(cd, bl)
	}
	return l, nil
}

type builder struct {
	c        *Converter
	building map[*convert.ClassDescriptor]*Layout
	order    []*Layout
}

func (b *builder) build(class *convert.ClassDescriptor) (*Layout, error) {
	if l, ok := b.c.cache.Peek(class); ok {
		return l, nil
	}
	if l, ok := b.building[class]; ok {
		return l, nil
	}
	l := &Layout{Class: class}
	b.building[class] = l
	b.order = append(b.order, l)
	for _, a := range class.Attrs {
		codec, err := BinaryTypeFor(a.Type)
		if err != nil {
			e, _ := schemaerr.As(err)
			return nil, e.Of(class.Name)
		}
		l.Fields = append(l.Fields, Field{Name: a.Name, Codec: codec})
	}
	for _, r := range class.Refs {
		rl, err := b.build(r.Class)
		if err != nil {
			return nil, err
		}
		l.Fields = append(l.Fields, Field{Name: r.Name, Ref: rl, Container: r.Container})
	}
	return l, nil
}

// checkCycles rejects cycles along non-container references among the
// layouts built in this call.
func (b *builder) checkCycles() error {
	ids := make(map[*Layout]int, len(b.order))
	for i, l := range b.order {
		ids[l] = i
	}
	g := depgraph.Graph[int]{}
	for i, l := range b.order {
		g[i] = nil
		for _, f := range l.Fields {
			if f.Ref == nil || f.Container {
				continue
			}
			if j, ok := ids[f.Ref]; ok {
				g[i] = append(g[i], j)
			}
		}
	}
	if cs := depgraph.Cycles(g); len(cs) > 0 {
		name := b.order[cs[0].Path[0]].Class.Name
		return schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType, "type", name, "reason", "recursive reference").Wrap(cs[0])
	}
	return nil
}

// checkContainers rejects containers of zero-width elements: their count
// prefix cannot be checked against the payload.
func (b *builder) checkContainers() error {
	for _, l := range b.order {
		for _, f := range l.Fields {
			if !f.Container {
				continue
			}
			if sz, fixed := f.Ref.FixedSize(); fixed && sz == 0 {
				return schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType,
					"type", f.Ref.Class.Name, "reason", "empty container element").Of(l.Class.Name)
			}
		}
	}
	return nil
}

// FromObject encodes obj. Every declared attribute must be present;
// references may be absent only when they are containers.
func (c *Converter) FromObject(obj convert.Object, class *convert.ClassDescriptor) ([]byte, error) {
	l, err := c.LayoutFor(class)
	if err != nil {
		return nil, err
	}
	return l.Encode(nil, obj)
}

// ToObject decodes data, which must hold exactly one message.
func (c *Converter) ToObject(data []byte, class *convert.ClassDescriptor) (convert.Object, error) {
	l, err := c.LayoutFor(class)
	if err != nil {
		return nil, err
	}
	obj, off, err := l.Decode(data, 0)
	if err != nil {
		return nil, err
	}
	if off != len(data) {
		return nil, schemaerr.Conversion(schemaerr.CodeTrailingBytes, "offset", off, "length", len(data))
	}
	return obj, nil
}

// Encode appends the encoding of obj to buf.
func (l *Layout) Encode(buf []byte, obj convert.Object) ([]byte, error) {
	var err error
	for _, f := range l.Fields {
		v, present := obj[f.Name]
		switch {
		case f.Codec != nil:
			if !present || v == nil {
				return nil, missing(l, f)
			}
			if buf, err = f.Codec.append(buf, f.Name, v); err != nil {
				e, _ := schemaerr.As(err)
				return nil, e.Of(l.Class.Name)
			}
		case f.Container:
			items, ok := containerItems(v)
			if !ok {
				return nil, invalid(l, f)
			}
			buf = le.AppendUint32(buf, uint32(len(items)))
			for _, it := range items {
				if buf, err = f.Ref.Encode(buf, it); err != nil {
					return nil, err
				}
			}
		default:
			if !present || v == nil {
				return nil, missing(l, f)
			}
			m, ok := v.(map[string]any)
			if !ok {
				return nil, invalid(l, f)
			}
			if buf, err = f.Ref.Encode(buf, m); err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

func containerItems(v any) ([]convert.Object, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		return []convert.Object{t}, true
	case []convert.Object:
		return t, true
	case []any:
		out := make([]convert.Object, 0, len(t))
		for _, it := range t {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	}
	return nil, false
}

// Decode reads one message from data at off and returns the next offset.
func (l *Layout) Decode(data []byte, off int) (convert.Object, int, error) {
	obj := make(convert.Object, len(l.Fields))
	var err error
	for _, f := range l.Fields {
		switch {
		case f.Codec != nil:
			var v any
			if v, off, err = f.Codec.read(data, off, f.Name); err != nil {
				e, _ := schemaerr.As(err)
				return nil, off, e.Of(l.Class.Name)
			}
			obj[f.Name] = v
		case f.Container:
			if len(data)-off < 4 {
				return nil, off, shortBuffer(f.Name, off)
			}
			n := int(le.Uint32(data[off:]))
			off += 4
			// every element takes at least one byte
			if n > len(data)-off {
				return nil, off, shortBuffer(f.Name, off)
			}
			items := make([]any, 0, min(n, len(data)-off+1))
			for i := 0; i < n; i++ {
				var it convert.Object
				if it, off, err = f.Ref.Decode(data, off); err != nil {
					return nil, off, err
				}
				items = append(items, it)
			}
			obj[f.Name] = items
		default:
			var it convert.Object
			if it, off, err = f.Ref.Decode(data, off); err != nil {
				return nil, off, err
			}
			obj[f.Name] = it
		}
	}
	return obj, off, nil
}

func missing(l *Layout, f Field) error {
	return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", f.Name, "reason", "missing").Of(l.Class.Name)
}

func invalid(l *Layout, f Field) error {
	return schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", f.Name).Of(l.Class.Name)
}
