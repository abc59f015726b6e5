package structconv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/schemaerr"
)

// CodecKind is the binary encoding of one scalar.
type CodecKind int

const (
	Int CodecKind = iota + 1
	Uint
	Float
	Bool
	String      // 4-byte little-endian length prefix, then the bytes
	FixedString // exactly Width bytes, NUL padded
)

func (k CodecKind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case FixedString:
		return "fixed_string"
	default:
		return fmt.Sprintf("codec(%d)", int(k))
	}
}

// Codec encodes and decodes one scalar type.
type Codec struct {
	Type *catalog.TypeDescriptor
	Kind CodecKind
	// Width is the encoded size in bytes; 0 for length-prefixed strings.
	Width int
}

// Fixed reports whether the encoded size is known without the value.
func (c *Codec) Fixed() bool { return c.Width > 0 }

func (c *Codec) String() string {
	if c.Width == 0 {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s%d", c.Kind, c.Width*8)
}

// BinaryTypeFor maps a type descriptor to its codec. Integers take 1, 2, 4
// or 8 bytes and are unsigned when a minimum >= 0 is declared; floats take 4
// or 8; booleans 1; strings are length-prefixed unless a fixed size is set.
// Anything else fails with UnsupportedType.
func BinaryTypeFor(t *catalog.TypeDescriptor) (*Codec, error) {
	if t == nil {
		return nil, unsupported("<nil>")
	}
	switch t.Category {
	case catalog.Integer:
		switch t.Size {
		case 1, 2, 4, 8:
			if t.Signed() {
				return &Codec{Type: t, Kind: Int, Width: t.Size}, nil
			}
			return &Codec{Type: t, Kind: Uint, Width: t.Size}, nil
		}
	case catalog.Numeric:
		if t.Size == 4 || t.Size == 8 {
			return &Codec{Type: t, Kind: Float, Width: t.Size}, nil
		}
	case catalog.Boolean:
		if t.Size == 1 || t.Size == 0 {
			return &Codec{Type: t, Kind: Bool, Width: 1}, nil
		}
	case catalog.Alpha:
		if t.Size > 0 {
			return &Codec{Type: t, Kind: FixedString, Width: t.Size}, nil
		}
		return &Codec{Type: t, Kind: String}, nil
	}
	return nil, unsupported(t.String())
}

func unsupported(name string) error {
	return schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType, "type", name)
}

var le = binary.LittleEndian

// append encodes v after buf.
func (c *Codec) append(buf []byte, attr string, v any) ([]byte, error) {
	nv, err := convert.Coerce(attr, v, c.Type)
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case Int:
		n := nv.(int64)
		switch c.Width {
		case 1:
			return append(buf, byte(int8(n))), nil
		case 2:
			return le.AppendUint16(buf, uint16(int16(n))), nil
		case 4:
			return le.AppendUint32(buf, uint32(int32(n))), nil
		default:
			return le.AppendUint64(buf, uint64(n)), nil
		}
	case Uint:
		n := nv.(uint64)
		switch c.Width {
		case 1:
			return append(buf, byte(n)), nil
		case 2:
			return le.AppendUint16(buf, uint16(n)), nil
		case 4:
			return le.AppendUint32(buf, uint32(n)), nil
		default:
			return le.AppendUint64(buf, n), nil
		}
	case Float:
		f := nv.(float64)
		if c.Width == 4 {
			return le.AppendUint32(buf, math.Float32bits(float32(f))), nil
		}
		return le.AppendUint64(buf, math.Float64bits(f)), nil
	case Bool:
		if nv.(bool) {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case String:
		s := nv.(string)
		if uint64(len(s)) > math.MaxUint32 {
			return nil, schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", attr)
		}
		buf = le.AppendUint32(buf, uint32(len(s)))
		return append(buf, s...), nil
	case FixedString:
		s := nv.(string)
		if len(s) > c.Width {
			return nil, schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", attr, "value", s)
		}
		buf = append(buf, s...)
		return append(buf, make([]byte, c.Width-len(s))...), nil
	}
	return nil, unsupported(c.Type.String())
}

// read decodes one value from data at off and returns the next offset.
func (c *Codec) read(data []byte, off int, attr string) (any, int, error) {
	need := c.Width
	if c.Kind == String {
		need = 4
	}
	if len(data)-off < need {
		return nil, off, shortBuffer(attr, off)
	}
	p := data[off:]
	switch c.Kind {
	case Int:
		switch c.Width {
		case 1:
			return int64(int8(p[0])), off + 1, nil
		case 2:
			return int64(int16(le.Uint16(p))), off + 2, nil
		case 4:
			return int64(int32(le.Uint32(p))), off + 4, nil
		default:
			return int64(le.Uint64(p)), off + 8, nil
		}
	case Uint:
		switch c.Width {
		case 1:
			return uint64(p[0]), off + 1, nil
		case 2:
			return uint64(le.Uint16(p)), off + 2, nil
		case 4:
			return uint64(le.Uint32(p)), off + 4, nil
		default:
			return le.Uint64(p), off + 8, nil
		}
	case Float:
		if c.Width == 4 {
			return float64(math.Float32frombits(le.Uint32(p))), off + 4, nil
		}
		return math.Float64frombits(le.Uint64(p)), off + 8, nil
	case Bool:
		switch p[0] {
		case 0:
			return false, off + 1, nil
		case 1:
			return true, off + 1, nil
		}
		return nil, off, schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", attr, "offset", off)
	case String:
		n := int(le.Uint32(p))
		off += 4
		if len(data)-off < n {
			return nil, off, shortBuffer(attr, off)
		}
		return string(data[off : off+n]), off + n, nil
	case FixedString:
		b := p[:c.Width]
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b), off + c.Width, nil
	}
	return nil, off, unsupported(c.Type.String())
}

func shortBuffer(attr string, off int) error {
	return schemaerr.Conversion(schemaerr.CodeShortBuffer, "name", attr, "offset", off)
}
