// Package catalog maps type names to their category, byte size, signedness and
// native codec. It is the single source of truth consulted by member
// validation and by the binary converter.
package catalog

import (
	"fmt"
	"sort"

	"github.com/cgalavis/schemakit/schemaerr"
)

// Category groups types that share an encode/decode strategy.
type Category int

const (
	Integer Category = iota + 1
	Numeric
	Boolean
	Alpha
	Node
)

func (c Category) String() string {
	switch c {
	case Integer:
		return "integer"
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Alpha:
		return "alpha"
	case Node:
		return "node"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Native identifies the encode/decode primitive a category maps to.
type Native int

const (
	NativeNone Native = iota
	NativeInt
	NativeFloat
	NativeBool
	NativeString
	NativeNode
)

// Native returns the codec primitive for the category. Every category maps to
// exactly one.
func (c Category) Native() Native {
	switch c {
	case Integer:
		return NativeInt
	case Numeric:
		return NativeFloat
	case Boolean:
		return NativeBool
	case Alpha:
		return NativeString
	case Node:
		return NativeNode
	default:
		return NativeNone
	}
}

// TypeDescriptor is an immutable type record.
type TypeDescriptor struct {
	Name     string
	Category Category
	Size     int      // bytes; 0 means variable (Alpha) or not applicable (Node)
	Min      *float64 // declared minimum, if any
	Max      *float64 // declared maximum, if any
	// Fixed marks sizes that come from the schema (fixed strings, fixed arrays)
	// rather than the native width.
	Fixed bool
	// Elem is the element type of a fixed array.
	Elem *TypeDescriptor
}

// Signed reports whether the type admits negative values: true unless a
// minimum >= 0 is declared.
func (t *TypeDescriptor) Signed() bool { return t.Min == nil || *t.Min < 0 }

// Native returns the codec primitive for the descriptor.
func (t *TypeDescriptor) Native() Native { return t.Category.Native() }

// Primitive reports whether the descriptor is a scalar category.
func (t *TypeDescriptor) Primitive() bool { return t.Category != Node && t.Category != 0 }

func (t *TypeDescriptor) String() string {
	switch {
	case t.Elem != nil:
		return fmt.Sprintf("%s[%d]", t.Elem.Name, t.Size)
	case t.Fixed:
		return fmt.Sprintf("%s(%d)", t.Name, t.Size)
	default:
		return t.Name
	}
}

func bound(v float64) *float64 { return &v }

func builtins() []*TypeDescriptor {
	zero := bound(0)
	return []*TypeDescriptor{
		{Name: "int8", Category: Integer, Size: 1, Min: bound(-1 << 7), Max: bound(1<<7 - 1)},
		{Name: "int16", Category: Integer, Size: 2, Min: bound(-1 << 15), Max: bound(1<<15 - 1)},
		{Name: "int32", Category: Integer, Size: 4, Min: bound(-1 << 31), Max: bound(1<<31 - 1)},
		{Name: "int64", Category: Integer, Size: 8, Min: bound(-1 << 63)},
		{Name: "uint8", Category: Integer, Size: 1, Min: zero, Max: bound(1<<8 - 1)},
		{Name: "uint16", Category: Integer, Size: 2, Min: zero, Max: bound(1<<16 - 1)},
		{Name: "uint32", Category: Integer, Size: 4, Min: zero, Max: bound(1<<32 - 1)},
		{Name: "uint64", Category: Integer, Size: 8, Min: zero},
		{Name: "float", Category: Numeric, Size: 4},
		{Name: "float32", Category: Numeric, Size: 4},
		{Name: "double", Category: Numeric, Size: 8},
		{Name: "float64", Category: Numeric, Size: 8},
		{Name: "bool", Category: Boolean, Size: 1},
		{Name: "string", Category: Alpha},
		{Name: "object", Category: Node},
	}
}

// Catalog is a name -> descriptor table. The default catalog is populated once
// at process start and never mutated; Clone it to add schema-level aliases.
type Catalog struct {
	types map[string]*TypeDescriptor
}

var defaultCatalog = newBuiltin()

func newBuiltin() *Catalog {
	c := &Catalog{types: make(map[string]*TypeDescriptor)}
	for _, t := range builtins() {
		c.types[t.Name] = t
	}
	return c
}

// Default returns the shared built-in catalog.
func Default() *Catalog { return defaultCatalog }

// Clone returns a mutable copy.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{types: make(map[string]*TypeDescriptor, len(c.types))}
	for k, v := range c.types {
		out.types[k] = v
	}
	return out
}

// Resolve looks a type up by name.
func (c *Catalog) Resolve(name string) (*TypeDescriptor, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, schemaerr.New(schemaerr.ErrUnknownType, schemaerr.CodeUnknownType, "type", name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.types[name]
	return ok
}

// IsPrimitive is true only for Integer, Numeric, Boolean and Alpha types.
func (c *Catalog) IsPrimitive(name string) bool {
	t, ok := c.types[name]
	return ok && t.Primitive()
}

// IsNumeric is true for Integer and Numeric types.
func (c *Catalog) IsNumeric(name string) bool {
	t, ok := c.types[name]
	return ok && (t.Category == Integer || t.Category == Numeric)
}

// IsInteger is true for Integer types.
func (c *Catalog) IsInteger(name string) bool {
	t, ok := c.types[name]
	return ok && t.Category == Integer
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.types))
	for k := range c.types {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Define registers name as an alias of base with optional size and bounds.
// A zero size keeps the base size. Defining on the default catalog panics;
// Clone first.
func (c *Catalog) Define(name, base string, size int, lo, hi *float64) (*TypeDescriptor, error) {
	if c == defaultCatalog {
		panic("catalog: Define on the default catalog; use Clone")
	}
	b, err := c.Resolve(base)
	if err != nil {
		return nil, err
	}
	t := *b
	t.Name = name
	if size > 0 && size != b.Size {
		t.Size = size
		t.Fixed = b.Category == Alpha
	}
	if lo != nil {
		t.Min = lo
	}
	if hi != nil {
		t.Max = hi
	}
	c.types[name] = &t
	return &t, nil
}

// FixedString returns a fixed-width string descriptor. It is not registered.
func FixedString(size int) *TypeDescriptor {
	return &TypeDescriptor{Name: "string", Category: Alpha, Size: size, Fixed: true}
}

// FixedArray returns a descriptor for size repetitions of elem. It is not
// registered.
func FixedArray(elem *TypeDescriptor, size int) *TypeDescriptor {
	return &TypeDescriptor{Name: "array", Category: Node, Size: size, Fixed: true, Elem: elem}
}
