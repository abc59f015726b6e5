// Package ir defines the intermediate representation used by the code
// generator. This package is internal and not part of the public API.
package ir

import (
	"strconv"
	"strings"
)

// NodeKind identifies an IR node type.
type NodeKind int

const (
	NodePrimitive NodeKind = iota
	NodeArray
	NodeObject
	NodeOneOf
	NodeEnum
	NodeRef
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	case NodeOneOf:
		return "union"
	case NodeEnum:
		return "enum"
	case NodeRef:
		return "ref"
	default:
		return "node(" + strconv.Itoa(int(k)) + ")"
	}
}

// Schema is the IR node interface.
type Schema interface {
	Kind() NodeKind
}

// Primitive is a catalog scalar.
type Primitive struct {
	Name   string // catalog name, e.g. "uint16" or an alias such as "Price"
	GoType string
	Size   int // fixed string width; 0 otherwise
}

func (p *Primitive) Kind() NodeKind { return NodePrimitive }

// Array is a list of items. Len > 0 makes it a fixed-length array.
type Array struct {
	Item Schema
	Len  int
}

func (a *Array) Kind() NodeKind { return NodeArray }

// Ref names another generated type.
type Ref struct {
	Name     string // Go type name
	FullName string // schema full name
	Scalar   bool   // the target is an enum or a scalar alias
}

func (r *Ref) Kind() NodeKind { return NodeRef }

// Object is a struct with ordered fields.
type Object struct {
	Fields []Field
}

func (o *Object) Kind() NodeKind { return NodeObject }

// OneOf is a union: at most one variant is set.
type OneOf struct {
	Variants []Field
}

func (u *OneOf) Kind() NodeKind { return NodeOneOf }

// Enum is a set of named constants over a primitive base.
type Enum struct {
	Base   *Primitive
	Values []EnumValue
}

func (e *Enum) Kind() NodeKind { return NodeEnum }

// Field maps a schema member name to a Schema.
type Field struct {
	Name     string // Go field name
	Wire     string // schema member name
	Schema   Schema
	Optional bool
	Doc      string
}

// EnumValue is one enum constant.
type EnumValue struct {
	Name    string // Go constant name
	Wire    string
	Literal string // Go literal of the value
	Doc     string
}

// Type is one top-level generated declaration.
type Type struct {
	Name      string // Go type name
	FullName  string
	Namespace string
	Doc       string
	Template  string
	Schema    Schema
}

// Kind returns the node kind name of the type's schema.
func (t *Type) Kind() string { return t.Schema.Kind().String() }

// Namespace groups the types declared under one schema namespace.
type Namespace struct {
	Name     string
	Template string
	Types    []*Type
}

// File is the IR of one generated source file.
type File struct {
	Package    string
	Source     string
	Version    string
	Template   string
	Namespaces []*Namespace
}

// Types returns every type in namespace order.
func (f *File) Types() []*Type {
	var out []*Type
	for _, ns := range f.Namespaces {
		out = append(out, ns.Types...)
	}
	return out
}

// Expr renders the Go type expression of s.
func Expr(s Schema) string {
	switch n := s.(type) {
	case *Primitive:
		return n.GoType
	case *Ref:
		return n.Name
	case *Array:
		if n.Len > 0 {
			return "[" + strconv.Itoa(n.Len) + "]" + Expr(n.Item)
		}
		return "[]" + Expr(n.Item)
	case *Enum:
		return n.Base.GoType
	}
	return "any"
}

// FieldExpr renders the Go type of a struct field; optional scalars and
// references become pointers.
func FieldExpr(f Field) string {
	e := Expr(f.Schema)
	if f.Optional && f.Schema.Kind() != NodeArray {
		return "*" + e
	}
	return e
}

// Exported turns a schema identifier into an exported Go identifier.
func Exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		b.WriteRune(r)
	}
	s := b.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return "X" + s
	}
	return s
}
