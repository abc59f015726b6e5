// Package convert defines the object-class descriptor shared by the payload
// converters and the Converter contract they implement.
//
// An object is a plain map[string]any. Attribute values are scalars (string,
// bool, integer or float kinds, json.Number); reference values are nested
// objects, or []any of objects for container references.
package convert

import (
	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/schemaerr"
)

// Object is the in-memory form every converter reads and produces.
type Object = map[string]any

// ClassDescriptor is the metadata a converter needs to marshal one object
// class. Attribute order, then reference order, is the field order of the
// binary layout.
type ClassDescriptor struct {
	Name  string
	Attrs []Attr
	Refs  []Ref
}

// Attr is a scalar attribute.
type Attr struct {
	Name string
	Type *catalog.TypeDescriptor
}

// Ref is a reference to another class. Container references hold a list.
type Ref struct {
	Name      string
	Class     *ClassDescriptor
	Container bool
}

// Attr returns the attribute with the given name.
func (c *ClassDescriptor) Attr(name string) (Attr, bool) {
	for _, a := range c.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// Ref returns the reference with the given name.
func (c *ClassDescriptor) Ref(name string) (Ref, bool) {
	for _, r := range c.Refs {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}

// Validate checks the descriptor shape: a name, typed attributes and
// references with a class. Referenced classes are checked recursively;
// cycles are allowed.
func (c *ClassDescriptor) Validate() error {
	return c.validate(map[*ClassDescriptor]bool{})
}

func (c *ClassDescriptor) validate(seen map[*ClassDescriptor]bool) error {
	if c == nil {
		return schemaerr.Conversion(schemaerr.CodeInvalidDescriptor, "reason", "nil descriptor")
	}
	if seen[c] {
		return nil
	}
	seen[c] = true
	if c.Name == "" {
		return schemaerr.Conversion(schemaerr.CodeInvalidDescriptor, "reason", "missing name")
	}
	names := make(map[string]bool, len(c.Attrs)+len(c.Refs))
	for _, a := range c.Attrs {
		if a.Name == "" || a.Type == nil || names[a.Name] {
			return schemaerr.Conversion(schemaerr.CodeInvalidDescriptor, "name", a.Name).Of(c.Name)
		}
		names[a.Name] = true
	}
	for _, r := range c.Refs {
		if r.Name == "" || r.Class == nil || names[r.Name] {
			return schemaerr.Conversion(schemaerr.CodeInvalidDescriptor, "name", r.Name).Of(c.Name)
		}
		names[r.Name] = true
		if err := r.Class.validate(seen); err != nil {
			return err
		}
	}
	return nil
}
