package schemakit

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/schemaerr"
	"github.com/cgalavis/schemakit/source"
)

// Kind classifies a member by its declared type.
type Kind int

const (
	KindStruct Kind = iota + 1
	KindUnion
	KindEnum
	KindArray
	// KindField is a member whose type is a catalog type.
	KindField
	// KindReference is a member whose type names a user-defined type. The
	// name is resolved lazily through Registry.ResolveType.
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindField:
		return "field"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Separator joins the segments of a full member name.
const Separator = "::"

const defaultEnumValueType = "int32"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether s is a valid member identifier: a letter or
// underscore followed by letters, digits or underscores.
func ValidName(s string) bool { return identifier.MatchString(s) }

// EnumValue is one entry of an enum. Value is an int64 for integer value
// types, a float64 for floating value types and the raw declared value
// otherwise.
type EnumValue struct {
	Name  string
	Value any
	Doc   string
}

// Member is a node in a document's type tree. Members are immutable once
// their document has loaded; only the resolved template is computed lazily.
type Member struct {
	document  *Document
	parent    *Member
	index     int
	kind      Kind
	typ       string
	name      string
	namespace string
	doc       string
	template  string
	valueType string
	values    []EnumValue
	children  []*Member
	size      int
	min, max  *float64
	optional  bool
	minCount  int
	maxCount  int
	pointer   string

	// names maps full names of descendants to members, merged per the
	// inline rules of newMember.
	names map[string]*Member

	tmplOnce sync.Once
	tmpl     string
}

// newMember builds and validates one member and, recursively, its children.
func newMember(parent *Member, doc *Document, index int, raw source.Member) (*Member, error) {
	m := &Member{
		document:  doc,
		parent:    parent,
		index:     index,
		typ:       strings.TrimSpace(raw.Type),
		name:      strings.TrimSpace(raw.Name),
		namespace: strings.TrimSpace(raw.Namespace),
		doc:       raw.Doc,
		template:  strings.TrimSpace(raw.Template),
		valueType: strings.TrimSpace(raw.ValueType),
		size:      raw.Size,
		min:       raw.Min,
		max:       raw.Max,
		optional:  raw.Optional,
		minCount:  raw.MinCount,
		maxCount:  raw.MaxCount,
		pointer:   raw.Pointer,
		names:     map[string]*Member{},
	}
	fail := func(e *schemaerr.Error) error {
		owner := ""
		if parent != nil {
			owner = parent.FullName()
		}
		return e.At(m.pointer).Of(owner).In(doc.path)
	}

	if m.typ == "" {
		return nil, fail(schemaerr.Schema(schemaerr.CodeMissingType, "name", m.name))
	}
	m.kind = doc.kindOf(m.typ)

	switch {
	case m.name == "" && (m.kind == KindStruct || m.kind == KindUnion):
	case !ValidName(m.name):
		return nil, fail(schemaerr.Schema(schemaerr.CodeInvalidName, "name", m.name))
	}

	switch m.kind {
	case KindStruct, KindUnion:
		if len(raw.Members) == 0 {
			return nil, fail(schemaerr.Schema(schemaerr.CodeNoMembers, "name", m.DisplayName()))
		}
	case KindEnum:
		if err := m.buildValues(raw); err != nil {
			return nil, fail(err)
		}
	case KindArray:
		if m.valueType == "" || !doc.catalog.Has(m.valueType) {
			return nil, fail(schemaerr.Schema(schemaerr.CodeInvalidValueType, "type", m.valueType, "name", m.name))
		}
		if !doc.catalog.IsPrimitive(m.valueType) && len(raw.Members) == 0 {
			return nil, fail(schemaerr.Schema(schemaerr.CodeNoMembers, "name", m.name))
		}
	}

	for i, rc := range raw.Members {
		child, err := newMember(m, doc, i, rc)
		if err != nil {
			return nil, err
		}
		if err := m.adopt(child); err != nil {
			return nil, fail(err)
		}
	}
	return m, nil
}

// adopt appends child and merges its names into m. An inline child's names
// stay out of a parent that is not itself inline.
func (m *Member) adopt(child *Member) *schemaerr.Error {
	m.children = append(m.children, child)
	if !child.Anonymous() {
		if err := m.register(child.FullName(), child); err != nil {
			return err
		}
	}
	if child.Inline() && !m.Inline() {
		return nil
	}
	for _, k := range sortedNames(child.names) {
		if err := m.register(k, child.names[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Member) register(full string, child *Member) *schemaerr.Error {
	if _, dup := m.names[full]; dup {
		return schemaerr.Schema(schemaerr.CodeDuplicateMember, "name", full, "owner", m.FullName()).At(child.pointer)
	}
	m.names[full] = child
	return nil
}

func (m *Member) buildValues(raw source.Member) *schemaerr.Error {
	cat := m.document.catalog
	if m.valueType == "" {
		m.valueType = defaultEnumValueType
	}
	vt, err := cat.Resolve(m.valueType)
	if err != nil || !vt.Primitive() {
		return schemaerr.Schema(schemaerr.CodeInvalidValueType, "type", m.valueType, "name", m.name)
	}
	if len(raw.Values) == 0 {
		return schemaerr.Schema(schemaerr.CodeInvalidValues, "name", m.name)
	}
	seen := make(map[string]bool, len(raw.Values))
	for _, rv := range raw.Values {
		name := strings.TrimSpace(rv.Name)
		if name == "" || rv.Value == nil {
			return schemaerr.Schema(schemaerr.CodeInvalidValues, "name", m.name).At(rv.Pointer)
		}
		if seen[name] {
			return schemaerr.Schema(schemaerr.CodeDuplicateMember, "name", name, "owner", m.FullName()).At(rv.Pointer)
		}
		seen[name] = true
		v, ok := enumValue(vt, rv.Value)
		if !ok {
			return schemaerr.Schema(schemaerr.CodeInvalidValues, "name", m.name, "value", rv.Value).At(rv.Pointer)
		}
		m.values = append(m.values, EnumValue{Name: name, Value: v, Doc: rv.Doc})
	}
	return nil
}

// enumValue converts a raw value for the enum's value type. Integer types
// require an integral number inside the type's bounds and become uint64 when
// the type is unsigned, int64 otherwise.
func enumValue(vt *catalog.TypeDescriptor, raw any) (any, bool) {
	switch vt.Category {
	case catalog.Integer:
		f, ok := number(raw)
		if !ok || f != math.Trunc(f) {
			return nil, false
		}
		if (vt.Min != nil && f < *vt.Min) || (vt.Max != nil && f > *vt.Max) {
			return nil, false
		}
		if vt.Signed() {
			return exactInt(raw, f)
		}
		return exactUint(raw, f)
	case catalog.Numeric:
		f, ok := number(raw)
		return f, ok
	default:
		return raw, true
	}
}

// exactInt reads raw as an int64 without going through float64 when the
// source is textual. f is the float reading of raw.
func exactInt(raw any, f float64) (any, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64); err == nil {
			return n, true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	if f < -(1<<63) || f >= 1<<63 {
		return nil, false
	}
	return int64(f), true
}

// exactUint is exactInt for unsigned value types.
func exactUint(raw any, f float64) (any, bool) {
	switch v := raw.(type) {
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64); err == nil {
			return n, true
		}
	case json.Number:
		if n, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return n, true
		}
	}
	if f < 0 || f >= 1<<64 {
		return nil, false
	}
	return uint64(f), true
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return float64(n), true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// Name returns the declared name; empty for an anonymous struct or union.
func (m *Member) Name() string { return m.name }

// DisplayName returns the name, or "<anonymous>[index]" for anonymous members.
func (m *Member) DisplayName() string {
	if m.name == "" {
		return fmt.Sprintf("<anonymous>[%d]", m.index)
	}
	return m.name
}

// FullName joins the names from the outermost member down with "::". A
// top-level member's namespace, when declared, is the first segment.
// Anonymous members contribute no segment: their contents belong to the
// enclosing scope.
func (m *Member) FullName() string {
	var prefix string
	if m.parent != nil {
		prefix = m.parent.FullName()
	} else {
		prefix = m.namespace
	}
	if m.name == "" {
		return prefix
	}
	if prefix == "" {
		return m.name
	}
	return prefix + Separator + m.name
}

func (m *Member) Anonymous() bool     { return m.name == "" }
func (m *Member) Kind() Kind          { return m.kind }
func (m *Member) Type() string        { return m.typ }
func (m *Member) Parent() *Member     { return m.parent }
func (m *Member) Index() int          { return m.index }
func (m *Member) Doc() string         { return m.doc }
func (m *Member) Namespace() string   { return m.namespace }
func (m *Member) ValueType() string   { return m.valueType }
func (m *Member) Size() int           { return m.size }
func (m *Member) Optional() bool      { return m.optional }
func (m *Member) Document() *Document { return m.document }

// Bounds returns the declared minimum and maximum, each nil when absent.
func (m *Member) Bounds() (lo, hi *float64) { return m.min, m.max }

// Counts returns the declared occurrence bounds; max is -1 when unbounded.
func (m *Member) Counts() (lo, hi int) { return m.minCount, m.maxCount }

// Container reports whether the member holds a list of values.
func (m *Member) Container() bool { return m.maxCount != 1 }

// Inline reports whether the member's contents are laid out in place
// (struct and union).
func (m *Member) Inline() bool { return m.kind == KindStruct || m.kind == KindUnion }

// Values returns a copy of the enum entries.
func (m *Member) Values() []EnumValue { return append([]EnumValue(nil), m.values...) }

// Children returns a copy of the direct children in declaration order.
func (m *Member) Children() []*Member { return append([]*Member(nil), m.children...) }

// Child returns the direct child with the given name.
func (m *Member) Child(name string) (*Member, bool) {
	for _, c := range m.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Descriptor resolves the member's catalog type: the value type for enums
// and arrays, the declared type for fields (narrowed to a fixed string or
// fixed array when size is set, and carrying the member's declared min and
// max). Structs, unions and references fail with unknown_type.
func (m *Member) Descriptor() (*catalog.TypeDescriptor, error) {
	cat := m.document.catalog
	switch m.kind {
	case KindEnum:
		return cat.Resolve(m.valueType)
	case KindArray:
		elem, err := cat.Resolve(m.valueType)
		if err != nil {
			return nil, err
		}
		if m.size > 0 {
			return catalog.FixedArray(elem, m.size), nil
		}
		return elem, nil
	case KindField:
		t, err := cat.Resolve(m.typ)
		if err != nil {
			return nil, err
		}
		if t.Category == catalog.Alpha && m.size > 0 && !t.Fixed {
			t = catalog.FixedString(m.size)
		}
		return m.bounded(t), nil
	default:
		return nil, schemaerr.New(schemaerr.ErrUnknownType, schemaerr.CodeUnknownType, "type", m.typ)
	}
}

// bounded returns a copy of t narrowed by the member's min and max.
func (m *Member) bounded(t *catalog.TypeDescriptor) *catalog.TypeDescriptor {
	if m.min == nil && m.max == nil {
		return t
	}
	c := *t
	if m.min != nil {
		c.Min = m.min
	}
	if m.max != nil {
		c.Max = m.max
	}
	return &c
}

// Template returns the code-generation template bound to the member: its own
// declaration, else the nearest ancestor's, else the document default for
// the member's kind. The result is computed once.
func (m *Member) Template() string {
	m.tmplOnce.Do(func() {
		switch {
		case m.template != "":
			m.tmpl = m.template
		case m.parent != nil:
			m.tmpl = m.parent.Template()
		default:
			m.tmpl = m.document.TemplateFor(m.kind.String())
		}
	})
	return m.tmpl
}

// Walk visits m and its descendants depth-first in pre-order, passing each
// member's depth (m itself is at depth). Returning false from fn skips the
// member's children.
func (m *Member) Walk(depth int, fn func(*Member, int) bool) {
	if !fn(m, depth) {
		return
	}
	for _, c := range m.children {
		c.Walk(depth+1, fn)
	}
}

func (m *Member) String() string {
	return fmt.Sprintf("%s %s", m.typ, m.DisplayName())
}
