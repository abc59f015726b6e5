package schemakit

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/schemaerr"
	"github.com/cgalavis/schemakit/source"
)

// Template kinds with built-in defaults.
const (
	TemplateFile      = "file"
	TemplateNamespace = "namespace"
	TemplateStruct    = "struct"
)

func defaultTemplates() map[string]string {
	return map[string]string{
		TemplateFile:      "file",
		TemplateNamespace: "namespace",
		TemplateStruct:    "struct",
	}
}

// Document is one loaded schema file. It is immutable once its registry has
// committed it.
type Document struct {
	path          string
	format        string
	name          string
	author        string
	doc           string
	rootNamespace string
	version       Version
	templates     map[string]string
	patterns      []string
	unmatched     []string
	direct        []string
	closure       []string
	members       []*Member
	index         map[string]*Member
	catalog       *catalog.Catalog
}

// newDocument validates raw and builds the member tree and index. Dependency
// patterns are expanded but not loaded.
func newDocument(raw *source.Document, o *options) (*Document, error) {
	d := &Document{
		path:          raw.Path,
		format:        raw.Format,
		name:          raw.Name,
		author:        raw.Author,
		doc:           raw.Doc,
		rootNamespace: raw.RootNamespace,
		patterns:      append([]string(nil), raw.Dependencies...),
		templates:     defaultTemplates(),
		index:         map[string]*Member{},
		catalog:       o.catalog,
	}
	if d.name == "" {
		d.name = strings.TrimSuffix(filepath.Base(d.path), filepath.Ext(d.path))
	}

	if raw.Version == "" {
		return nil, schemaerr.Schema(schemaerr.CodeInvalidVersion).At("/version").In(d.path)
	}
	v, err := ParseVersion(raw.Version)
	if err != nil {
		e, _ := schemaerr.As(err)
		return nil, e.At("/version").In(d.path)
	}
	if !v.CompatibleWith(o.supported) {
		return nil, schemaerr.Schema(schemaerr.CodeIncompatibleVersion, "version", v.String(), "supported", o.supported.String()).
			At("/version").In(d.path)
	}
	d.version = v

	for k, t := range raw.Templates {
		d.templates[k] = t
	}

	if len(raw.Types) > 0 {
		d.catalog = d.catalog.Clone()
		for _, ta := range raw.Types {
			if !ValidName(ta.Name) {
				return nil, schemaerr.Schema(schemaerr.CodeInvalidName, "name", ta.Name).At(ta.Pointer).In(d.path)
			}
			if _, err := d.catalog.Define(ta.Name, ta.Base, ta.Size, ta.Min, ta.Max); err != nil {
				e, _ := schemaerr.As(err)
				return nil, e.At(ta.Pointer).In(d.path)
			}
		}
	}

	for i, rm := range raw.Members {
		m, err := newMember(nil, d, i, rm)
		if err != nil {
			return nil, err
		}
		if err := d.adopt(m); err != nil {
			return nil, err.In(d.path)
		}
	}

	if err := d.expandDependencies(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) adopt(m *Member) *schemaerr.Error {
	d.members = append(d.members, m)
	if !m.Anonymous() {
		if err := d.register(m.FullName(), m); err != nil {
			return err
		}
	}
	for _, k := range sortedNames(m.names) {
		if err := d.register(k, m.names[k]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) register(full string, m *Member) *schemaerr.Error {
	if _, dup := d.index[full]; dup {
		return schemaerr.Schema(schemaerr.CodeDuplicateMember, "name", full, "owner", d.name).At(m.pointer)
	}
	d.index[full] = m
	return nil
}

// expandDependencies resolves each declared pattern relative to the
// document's directory. Matches that are not schema documents, or that are
// the document itself, are skipped.
func (d *Document) expandDependencies() error {
	dir := filepath.Dir(d.path)
	seen := map[string]bool{d.path: true}
	for _, p := range d.patterns {
		pattern := filepath.FromSlash(p)
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return schemaerr.Schema(schemaerr.CodeMalformedDocument, "pattern", p).At("/dependencies").In(d.path).Wrap(err)
		}
		sort.Strings(matches)
		found := false
		for _, match := range matches {
			abs, err := normalizePath(match)
			if err != nil || seen[abs] {
				continue
			}
			if !source.SniffFile(abs) {
				continue
			}
			seen[abs] = true
			found = true
			d.direct = append(d.direct, abs)
		}
		if !found {
			d.unmatched = append(d.unmatched, p)
		}
	}
	return nil
}

func (d *Document) kindOf(typ string) Kind {
	switch typ {
	case "struct":
		return KindStruct
	case "union":
		return KindUnion
	case "enum":
		return KindEnum
	case "array":
		return KindArray
	}
	if d.catalog.Has(typ) {
		return KindField
	}
	return KindReference
}

// Path returns the normalized absolute path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Format names the source syntax ("json", "yaml" or "xml").
func (d *Document) Format() string { return d.format }

// Name returns the declared name, defaulting to the file's base name.
func (d *Document) Name() string          { return d.name }
func (d *Document) Author() string        { return d.author }
func (d *Document) Doc() string           { return d.doc }
func (d *Document) RootNamespace() string { return d.rootNamespace }
func (d *Document) Version() Version      { return d.version }

// Catalog returns the type catalog in effect for the document, including
// any aliases it declares.
func (d *Document) Catalog() *catalog.Catalog { return d.catalog }

// Members returns the top-level members in declaration order.
func (d *Document) Members() []*Member { return append([]*Member(nil), d.members...) }

// FindMember looks a member up by full name, e.g. "Point::x".
func (d *Document) FindMember(fullName string) (*Member, bool) {
	m, ok := d.index[fullName]
	return m, ok
}

// MemberNames lists every indexed full name in sorted order.
func (d *Document) MemberNames() []string { return sortedNames(d.index) }

// DirectDependencies returns the paths matched by the document's own
// dependency patterns.
func (d *Document) DirectDependencies() []string { return append([]string(nil), d.direct...) }

// Dependencies returns the transitive dependency closure computed by the
// registry, excluding the document itself.
func (d *Document) Dependencies() []string { return append([]string(nil), d.closure...) }

// TemplateFor returns the template bound to kind, falling back to the struct
// template.
func (d *Document) TemplateFor(kind string) string {
	if t, ok := d.templates[kind]; ok {
		return t
	}
	return d.templates[TemplateStruct]
}

// Walk visits every member of the document in pre-order, top-level members
// at depth 0.
func (d *Document) Walk(fn func(*Member, int) bool) {
	for _, m := range d.members {
		m.Walk(0, fn)
	}
}

func sortedNames(m map[string]*Member) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}
