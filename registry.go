package schemakit

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/internal/depgraph"
	"github.com/cgalavis/schemakit/schemaerr"
	"github.com/cgalavis/schemakit/source"
)

// CyclePolicy selects how cyclic dependency declarations are treated. The
// closure computation terminates in every case.
type CyclePolicy int

const (
	// CycleWarn logs each cycle and keeps loading.
	CycleWarn CyclePolicy = iota
	// CycleIgnore tolerates cycles silently.
	CycleIgnore
	// CycleError fails the load with dependency_cycle.
	CycleError
)

func (p CyclePolicy) String() string {
	switch p {
	case CycleWarn:
		return "warn"
	case CycleIgnore:
		return "ignore"
	case CycleError:
		return "error"
	default:
		return fmt.Sprintf("cycle_policy(%d)", int(p))
	}
}

// ParseCyclePolicy parses "warn", "ignore" or "error".
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return CycleWarn, nil
	case "ignore":
		return CycleIgnore, nil
	case "error":
		return CycleError, nil
	}
	return CycleWarn, fmt.Errorf("unknown cycle policy %q", s)
}

type options struct {
	supported Version
	cycles    CyclePolicy
	catalog   *catalog.Catalog
	logger    *log.Logger
	decode    source.Options
}

// Option configures a Registry.
type Option func(*options)

// WithSupportedVersion sets the version documents are checked against.
func WithSupportedVersion(v Version) Option { return func(o *options) { o.supported = v } }

// WithCyclePolicy sets the dependency cycle policy (default CycleWarn).
func WithCyclePolicy(p CyclePolicy) Option { return func(o *options) { o.cycles = p } }

// WithCatalog replaces the built-in type catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		if c != nil {
			o.catalog = c
		}
	}
}

// WithLogger sets the logger for load progress, skipped dependencies and
// tolerated cycles. Nil discards.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithMaxDepth bounds the nesting depth of JSON and YAML documents.
func WithMaxDepth(n int) Option { return func(o *options) { o.decode.MaxDepth = n } }

// WithDuplicateKeys makes repeated JSON keys keep their last value instead of
// failing with duplicate_key.
func WithDuplicateKeys(allow bool) Option {
	return func(o *options) { o.decode.AllowDuplicateKeys = allow }
}

// Registry owns the documents loaded through it, keyed by normalized absolute
// path. It is not safe for concurrent use.
type Registry struct {
	opts    options
	docs    map[string]*Document
	order   []string
	baseDir string
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := options{supported: DefaultSupportedVersion, catalog: catalog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	return &Registry{opts: o, docs: map[string]*Document{}}
}

// load carries the state of one Load call. Documents are staged and only
// become visible in the registry once the whole tree has loaded.
type load struct {
	staged  map[string]*Document
	order   []string
	loading map[string]bool
}

// Load reads the document at path and every document it depends on,
// transitively, then computes each document's dependency closure. Loading a
// path that is already registered fails with duplicate_document. On failure
// nothing is registered.
func (r *Registry) Load(path string) (*Document, error) {
	abs, err := normalizePath(path)
	if err != nil {
		return nil, schemaerr.IO(schemaerr.CodeReadFailed, path, err)
	}
	if _, ok := r.docs[abs]; ok {
		return nil, schemaerr.Schema(schemaerr.CodeDuplicateDocument).In(abs)
	}

	l := &load{staged: map[string]*Document{}, loading: map[string]bool{}}
	root, err := r.loadTree(l, abs, true)
	if err != nil {
		return nil, err
	}

	g := depgraph.Graph[string]{}
	for p, d := range r.docs {
		g[p] = d.direct
	}
	for p, d := range l.staged {
		g[p] = d.direct
	}
	if err := r.checkCycles(g, abs, l); err != nil {
		return nil, err
	}
	closure := depgraph.Closure(g)
	for _, p := range l.order {
		l.staged[p].closure = closure[p]
	}

	for _, p := range l.order {
		r.docs[p] = l.staged[p]
		r.order = append(r.order, p)
	}
	r.baseDir = filepath.Dir(abs)
	r.opts.logger.Printf("schemakit: loaded %s with %d dependencies", abs, len(root.closure))
	return root, nil
}

func (r *Registry) loadTree(l *load, path string, isRoot bool) (*Document, error) {
	if d, ok := r.docs[path]; ok {
		return d, nil
	}
	if d, ok := l.staged[path]; ok {
		return d, nil
	}
	if l.loading[path] {
		return nil, nil
	}
	l.loading[path] = true
	defer delete(l.loading, path)

	raw, err := source.ReadFile(path, r.opts.decode)
	if err != nil {
		return nil, err
	}
	d, err := newDocument(raw, &r.opts)
	if err != nil {
		return nil, err
	}
	if len(d.members) == 0 {
		if isRoot {
			return nil, schemaerr.Schema(schemaerr.CodeEmptyDocument).In(path)
		}
		r.opts.logger.Printf("schemakit: skipping %s: no members", path)
		return nil, nil
	}
	for _, p := range d.unmatched {
		r.opts.logger.Printf("schemakit: %s: dependency %q matched no schema documents", path, p)
	}

	kept := d.direct[:0]
	for _, dep := range d.direct {
		dd, err := r.loadTree(l, dep, false)
		if err != nil {
			return nil, err
		}
		if dd == nil && !l.loading[dep] {
			continue
		}
		kept = append(kept, dep)
	}
	d.direct = kept

	l.staged[path] = d
	l.order = append(l.order, path)
	r.opts.logger.Printf("schemakit: read %s (%s, %d members)", path, d.format, len(d.members))
	return d, nil
}

// checkCycles applies the cycle policy to the graph reachable from root.
// Under CycleError no registered document is part of a cycle, so any cycle
// found involves this load.
func (r *Registry) checkCycles(g depgraph.Graph[string], root string, l *load) error {
	switch r.opts.cycles {
	case CycleIgnore:
		return nil
	case CycleError:
		err := depgraph.Detect(g, root)
		var c depgraph.CycleError[string]
		if !errors.As(err, &c) {
			return err
		}
		return schemaerr.Schema(schemaerr.CodeDependencyCycle, "cycle", strings.Join(c.Path, " -> ")).
			In(c.Path[0]).Wrap(c)
	}
	for _, c := range depgraph.Cycles(g) {
		if touches(c.Path, l.staged) {
			r.opts.logger.Printf("schemakit: %v", c)
		}
	}
	return nil
}

func touches(path []string, staged map[string]*Document) bool {
	for _, p := range path {
		if _, ok := staged[p]; ok {
			return true
		}
	}
	return false
}

// Document returns a loaded document by path.
func (r *Registry) Document(path string) (*Document, bool) {
	abs, err := normalizePath(path)
	if err != nil {
		return nil, false
	}
	d, ok := r.docs[abs]
	return d, ok
}

// Documents returns every loaded document in load order; dependencies come
// before the documents that declare them.
func (r *Registry) Documents() []*Document {
	out := make([]*Document, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.docs[p])
	}
	return out
}

// BaseDir is the directory of the most recently loaded root document.
func (r *Registry) BaseDir() string { return r.baseDir }

// Reset forgets every loaded document.
func (r *Registry) Reset() {
	r.docs = map[string]*Document{}
	r.order = nil
	r.baseDir = ""
}

// ResolveType finds the member a type name refers to, searching doc first and
// then its dependency closure in order. Full names are tried before bare
// top-level names, so "Trading::Order" and "Order" both resolve.
func (r *Registry) ResolveType(doc *Document, name string) (*Member, error) {
	scope := []*Document{doc}
	for _, p := range doc.closure {
		if d, ok := r.docs[p]; ok {
			scope = append(scope, d)
		}
	}
	for _, d := range scope {
		if m, ok := d.FindMember(name); ok {
			return m, nil
		}
	}
	for _, d := range scope {
		for _, m := range d.members {
			if m.name == name {
				return m, nil
			}
		}
	}
	return nil, schemaerr.New(schemaerr.ErrUnknownType, schemaerr.CodeUnknownType, "type", name).In(doc.path)
}
