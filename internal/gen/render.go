// Package gen renders Go source from the schema IR with text/template.
//
// The built-in set defines "file", "namespace" and "struct" (the generic type
// template, which dispatches on the type kind to "object", "union", "enum" or
// "alias"). Each IR node names the template that renders it, so a schema can
// bind its own templates per document or per member; additional templates are
// added with Parse or ParseGlob.
package gen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/internal/ir"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Renderer executes templates over an ir.File.
type Renderer struct {
	tmpl *template.Template
	// Format runs go/format over the output. New enables it.
	Format bool
}

// New returns a renderer holding the built-in templates.
func New() (*Renderer, error) {
	r := &Renderer{Format: true}
	r.tmpl = template.New("schemakit").Funcs(template.FuncMap{
		"include":   r.include,
		"base":      filepath.Base,
		"comment":   comment,
		"expr":      ir.Expr,
		"fieldType": ir.FieldExpr,
		"tag":       tag,
	})
	if _, err := r.tmpl.ParseFS(builtin, "templates/*.tmpl"); err != nil {
		return nil, fmt.Errorf("gen: builtin templates: %w", err)
	}
	return r, nil
}

// Parse adds or replaces the template called name.
func (r *Renderer) Parse(name, text string) error {
	if _, err := r.tmpl.New(name).Parse(text); err != nil {
		return fmt.Errorf("gen: template %s: %w", name, err)
	}
	return nil
}

// ParseGlob adds every file matching pattern (doublestar syntax). A file
// named flags.tmpl defines the template "flags".
func (r *Renderer) ParseGlob(pattern string) ([]string, error) {
	files, err := doublestar.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("gen: glob %s: %w", pattern, err)
	}
	var names []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("gen: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if err := r.Parse(name, string(data)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Render executes the file's template.
func (r *Renderer) Render(f *ir.File) ([]byte, error) {
	name := f.Template
	if name == "" {
		name = schemakit.TemplateFile
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, f); err != nil {
		return nil, fmt.Errorf("gen: render %s: %w", f.Source, err)
	}
	if !r.Format {
		return buf.Bytes(), nil
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("gen: format %s: %w", f.Source, err)
	}
	return out, nil
}

// RenderDocument builds the IR of doc and renders it with the built-in
// templates.
func RenderDocument(reg *schemakit.Registry, doc *schemakit.Document, pkg string) ([]byte, error) {
	f, err := ir.Build(reg, doc, pkg)
	if err != nil {
		return nil, err
	}
	r, err := New()
	if err != nil {
		return nil, err
	}
	return r.Render(f)
}

func (r *Renderer) include(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// comment renders doc as line comments ending in a newline; "" stays "".
func comment(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(doc, "\n") {
		sb.WriteString("// ")
		sb.WriteString(strings.TrimSpace(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// tag renders the struct tag of a field. Scalars are XML attributes and
// everything else a child element, matching the xml converter.
func tag(f ir.Field) string {
	js := f.Wire
	if f.Optional {
		js += ",omitempty"
	}
	x := f.Wire
	switch f.Schema.Kind() {
	case ir.NodePrimitive, ir.NodeEnum:
		x += ",attr"
	case ir.NodeRef:
		if f.Schema.(*ir.Ref).Scalar {
			x += ",attr"
		}
	}
	if f.Optional {
		x += ",omitempty"
	}
	return fmt.Sprintf(`json:"%s" xml:"%s"`, js, x)
}
