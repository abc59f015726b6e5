package main

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/internal/gen"
	"github.com/cgalavis/schemakit/internal/ir"
)

type Gen struct {
	sk *SchemaKit

	Package   string
	Out       string
	Templates string
	NoFormat  bool
}

func NewGen(sk *SchemaKit) *cobra.Command {
	g := &Gen{sk: sk}
	cmd := &cobra.Command{
		Use:   "gen FILE",
		Short: "Generate Go types for a schema document",
		Args:  cobra.ExactArgs(1),
		RunE:  g.Run,
	}
	f := cmd.Flags()
	f.StringVarP(&g.Package, "package", "p", "", "Go package name (default: derived from the document)")
	f.StringVar(&g.Out, "out", "", "output file (default stdout)")
	f.StringVar(&g.Templates, "templates", "", "glob of extra templates; a file NAME.tmpl defines template NAME")
	f.BoolVar(&g.NoFormat, "no-format", false, "skip gofmt on the output")
	return cmd
}

func (g *Gen) Run(cmd *cobra.Command, args []string) error {
	reg := g.sk.registry()
	doc, err := reg.Load(args[0])
	if err != nil {
		return err
	}
	f, err := ir.Build(reg, doc, g.packageName(doc))
	if err != nil {
		return err
	}

	r, err := gen.New()
	if err != nil {
		return err
	}
	r.Format = !g.NoFormat
	pattern := g.Templates
	if pattern == "" {
		pattern = g.sk.cfg.Templates
	}
	if pattern != "" {
		names, err := r.ParseGlob(pattern)
		if err != nil {
			return err
		}
		g.sk.logger.Printf("schemakit: templates %v", names)
	}

	code, err := r.Render(f)
	if err != nil {
		return err
	}
	if g.Out == "" {
		_, err = cmd.OutOrStdout().Write(code)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(g.Out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(g.Out, code, 0o644)
}

// packageName picks the flag value, else the last segment of the root
// namespace, else the document name, else the file name.
func (g *Gen) packageName(doc *schemakit.Document) string {
	candidates := []string{g.Package}
	if ns := doc.RootNamespace(); ns != "" {
		parts := strings.Split(ns, schemakit.Separator)
		candidates = append(candidates, parts[len(parts)-1])
	}
	base := filepath.Base(doc.Path())
	candidates = append(candidates, doc.Name(), strings.TrimSuffix(base, filepath.Ext(base)))
	for _, c := range candidates {
		if p := sanitizePackage(c); p != "" {
			return p
		}
	}
	return "schema"
}

func sanitizePackage(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	p := b.String()
	if p == "" || unicode.IsDigit(rune(p[0])) {
		return ""
	}
	return p
}
