package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cgalavis/schemakit/convert"
	"github.com/cgalavis/schemakit/convert/jsonconv"
	"github.com/cgalavis/schemakit/convert/structconv"
	"github.com/cgalavis/schemakit/convert/xmlconv"
)

type Convert struct {
	sk *SchemaKit

	From   string
	To     string
	In     string
	Out    string
	Indent string
}

func NewConvert(sk *SchemaKit) *cobra.Command {
	c := &Convert{sk: sk}
	cmd := &cobra.Command{
		Use:   "convert SCHEMA TYPE",
		Short: "Convert a payload of TYPE between xml, json and struct encodings",
		Args:  cobra.ExactArgs(2),
		RunE:  c.Run,
	}
	f := cmd.Flags()
	f.StringVar(&c.From, "from", "json", "input encoding: xml, json or struct")
	f.StringVar(&c.To, "to", "xml", "output encoding: xml, json or struct")
	f.StringVar(&c.In, "in", "", "input file (default stdin)")
	f.StringVar(&c.Out, "out", "", "output file (default stdout)")
	f.StringVar(&c.Indent, "indent", "  ", "indentation of xml and json output")
	return cmd
}

func (c *Convert) converters() *convert.Registry {
	return convert.NewRegistry(
		&xmlconv.Converter{Indent: c.Indent},
		&jsonconv.Converter{Indent: c.Indent},
		structconv.New(0),
	)
}

func (c *Convert) Run(cmd *cobra.Command, args []string) error {
	reg := c.sk.registry()
	doc, err := reg.Load(args[0])
	if err != nil {
		return err
	}
	class, err := reg.Class(doc, args[1])
	if err != nil {
		return err
	}

	cs := c.converters()
	from, ok := cs.Get(c.From)
	if !ok {
		return fmt.Errorf("unknown encoding %q (have %v)", c.From, cs.Names())
	}
	to, ok := cs.Get(c.To)
	if !ok {
		return fmt.Errorf("unknown encoding %q (have %v)", c.To, cs.Names())
	}

	var in []byte
	if c.In == "" {
		in, err = io.ReadAll(cmd.InOrStdin())
	} else {
		in, err = os.ReadFile(c.In)
	}
	if err != nil {
		return err
	}

	obj, err := from.ToObject(in, class)
	if err != nil {
		return err
	}
	out, err := to.FromObject(obj, class)
	if err != nil {
		return err
	}
	if c.Out != "" {
		return os.WriteFile(c.Out, out, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
