package main

import (
	"fmt"
	"io"
	"log"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cgalavis/schemakit"
	"github.com/cgalavis/schemakit/internal/config"
)

// SchemaKit holds the global flags and the configuration shared by every
// subcommand.
type SchemaKit struct {
	EnvFiles    []string
	Verbose     bool
	CyclePolicy string
	Output      string

	cfg    *config.Config
	logger *log.Logger
}

func NewRoot() *cobra.Command {
	s := &SchemaKit{}
	cmd := &cobra.Command{
		Use:               "schemakit",
		Short:             "Validate schema documents, inspect dependencies, generate code and convert payloads",
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true
	f := cmd.PersistentFlags()
	f.StringSliceVar(&s.EnvFiles, "env", nil, "dotenv files to read (default .env)")
	f.BoolVarP(&s.Verbose, "verbose", "v", false, "log document loading to stderr")
	f.StringVar(&s.CyclePolicy, "cycles", "", "dependency cycle policy: warn, ignore or error")
	f.StringVarP(&s.Output, "output", "o", "text", "output format: text or json")

	cmd.AddCommand(NewCheck(s), NewDeps(s), NewGen(s), NewConvert(s), NewJSONSchema(s))
	return cmd
}

func (s *SchemaKit) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(s.EnvFiles...)
	if err != nil {
		return err
	}
	if s.Verbose {
		cfg.Verbose = true
	}
	if s.CyclePolicy != "" {
		if cfg.CyclePolicy, err = schemakit.ParseCyclePolicy(s.CyclePolicy); err != nil {
			return err
		}
	}
	switch s.Output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", s.Output)
	}
	s.cfg = cfg
	s.logger = log.New(cmd.ErrOrStderr(), "", 0)
	return nil
}

// registry returns a fresh registry configured from the environment and flags.
func (s *SchemaKit) registry() *schemakit.Registry {
	return schemakit.NewRegistry(s.cfg.Options(s.logger)...)
}

// print writes v as indented JSON when -o json is set, else calls text.
func (s *SchemaKit) print(w io.Writer, v any, text func() error) error {
	if s.Output != "json" {
		return text()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
