package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cgalavis/schemakit/jsonschema"
)

type JSONSchema struct {
	sk *SchemaKit
}

func NewJSONSchema(sk *SchemaKit) *cobra.Command {
	j := &JSONSchema{sk: sk}
	return &cobra.Command{
		Use:   "jsonschema SCHEMA TYPE",
		Short: "Print the JSON Schema of TYPE's JSON payloads",
		Args:  cobra.ExactArgs(2),
		RunE:  j.Run,
	}
}

func (j *JSONSchema) Run(cmd *cobra.Command, args []string) error {
	reg := j.sk.registry()
	doc, err := reg.Load(args[0])
	if err != nil {
		return err
	}
	class, err := reg.Class(doc, args[1])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(jsonschema.FromClass(class), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
