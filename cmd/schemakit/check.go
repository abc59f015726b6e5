package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgalavis/schemakit/schemaerr"
)

type Check struct {
	sk *SchemaKit
}

type checkResult struct {
	Path         string `json:"path"`
	Members      int    `json:"members"`
	Dependencies int    `json:"dependencies"`
	Code         string `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
}

func NewCheck(sk *SchemaKit) *cobra.Command {
	c := &Check{sk: sk}
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Load each schema document with its dependencies and report errors",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.Run,
	}
}

func (c *Check) Run(cmd *cobra.Command, args []string) error {
	var (
		results []checkResult
		errs    schemaerr.List
	)
	for _, path := range args {
		res := checkResult{Path: path}
		doc, err := c.sk.registry().Load(path)
		if err != nil {
			e, ok := schemaerr.As(err)
			if !ok {
				return err
			}
			res.Code, res.Error = e.Code, e.Error()
			errs = append(errs, e)
		} else {
			res.Members = len(doc.MemberNames())
			res.Dependencies = len(doc.Dependencies())
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	err := c.sk.print(out, results, func() error {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(out, "FAIL %s: %s\n", r.Path, r.Error)
				continue
			}
			fmt.Fprintf(out, "ok   %s (%d members, %d dependencies)\n", r.Path, r.Members, r.Dependencies)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(errs), len(args))
	}
	return nil
}
