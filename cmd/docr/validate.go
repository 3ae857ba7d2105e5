package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"

	"github.com/mergeflow/doc-format/go-doc/validate"
)

func validateRun(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Validate.Parse(cc, args)
	if err != nil {
		cfg.Validate.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.Schema == "" {
		return fmt.Errorf("%w: validate requires -s schema", cli.ErrUsage)
	}
	idx, s, err := cfg.loadSchema(cfg.Schema)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !cfg.colored(cc.Out) {
		ok.DisableColor()
		bad.DisableColor()
	}

	invalid := 0
	for _, arg := range args {
		doc, err := cfg.loadNode(arg)
		if err != nil {
			return err
		}
		res, err := validate.Validate(idx, s, doc)
		if err != nil {
			return fmt.Errorf("error validating %s: %w", arg, err)
		}
		if res.Valid() {
			if !cfg.Quiet {
				ok.Fprintf(cc.Out, "%s: ok\n", arg)
			}
			continue
		}
		invalid++
		if cfg.Quiet {
			continue
		}
		bad.Fprintf(cc.Out, "%s: invalid\n", arg)
		for _, e := range res.Errors() {
			fmt.Fprintf(cc.Out, "  %s\n", e)
		}
	}
	if invalid > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}
