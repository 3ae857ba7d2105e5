package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/mergeflow/doc-format/go-doc/redact"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

func redactRun(cfg *RedactConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Redact.Parse(cc, args)
	if err != nil {
		cfg.Redact.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.Schema == "" {
		return fmt.Errorf("%w: redact requires -s schema", cli.ErrUsage)
	}
	idx, s, err := cfg.loadSchema(cfg.Schema)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	var salt []byte
	if cfg.Salt != "" {
		salt = []byte(cfg.Salt)
	}
	for _, arg := range args {
		doc, err := cfg.loadNode(arg)
		if err != nil {
			return err
		}
		res, err := validate.Validate(idx, s, doc)
		if err != nil {
			return fmt.Errorf("error validating %s: %w", arg, err)
		}
		if !res.Valid() {
			return fmt.Errorf("%s is invalid: %v", arg, res.Errors())
		}
		out, err := redact.Redact(doc, res.Outcomes(), salt)
		if err != nil {
			return fmt.Errorf("error redacting %s: %w", arg, err)
		}
		if out.Kind == redact.Removed {
			fmt.Fprintln(cc.Out, "# document removed")
			continue
		}
		if err := writeNode(cc.Out, doc); err != nil {
			return err
		}
	}
	return nil
}
