package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/mergeflow/doc-format/go-doc/diff"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/reduce"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

func reduceRun(cfg *ReduceConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Reduce.Parse(cc, args)
	if err != nil {
		cfg.Reduce.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.Schema == "" {
		return fmt.Errorf("%w: reduce requires -s schema", cli.ErrUsage)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: reduce requires at least one document", cli.ErrUsage)
	}
	idx, s, err := cfg.loadSchema(cfg.Schema)
	if err != nil {
		return err
	}

	var (
		acc     *ir.Node
		deleted bool
	)
	for i, arg := range args {
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
		ann := reduce.AnnotationsFromOutcomes(res.Outcomes())
		full := cfg.Full && i == len(args)-1
		acc, deleted, err = reduce.Reduce(acc, doc, ann, full)
		if err != nil {
			return fmt.Errorf("error reducing %s: %w", arg, err)
		}
	}

	if cfg.Check != "" {
		want, err := cfg.loadNode(cfg.Check)
		if err != nil {
			return err
		}
		if d := diff.Unified(want, acc); d != "" {
			fmt.Fprint(cc.Out, d)
			return cli.ExitCodeErr(1)
		}
		return nil
	}
	if deleted {
		fmt.Fprintln(cc.Out, "# result is a deletion")
	}
	return writeNode(cc.Out, acc)
}
