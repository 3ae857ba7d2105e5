package main

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/scott-cotton/cli"

	"github.com/mergeflow/doc-format/go-doc/shape"
)

type locationEnv struct {
	Pointer string `expr:"pointer"`
	Types   string `expr:"types"`
	Exists  string `expr:"exists"`
	Pattern bool   `expr:"pattern"`
}

func locationsRun(cfg *LocationsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Locations.Parse(cc, args)
	if err != nil {
		cfg.Locations.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.Schema == "" || len(args) != 0 {
		return fmt.Errorf("%w: locations takes -s schema and no arguments", cli.ErrUsage)
	}
	idx, s, err := cfg.loadSchema(cfg.Schema)
	if err != nil {
		return err
	}

	var where *vm.Program
	if cfg.Where != "" {
		where, err = expr.Compile(cfg.Where, expr.Env(locationEnv{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("%w: bad -where expression: %v", cli.ErrUsage, err)
		}
	}

	locs := shape.Infer(s, idx).Locations()
	if where != nil {
		kept := locs[:0]
		for _, l := range locs {
			ptr := l.Ptr.String()
			if ptr == "" {
				ptr = "/"
			}
			keep, err := expr.Run(where, locationEnv{
				Pointer: ptr,
				Types:   l.Shape.Types.String(),
				Exists:  l.Exists.String(),
				Pattern: l.IsPattern,
			})
			if err != nil {
				return fmt.Errorf("error evaluating -where: %w", err)
			}
			if keep.(bool) {
				kept = append(kept, l)
			}
		}
		locs = kept
	}
	_, err = fmt.Fprint(cc.Out, shape.Table(locs))
	return err
}
