package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "docr").
		WithSynopsis("docr [opts] command [opts]").
		WithDescription("docr validates, reduces and redacts documents against annotated schemas.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return docrMain(cfg, cc, args)
		}).
		WithSubs(
			ValidateCommand(cfg),
			ReduceCommand(cfg),
			RedactCommand(cfg),
			LocationsCommand(cfg))
}

func docrMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.J && cfg.Y {
		return fmt.Errorf("%w: must specify at most one of -j[son] -y[aml]", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func ValidateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValidateConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Validate, "validate").
		WithAliases("v", "val").
		WithSynopsis("validate -s schema [docs]").
		WithDescription("validate documents against a schema").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return validateRun(cfg, cc, args)
		})
}

func ReduceCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ReduceConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Reduce, "reduce").
		WithAliases("r", "red").
		WithSynopsis("reduce -s schema [-full] [-check doc] docs...").
		WithDescription("fold documents left to right per the schema's reduce strategies").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return reduceRun(cfg, cc, args)
		})
}

func RedactCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RedactConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Redact, "redact").
		WithSynopsis("redact -s schema [-salt salt] [docs]").
		WithDescription("sanitize documents per the schema's redact annotations").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return redactRun(cfg, cc, args)
		})
}

func LocationsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LocationsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Locations, "locations").
		WithAliases("loc", "ls").
		WithSynopsis("locations -s schema [-where expr]").
		WithDescription(locationsDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return locationsRun(cfg, cc, args)
		})
}

const locationsDescription = `locations prints the inferred shape of a schema, one row per
addressable location:

  <pointer> <pattern-marker> <existence> <types>

The -where expression filters rows. It evaluates with these variables:

  pointer  string  the location's JSON pointer
  types    string  the location's admitted types, e.g. "string" or "integer,null"
  exists   string  one of must, may, implicit, cannot
  pattern  bool    whether the pointer contains a pattern token

Examples:

  docr locations -s schema.yaml
  docr locations -s schema.yaml -where 'exists == "must"'
  docr locations -s schema.yaml -where 'pointer startsWith "/meta" && !pattern'`
