package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

type MainConfig struct {
	J bool `cli:"name=j aliases=json desc='read documents as json'"`
	Y bool `cli:"name=y aliases=yaml desc='read documents as yaml'"`

	Color bool `cli:"name=color desc='force colored output'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// colored reports whether output to w should use color: forced by
// -color, otherwise only for terminals.
func (cfg *MainConfig) colored(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// loadNode reads one document from path ("-" is stdin). The encoding
// follows -j/-y, else the file extension, else JSON.
func (cfg *MainConfig) loadNode(path string) (*ir.Node, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if cfg.yamlInput(path) {
		n, err := schema.ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", path, err)
		}
		return n, nil
	}
	n, err := ir.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return n, nil
}

func (cfg *MainConfig) yamlInput(path string) bool {
	if cfg.J {
		return false
	}
	if cfg.Y {
		return true
	}
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	return data, nil
}

// loadSchema builds and indexes the schema document at path. The
// canonical URI is derived from the file name unless the document
// declares an $id.
func (cfg *MainConfig) loadSchema(path string) (*schema.Index, *schema.Schema, error) {
	n, err := cfg.loadNode(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := schema.Build("file:///"+strings.TrimPrefix(path, "/"), n)
	if err != nil {
		return nil, nil, err
	}
	b := schema.NewIndexBuilder()
	if err := b.Add(s); err != nil {
		return nil, nil, err
	}
	if err := b.VerifyReferences(); err != nil {
		return nil, nil, err
	}
	idx, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return idx, s, nil
}

func writeNode(w io.Writer, n *ir.Node) error {
	js, err := ir.ToJSONIndent(n)
	if err != nil {
		return err
	}
	js = append(js, '\n')
	_, err = w.Write(js)
	return err
}

type ValidateConfig struct {
	*MainConfig
	Schema string `cli:"name=s aliases=schema desc='schema file'"`
	Quiet  bool   `cli:"name=q desc='no output, exit status only'"`

	Validate *cli.Command
}

type ReduceConfig struct {
	*MainConfig
	Schema string `cli:"name=s aliases=schema desc='schema file'"`
	Full   bool   `cli:"name=full desc='full reduction: prune tombstones and bookkeeping'"`
	Check  string `cli:"name=check desc='diff the result against this document'"`

	Reduce *cli.Command
}

type RedactConfig struct {
	*MainConfig
	Schema string `cli:"name=s aliases=schema desc='schema file'"`
	Salt   string `cli:"name=salt desc='digest salt'"`

	Redact *cli.Command
}

type LocationsConfig struct {
	*MainConfig
	Schema string `cli:"name=s aliases=schema desc='schema file'"`
	Where  string `cli:"name=where desc='filter expression over pointer, types, exists, pattern'"`

	Locations *cli.Command
}
