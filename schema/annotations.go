package schema

import (
	"fmt"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// StrategyKind names one reduction behavior.
type StrategyKind int

const (
	LastWriteWins StrategyKind = iota
	FirstWriteWins
	Minimize
	Maximize
	Sum
	Append
	Merge
	Set
)

var strategyKinds = map[string]StrategyKind{
	"lastWriteWins":  LastWriteWins,
	"firstWriteWins": FirstWriteWins,
	"minimize":       Minimize,
	"maximize":       Maximize,
	"sum":            Sum,
	"append":         Append,
	"merge":          Merge,
	"set":            Set,
}

func (k StrategyKind) String() string {
	for name, kk := range strategyKinds {
		if kk == k {
			return name
		}
	}
	return "invalid"
}

// Strategy is a parsed `reduce` annotation.
type Strategy struct {
	Kind StrategyKind
	// Key is the composite sub-key for minimize, maximize, merge and
	// set.
	Key []ir.Pointer
	// Delete marks reductions whose result is a deletion of the
	// document or item, effective under full reduction.
	Delete bool
	// Associative is false for lastWriteWins locations whose updates
	// may not be folded out of order. Defaults to true.
	Associative bool
}

// DefaultStrategy is the strategy in effect where none is annotated.
func DefaultStrategy() *Strategy {
	return &Strategy{Kind: LastWriteWins, Associative: true}
}

func parseStrategy(n *ir.Node) (*Strategy, error) {
	// Shorthand: "reduce": "sum"
	if n.Type == ir.StringType {
		kind, ok := strategyKinds[n.String]
		if !ok {
			return nil, fmt.Errorf("unknown reduce strategy %q", n.String)
		}
		return &Strategy{Kind: kind, Associative: true}, nil
	}
	if n.Type != ir.ObjectType {
		return nil, fmt.Errorf("reduce annotation must be a string or object, not %s", n.Type)
	}
	s := &Strategy{Associative: true}
	name := ir.Get(n, "strategy")
	if name == nil || name.Type != ir.StringType {
		return nil, fmt.Errorf("reduce annotation requires a \"strategy\" string")
	}
	kind, ok := strategyKinds[name.String]
	if !ok {
		return nil, fmt.Errorf("unknown reduce strategy %q", name.String)
	}
	s.Kind = kind

	for i, f := range n.Fields {
		v := n.Values[i]
		switch f.String {
		case "strategy":
		case "key":
			if kind != Minimize && kind != Maximize && kind != Merge && kind != Set {
				return nil, fmt.Errorf("strategy %s does not take a key", kind)
			}
			if v.Type != ir.ArrayType || len(v.Values) == 0 {
				return nil, fmt.Errorf("reduce key must be a non-empty array of pointers")
			}
			for _, p := range v.Values {
				if p.Type != ir.StringType {
					return nil, fmt.Errorf("reduce key element must be a pointer string")
				}
				ptr, err := ir.ParsePointer(p.String)
				if err != nil {
					return nil, fmt.Errorf("reduce key: %w", err)
				}
				s.Key = append(s.Key, ptr)
			}
		case "delete":
			if v.Type != ir.BoolType {
				return nil, fmt.Errorf("reduce delete must be a boolean")
			}
			s.Delete = v.Bool
		case "associative":
			if kind != LastWriteWins {
				return nil, fmt.Errorf("strategy %s does not take associative", kind)
			}
			if v.Type != ir.BoolType {
				return nil, fmt.Errorf("reduce associative must be a boolean")
			}
			s.Associative = v.Bool
		default:
			return nil, fmt.Errorf("unknown reduce annotation field %q", f.String)
		}
	}
	return s, nil
}

// RedactStrategyKind names one redaction behavior.
type RedactStrategyKind int

const (
	// Block removes the subtree entirely.
	Block RedactStrategyKind = iota
	// Sha256 replaces the subtree with a salted content digest.
	Sha256
)

func (k RedactStrategyKind) String() string {
	switch k {
	case Block:
		return "block"
	case Sha256:
		return "sha256"
	}
	return "invalid"
}

// RedactStrategy is a parsed `redact` annotation.
type RedactStrategy struct {
	Kind RedactStrategyKind
}

func parseRedactStrategy(n *ir.Node) (*RedactStrategy, error) {
	name := n
	if n.Type == ir.ObjectType {
		name = ir.Get(n, "strategy")
		if name == nil {
			return nil, fmt.Errorf("redact annotation requires a \"strategy\" string")
		}
		for _, f := range n.Fields {
			if f.String != "strategy" {
				return nil, fmt.Errorf("unknown redact annotation field %q", f.String)
			}
		}
	}
	if name.Type != ir.StringType {
		return nil, fmt.Errorf("redact strategy must be a string, not %s", name.Type)
	}
	switch name.String {
	case "block":
		return &RedactStrategy{Kind: Block}, nil
	case "sha256":
		return &RedactStrategy{Kind: Sha256}, nil
	}
	return nil, fmt.Errorf("unknown redact strategy %q", name.String)
}
