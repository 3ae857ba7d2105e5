package shape

import (
	"sort"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// Widen returns the union of two shapes: anything either admits, the
// result admits. Neither operand is modified.
func (sh *Shape) Widen(o *Shape) *Shape {
	out := &Shape{Types: sh.Types | o.Types}
	if sh.Enum != nil && o.Enum != nil {
		out.Enum = unionEnum(sh.Enum, o.Enum)
	}
	out.annotateFrom(sh)
	out.annotateFrom(o)

	for _, name := range unionKeys(sh.Properties, o.Properties) {
		a, aok := sh.Properties[name]
		b, bok := o.Properties[name]
		if !aok {
			a = sh.admissionShape(name)
		}
		if !bok {
			b = o.admissionShape(name)
		}
		out.setProperty(name, a.Widen(b), sh.Required[name] && o.Required[name] && aok && bok)
	}
	out.Patterns = unionPatterns(sh.Patterns, o.Patterns, (*Shape).Widen)
	out.Closed = sh.Closed && o.Closed
	switch {
	case sh.Additional != nil && o.Additional != nil:
		out.Additional = sh.Additional.Widen(o.Additional)
	case sh.Closed:
		out.Additional = o.Additional
	case o.Closed:
		out.Additional = sh.Additional
	}

	n := max(len(sh.Tuple), len(o.Tuple))
	for i := 0; i < n; i++ {
		a, _ := sh.itemAt(i)
		b, _ := o.itemAt(i)
		out.Tuple = append(out.Tuple, a.Widen(b))
	}
	if sh.Items != nil && o.Items != nil {
		out.Items = sh.Items.Widen(o.Items)
	}
	out.MinItems = min(sh.MinItems, o.MinItems)
	return out
}

// Intersect returns the meet of two shapes: only what both admit, the
// result admits. Neither operand is modified.
func (sh *Shape) Intersect(o *Shape) *Shape {
	out := &Shape{Types: sh.Types & o.Types}
	switch {
	case sh.Enum != nil && o.Enum != nil:
		out.Enum = intersectEnum(sh.Enum, o.Enum)
	case sh.Enum != nil:
		out.Enum = sh.Enum
	case o.Enum != nil:
		out.Enum = o.Enum
	}
	out.annotateFrom(sh)
	out.annotateFrom(o)

	for _, name := range unionKeys(sh.Properties, o.Properties) {
		a, aok := sh.Properties[name]
		b, bok := o.Properties[name]
		if !aok {
			a = sh.admissionShape(name)
		}
		if !bok {
			b = o.admissionShape(name)
		}
		out.setProperty(name, a.Intersect(b), sh.Required[name] || o.Required[name])
	}
	out.Patterns = unionPatterns(sh.Patterns, o.Patterns, (*Shape).Intersect)
	out.Closed = sh.Closed || o.Closed
	switch {
	case sh.Additional != nil && o.Additional != nil:
		out.Additional = sh.Additional.Intersect(o.Additional)
	case sh.Additional != nil:
		out.Additional = sh.Additional
	default:
		out.Additional = o.Additional
	}

	n := max(len(sh.Tuple), len(o.Tuple))
	for i := 0; i < n; i++ {
		a, _ := sh.itemAt(i)
		b, _ := o.itemAt(i)
		out.Tuple = append(out.Tuple, a.Intersect(b))
	}
	switch {
	case sh.Items != nil && o.Items != nil:
		out.Items = sh.Items.Intersect(o.Items)
	case sh.Items != nil:
		out.Items = sh.Items
	default:
		out.Items = o.Items
	}
	out.MinItems = max(sh.MinItems, o.MinItems)
	return out
}

// annotateFrom fills unset annotations, so the first operand carrying
// one wins.
func (sh *Shape) annotateFrom(o *Shape) {
	if sh.Title == "" {
		sh.Title = o.Title
	}
	if sh.Description == "" {
		sh.Description = o.Description
	}
	if sh.Default == nil {
		sh.Default = o.Default
	}
	if sh.Reduce == nil {
		sh.Reduce = o.Reduce
	}
	if sh.Redact == nil {
		sh.Redact = o.Redact
	}
}

func (sh *Shape) setProperty(name string, p *Shape, required bool) {
	if sh.Properties == nil {
		sh.Properties = map[string]*Shape{}
	}
	sh.Properties[name] = p
	if required {
		if sh.Required == nil {
			sh.Required = map[string]bool{}
		}
		sh.Required[name] = true
	}
}

func unionKeys(a, b map[string]*Shape) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func unionPatterns(a, b []*PatternShape, combine func(*Shape, *Shape) *Shape) []*PatternShape {
	var out []*PatternShape
	matched := map[string]bool{}
	for _, pa := range a {
		merged := pa
		for _, pb := range b {
			if pb.Source == pa.Source {
				merged = &PatternShape{Source: pa.Source, Pattern: pa.Pattern, Shape: combine(pa.Shape, pb.Shape)}
				matched[pa.Source] = true
				break
			}
		}
		out = append(out, merged)
	}
	for _, pb := range b {
		if !matched[pb.Source] {
			out = append(out, pb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func unionEnum(a, b []*ir.Node) []*ir.Node {
	out := append([]*ir.Node{}, a...)
	for _, v := range b {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func intersectEnum(a, b []*ir.Node) []*ir.Node {
	out := []*ir.Node{}
	for _, v := range a {
		if containsValue(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsValue(vs []*ir.Node, v *ir.Node) bool {
	for _, x := range vs {
		if ir.Compare(x, v) == 0 {
			return true
		}
	}
	return false
}
