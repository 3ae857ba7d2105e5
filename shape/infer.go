package shape

import (
	"github.com/mergeflow/doc-format/go-doc/schema"
)

// Infer computes the shape a schema admits. Resolution of $ref targets
// goes through idx; inference is memoized by canonical URI, so it
// terminates on recursive schemas by treating a location under
// inference as unconstrained.
func Infer(s *schema.Schema, idx *schema.Index) *Shape {
	in := &inferrer{idx: idx, memo: map[string]*Shape{}}
	return in.infer(s)
}

type inferrer struct {
	idx  *schema.Index
	memo map[string]*Shape
}

func (in *inferrer) infer(s *schema.Schema) *Shape {
	if s == nil {
		return Any()
	}
	if sh, ok := in.memo[s.CanonicalURI]; ok {
		return sh
	}
	// Seed the memo before descending so recursive references resolve
	// to this shape rather than recursing forever. The placeholder is
	// unconstrained; it is overwritten in place below.
	sh := Any()
	in.memo[s.CanonicalURI] = sh

	// A bare $ref aliases its target's shape outright. This keeps
	// recursive schemas cyclic instead of cutting them off at the
	// unconstrained placeholder.
	if pureRef(s) {
		if target, err := in.idx.MustFetch(s.Ref); err == nil {
			t := in.infer(target)
			in.memo[s.CanonicalURI] = t
			*sh = *t
			return t
		}
	}

	res := in.self(s)
	for _, a := range s.AllOf {
		res = res.Intersect(in.infer(a))
	}
	if s.Ref != "" {
		if target, err := in.idx.MustFetch(s.Ref); err == nil {
			res = res.Intersect(in.infer(target))
		}
	}
	if s.If != nil && s.Then != nil && s.Else != nil {
		// Exactly one arm applies, so the location's shape is their
		// union. With a single arm nothing is guaranteed.
		res = res.Intersect(in.infer(s.Then).Widen(in.infer(s.Else)))
	}
	if len(s.AnyOf) > 0 {
		res = res.Intersect(in.widenAll(s.AnyOf))
	}
	if len(s.OneOf) > 0 {
		res = res.Intersect(in.widenAll(s.OneOf))
	}
	*sh = *res
	return sh
}

// pureRef reports whether s carries nothing but a $ref.
func pureRef(s *schema.Schema) bool {
	return s.Ref != "" &&
		s.Types == schema.AnySet &&
		s.Const == nil && len(s.Enum) == 0 && len(s.Required) == 0 &&
		len(s.Properties) == 0 && len(s.PatternProps) == 0 && s.AdditionalProps == nil &&
		s.Items == nil && len(s.TupleItems) == 0 && s.AdditionalItems == nil &&
		len(s.AllOf) == 0 && len(s.AnyOf) == 0 && len(s.OneOf) == 0 &&
		s.Not == nil && s.If == nil &&
		s.Title == "" && s.Description == "" && s.Default == nil &&
		s.Reduce == nil && s.Redact == nil
}

func (in *inferrer) widenAll(branches []*schema.Schema) *Shape {
	var out *Shape
	for _, b := range branches {
		bs := in.infer(b)
		if out == nil {
			out = bs
			continue
		}
		out = out.Widen(bs)
	}
	return out
}

// self builds the shape of the schema's own keywords, ignoring its
// boolean structure.
func (in *inferrer) self(s *schema.Schema) *Shape {
	sh := &Shape{
		Types:       s.Types,
		Title:       s.Title,
		Description: s.Description,
		Default:     s.Default,
		Reduce:      s.Reduce,
		Redact:      s.Redact,
	}
	if s.Const != nil {
		sh.Enum = append(sh.Enum, s.Const)
	} else if len(s.Enum) > 0 {
		sh.Enum = s.Enum
	}

	for _, p := range s.Properties {
		sh.setProperty(p.Name, in.infer(p.Schema), p.Required)
	}
	for _, p := range s.PatternProps {
		sh.Patterns = append(sh.Patterns, &PatternShape{
			Source:  p.Source,
			Pattern: p.Pattern,
			Shape:   in.infer(p.Schema),
		})
	}
	if s.AdditionalProps != nil {
		if s.AdditionalProps.Types == schema.InvalidSet {
			sh.Closed = true
		} else {
			sh.Additional = in.infer(s.AdditionalProps)
		}
	}
	for _, name := range s.Required {
		if _, ok := sh.Properties[name]; !ok {
			// Required without a declared schema: the member must
			// exist but takes whatever undeclared members may.
			sh.setProperty(name, sh.admissionShape(name), true)
		}
	}

	if s.Items != nil {
		sh.Items = in.infer(s.Items)
	}
	for _, t := range s.TupleItems {
		sh.Tuple = append(sh.Tuple, in.infer(t))
	}
	if s.Items == nil && s.AdditionalItems != nil {
		sh.Items = in.infer(s.AdditionalItems)
	}
	if s.MinItems != nil {
		sh.MinItems = *s.MinItems
	}
	return sh
}
