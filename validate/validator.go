// Package validate walks a document against a compiled schema,
// producing annotation outcomes tagged with tape-position spans.
//
// Tape positions count one per node in depth-first order; a
// container's span closes after all of its children. Because sibling
// spans never overlap and children nest strictly, outcomes of two
// independent walks over schema-conformant documents align
// positionally, which the reduce and redact engines rely on.
package validate

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/mergeflow/doc-format/go-doc/debug"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

// decCtx covers decimal comparisons well past float64 precision.
var decCtx = apd.BaseContext.WithPrecision(50)

// Validate walks doc against s. Annotations attach to a span when the
// producing schema's own assertions hold there, so an invalid document
// still yields diagnostic outcomes; callers gate on Result.Valid
// before reducing. Conflicting annotations at one span resolve to the
// first applicable branch in schema declaration order.
//
// The only Go error is an unresolvable $ref, which a reference-verified
// Index rules out.
func Validate(idx *schema.Index, s *schema.Schema, doc *ir.Node) (*Result, error) {
	v := &validator{idx: idx}
	valid, outcomes, err := v.eval(s, doc, 0, false)
	if err != nil {
		return nil, err
	}
	if debug.Validate() {
		debug.Logf("validate: valid=%v outcomes=%d errors=%d", valid, len(outcomes), len(v.errs))
	}
	return &Result{valid: valid, outcomes: outcomes, errors: v.errs}, nil
}

type validator struct {
	idx  *schema.Index
	errs []Error
}

func (v *validator) fail(spec bool, span Span, s *schema.Schema, keyword, format string, args ...any) bool {
	if !spec {
		v.errs = append(v.errs, Error{
			Span:      span,
			SchemaURI: s.CanonicalURI,
			Keyword:   keyword,
			Detail:    fmt.Sprintf(format, args...),
		})
	}
	return false
}

// eval validates n against s at tape position begin. spec marks
// speculative evaluation (anyOf arms, not, if) whose failures are not
// diagnostic. It returns validity and the annotation outcomes of valid
// scopes in depth-first, declaration order.
func (v *validator) eval(s *schema.Schema, n *ir.Node, begin int, spec bool) (bool, []Outcome, error) {
	span := Span{Begin: begin, End: begin + n.TapeLength(), Hashed: n.Hash()}

	ok := v.assert(s, n, span, spec)

	var outcomes []Outcome
	if ok {
		outcomes = v.annotate(s, span, nil)
	}

	// In-place applications.
	ref := func(sub *schema.Schema) error {
		subOK, subOut, err := v.eval(sub, n, begin, spec)
		if err != nil {
			return err
		}
		if subOK {
			outcomes = append(outcomes, subOut...)
		}
		ok = ok && subOK
		return nil
	}
	if s.Ref != "" {
		target, err := v.idx.MustFetch(s.Ref)
		if err != nil {
			return false, nil, fmt.Errorf("%w, referenced from %q", err, s.CanonicalURI)
		}
		if err := ref(target); err != nil {
			return false, nil, err
		}
	}
	for _, sub := range s.AllOf {
		if err := ref(sub); err != nil {
			return false, nil, err
		}
	}
	if len(s.AnyOf) > 0 {
		any := false
		for _, sub := range s.AnyOf {
			subOK, subOut, err := v.eval(sub, n, begin, true)
			if err != nil {
				return false, nil, err
			}
			if subOK {
				any = true
				outcomes = append(outcomes, subOut...)
			}
		}
		if !any {
			ok = v.fail(spec, span, s, "anyOf", "no branch matched") && ok
		}
	}
	if len(s.OneOf) > 0 {
		matched := 0
		var matchedOut []Outcome
		for _, sub := range s.OneOf {
			subOK, subOut, err := v.eval(sub, n, begin, true)
			if err != nil {
				return false, nil, err
			}
			if subOK {
				if matched == 0 {
					matchedOut = subOut
				}
				matched++
			}
		}
		switch matched {
		case 1:
			outcomes = append(outcomes, matchedOut...)
		case 0:
			ok = v.fail(spec, span, s, "oneOf", "no branch matched") && ok
		default:
			ok = v.fail(spec, span, s, "oneOf", "%d branches matched", matched) && ok
		}
	}
	if s.Not != nil {
		subOK, _, err := v.eval(s.Not, n, begin, true)
		if err != nil {
			return false, nil, err
		}
		if subOK {
			ok = v.fail(spec, span, s, "not", "negated schema matched") && ok
		}
	}
	if s.If != nil {
		condOK, _, err := v.eval(s.If, n, begin, true)
		if err != nil {
			return false, nil, err
		}
		branch := s.Then
		if !condOK {
			branch = s.Else
		}
		if branch != nil {
			if err := ref(branch); err != nil {
				return false, nil, err
			}
		}
	}

	// Child applications, in tape order.
	switch n.Type {
	case ir.ObjectType:
		childBegin := begin + 1
		for i, f := range n.Fields {
			child := n.Values[i]
			for _, sub := range v.childSchemas(s, f.String) {
				subOK, subOut, err := v.eval(sub, child, childBegin, spec)
				if err != nil {
					return false, nil, err
				}
				if subOK {
					outcomes = append(outcomes, subOut...)
				}
				ok = ok && subOK
			}
			childBegin += child.TapeLength()
		}
	case ir.ArrayType:
		childBegin := begin + 1
		for i, child := range n.Values {
			if sub := s.ItemSchema(i); sub != nil {
				subOK, subOut, err := v.eval(sub, child, childBegin, spec)
				if err != nil {
					return false, nil, err
				}
				if subOK {
					outcomes = append(outcomes, subOut...)
				}
				ok = ok && subOK
			}
			childBegin += child.TapeLength()
		}
	}

	return ok, outcomes, nil
}

// childSchemas returns the schemas applying to one named property:
// the declared property, every matching pattern property, and
// additionalProperties when nothing else applied.
func (v *validator) childSchemas(s *schema.Schema, name string) []*schema.Schema {
	var out []*schema.Schema
	if sub := s.Property(name); sub != nil {
		out = append(out, sub)
	}
	for _, pp := range s.PatternProps {
		if pp.Pattern.MatchString(name) {
			out = append(out, pp.Schema)
		}
	}
	if len(out) == 0 && s.AdditionalProps != nil {
		out = append(out, s.AdditionalProps)
	}
	return out
}

// assert checks s's own validation keywords against n.
func (v *validator) assert(s *schema.Schema, n *ir.Node, span Span, spec bool) bool {
	ok := true
	if s.Types != schema.AnySet && !s.Types.Overlaps(schema.TypeSetOf(n)) {
		ok = v.fail(spec, span, s, "type", "%s is not %s", schema.TypeSetOf(n), s.Types)
	}
	if s.Const != nil && ir.Compare(s.Const, n) != 0 {
		ok = v.fail(spec, span, s, "const", "value does not equal const") && ok
	}
	if s.Enum != nil {
		found := slices.ContainsFunc(s.Enum, func(e *ir.Node) bool {
			return ir.Compare(e, n) == 0
		})
		if !found {
			ok = v.fail(spec, span, s, "enum", "value is not in enum") && ok
		}
	}

	switch n.Type {
	case ir.NumberType:
		ok = v.assertNumber(s, n, span, spec) && ok
	case ir.StringType:
		runes := utf8.RuneCountInString(n.String)
		if s.MinLength != nil && runes < *s.MinLength {
			ok = v.fail(spec, span, s, "minLength", "%d < %d", runes, *s.MinLength) && ok
		}
		if s.MaxLength != nil && runes > *s.MaxLength {
			ok = v.fail(spec, span, s, "maxLength", "%d > %d", runes, *s.MaxLength) && ok
		}
		if s.Pattern != nil && !s.Pattern.MatchString(n.String) {
			ok = v.fail(spec, span, s, "pattern", "%q does not match %q", n.String, s.PatternSource) && ok
		}
		if s.Format != "" && !s.Format.Validate(n.String) {
			ok = v.fail(spec, span, s, "format", "%q is not a %s", n.String, s.Format) && ok
		}
	case ir.ArrayType:
		if s.MinItems != nil && len(n.Values) < *s.MinItems {
			ok = v.fail(spec, span, s, "minItems", "%d < %d", len(n.Values), *s.MinItems) && ok
		}
		if s.MaxItems != nil && len(n.Values) > *s.MaxItems {
			ok = v.fail(spec, span, s, "maxItems", "%d > %d", len(n.Values), *s.MaxItems) && ok
		}
	case ir.ObjectType:
		if s.MinProperties != nil && len(n.Fields) < *s.MinProperties {
			ok = v.fail(spec, span, s, "minProperties", "%d < %d", len(n.Fields), *s.MinProperties) && ok
		}
		if s.MaxProperties != nil && len(n.Fields) > *s.MaxProperties {
			ok = v.fail(spec, span, s, "maxProperties", "%d > %d", len(n.Fields), *s.MaxProperties) && ok
		}
		for _, req := range s.Required {
			if ir.Get(n, req) == nil {
				ok = v.fail(spec, span, s, "required", "missing property %q", req) && ok
			}
		}
	}
	return ok
}

func (v *validator) assertNumber(s *schema.Schema, n *ir.Node, span Span, spec bool) bool {
	if s.Minimum == nil && s.Maximum == nil && s.ExclusiveMin == nil &&
		s.ExclusiveMax == nil && s.MultipleOf == nil {
		return true
	}
	d, err := n.Decimal()
	if err != nil {
		return v.fail(spec, span, s, "number", "%v", err)
	}
	ok := true
	if s.Minimum != nil && d.Cmp(s.Minimum) < 0 {
		ok = v.fail(spec, span, s, "minimum", "%s < %s", d, s.Minimum) && ok
	}
	if s.Maximum != nil && d.Cmp(s.Maximum) > 0 {
		ok = v.fail(spec, span, s, "maximum", "%s > %s", d, s.Maximum) && ok
	}
	if s.ExclusiveMin != nil && d.Cmp(s.ExclusiveMin) <= 0 {
		ok = v.fail(spec, span, s, "exclusiveMinimum", "%s <= %s", d, s.ExclusiveMin) && ok
	}
	if s.ExclusiveMax != nil && d.Cmp(s.ExclusiveMax) >= 0 {
		ok = v.fail(spec, span, s, "exclusiveMaximum", "%s >= %s", d, s.ExclusiveMax) && ok
	}
	if s.MultipleOf != nil {
		// Decimal remainder avoids float drift on cases like 0.3 / 0.1.
		var rem apd.Decimal
		if _, err := decCtx.Rem(&rem, d, s.MultipleOf); err != nil || !rem.IsZero() {
			ok = v.fail(spec, span, s, "multipleOf", "%s is not a multiple of %s", d, s.MultipleOf) && ok
		}
	}
	return ok
}

// annotate emits s's annotation outcomes for span.
func (v *validator) annotate(s *schema.Schema, span Span, out []Outcome) []Outcome {
	add := func(o Outcome) {
		o.Span = span
		o.SchemaURI = s.CanonicalURI
		out = append(out, o)
	}
	if s.Reduce != nil {
		add(Outcome{Keyword: "reduce", Reduce: s.Reduce})
	}
	if s.Redact != nil {
		add(Outcome{Keyword: "redact", Redact: s.Redact})
	}
	if s.Title != "" {
		add(Outcome{Keyword: "title", Value: ir.FromString(s.Title)})
	}
	if s.Description != "" {
		add(Outcome{Keyword: "description", Value: ir.FromString(s.Description)})
	}
	if s.Default != nil {
		add(Outcome{Keyword: "default", Value: s.Default})
	}
	for _, kw := range slices.Sorted(maps.Keys(s.Extra)) {
		add(Outcome{Keyword: kw, Value: s.Extra[kw]})
	}
	return out
}
