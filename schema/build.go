package schema

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// Build compiles a bundled schema document rooted at uri. All nested
// sub-schemas compile with it; malformed keywords and
// self-contradictory annotations fail here, before any document is
// processed.
func Build(uri string, node *ir.Node) (*Schema, error) {
	base, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: bad schema URI %q: %v", ErrBuild, uri, err)
	}
	b := &builder{}
	s, err := b.build(base, node)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuild, err)
	}
	return s, nil
}

type builder struct{}

func (b *builder) build(curi *url.URL, node *ir.Node) (*Schema, error) {
	// Boolean schemas: true admits anything, false admits nothing.
	if node.Type == ir.BoolType {
		s := &Schema{CanonicalURI: curi.String(), Types: AnySet}
		if !node.Bool {
			s.Types = InvalidSet
		}
		return s, nil
	}
	if node.Type != ir.ObjectType {
		return nil, fmt.Errorf("schema at %s must be an object or boolean, not %s", curi, node.Type)
	}

	// A nested $id re-roots the canonical URI.
	if id := ir.Get(node, "$id"); id != nil {
		if id.Type != ir.StringType {
			return nil, fmt.Errorf("$id at %s must be a string", curi)
		}
		ref, err := url.Parse(id.String)
		if err != nil {
			return nil, fmt.Errorf("bad $id %q at %s: %v", id.String, curi, err)
		}
		curi = curi.ResolveReference(ref)
	}

	s := &Schema{CanonicalURI: curi.String(), Types: AnySet}

	for i, f := range node.Fields {
		v := node.Values[i]
		kw := f.String
		var err error
		switch kw {
		case "$id", "$schema", "$comment":
			// $id handled above; the others carry no semantics here.
		case "$anchor":
			err = b.anchor(s, curi, v)
		case "$ref":
			err = b.ref(s, curi, v)
		case "$defs", "definitions":
			err = b.defs(s, curi, kw, v)
		case "type":
			s.Types, err = parseTypes(v)
		case "const":
			s.Const = v.Clone()
		case "enum":
			if v.Type != ir.ArrayType {
				err = fmt.Errorf("enum must be an array")
				break
			}
			for _, e := range v.Values {
				s.Enum = append(s.Enum, e.Clone())
			}
		case "required":
			s.Required, err = parseStringArray(v)
		case "properties":
			err = b.properties(s, curi, v)
		case "patternProperties":
			err = b.patternProperties(s, curi, v)
		case "additionalProperties":
			s.AdditionalProps, err = b.build(extendFragment(curi, kw), v)
		case "items":
			err = b.items(s, curi, v)
		case "additionalItems":
			s.AdditionalItems, err = b.build(extendFragment(curi, kw), v)
		case "allOf":
			s.AllOf, err = b.schemaArray(curi, kw, v)
		case "anyOf":
			s.AnyOf, err = b.schemaArray(curi, kw, v)
		case "oneOf":
			s.OneOf, err = b.schemaArray(curi, kw, v)
		case "not":
			s.Not, err = b.build(extendFragment(curi, kw), v)
		case "if":
			s.If, err = b.build(extendFragment(curi, kw), v)
		case "then":
			s.Then, err = b.build(extendFragment(curi, kw), v)
		case "else":
			s.Else, err = b.build(extendFragment(curi, kw), v)
		case "minItems":
			s.MinItems, err = parseCount(v)
		case "maxItems":
			s.MaxItems, err = parseCount(v)
		case "minProperties":
			s.MinProperties, err = parseCount(v)
		case "maxProperties":
			s.MaxProperties, err = parseCount(v)
		case "minLength":
			s.MinLength, err = parseCount(v)
		case "maxLength":
			s.MaxLength, err = parseCount(v)
		case "pattern":
			if v.Type != ir.StringType {
				err = fmt.Errorf("pattern must be a string")
				break
			}
			s.PatternSource = v.String
			s.Pattern, err = regexp.Compile(v.String)
		case "minimum":
			s.Minimum, err = parseDecimal(v)
		case "maximum":
			s.Maximum, err = parseDecimal(v)
		case "exclusiveMinimum":
			s.ExclusiveMin, err = parseDecimal(v)
		case "exclusiveMaximum":
			s.ExclusiveMax, err = parseDecimal(v)
		case "multipleOf":
			s.MultipleOf, err = parseDecimal(v)
			if err == nil && s.MultipleOf.IsZero() {
				err = fmt.Errorf("multipleOf must be non-zero")
			}
		case "format":
			if v.Type != ir.StringType {
				err = fmt.Errorf("format must be a string")
				break
			}
			s.Format = Format(v.String)
		case "title":
			if v.Type == ir.StringType {
				s.Title = v.String
			}
		case "description":
			if v.Type == ir.StringType {
				s.Description = v.String
			}
		case "default":
			s.Default = v.Clone()
		case "reduce":
			s.Reduce, err = parseStrategy(v)
		case "redact":
			s.Redact, err = parseRedactStrategy(v)
		default:
			if strings.HasPrefix(kw, "x-") {
				if s.Extra == nil {
					s.Extra = map[string]*ir.Node{}
				}
				s.Extra[kw] = v.Clone()
			}
			// Unknown keywords without the x- prefix are ignored, as
			// annotation-only vocabularies require.
		}
		if err != nil {
			return nil, fmt.Errorf("at %s, keyword %q: %v", curi, kw, err)
		}
	}

	for _, p := range s.Properties {
		p.Required = s.IsRequired(p.Name)
	}
	if err := checkAnnotations(s, curi); err != nil {
		return nil, err
	}
	return s, nil
}

// checkAnnotations rejects self-contradictory annotation usage at
// build time.
func checkAnnotations(s *Schema, curi *url.URL) error {
	if s.Reduce == nil {
		return nil
	}
	switch s.Reduce.Kind {
	case Set:
		for _, p := range s.Properties {
			switch p.Name {
			case "add", "intersect", "remove":
			default:
				return fmt.Errorf("at %s: set reduction admits only add, intersect and remove properties, not %q", curi, p.Name)
			}
		}
	case Sum:
		if s.Types != AnySet && !s.Types.Overlaps(NumberSet|NullSet) {
			return fmt.Errorf("at %s: sum reduction requires a numeric location, not %s", curi, s.Types)
		}
	case Append:
		if s.Types != AnySet && !s.Types.Overlaps(ArraySet|NullSet) {
			return fmt.Errorf("at %s: append reduction requires an array location, not %s", curi, s.Types)
		}
	}
	if len(s.Reduce.Key) > 0 {
		var roots []*Schema
		switch s.Reduce.Kind {
		case Minimize, Maximize:
			roots = []*Schema{s}
		case Merge:
			if s.Items != nil {
				roots = []*Schema{s.Items}
			}
		case Set:
			if s.Items != nil {
				roots = append(roots, s.Items)
			}
			for _, name := range []string{"add", "intersect", "remove"} {
				if p := s.Property(name); p != nil && p.Items != nil {
					roots = append(roots, p.Items)
				}
			}
		}
		for _, root := range roots {
			for _, key := range s.Reduce.Key {
				if err := checkKey(root, key, curi); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkKey verifies that a reduce key pointer addresses a location the
// given member schema can yield a scalar from. Unconstrained structure
// passes; only what the schema itself rules out is rejected.
func checkKey(t *Schema, key ir.Pointer, curi *url.URL) error {
	for _, tok := range key {
		if t == nil {
			return nil
		}
		if tok.Kind != ir.PropertyToken && tok.Kind != ir.IndexToken {
			return fmt.Errorf("at %s: reduce key %s must address a fixed location", curi, key)
		}
		next, ok := keyStep(t, tok)
		if !ok {
			return fmt.Errorf("at %s: reduce key %s addresses no location the schema admits", curi, key)
		}
		t = next
	}
	const scalarSet = NullSet | BooleanSet | NumberSet | StringSet
	if t != nil && t.Types != AnySet && !t.Types.Overlaps(scalarSet) {
		return fmt.Errorf("at %s: reduce key %s must address a scalar location, not %s", curi, key, t.Types)
	}
	return nil
}

// keyStep resolves one key token against t. A nil result with ok means
// the structure is not declared far enough to check.
func keyStep(t *Schema, tok ir.Token) (*Schema, bool) {
	if next := t.Property(tok.Field); next != nil {
		return next, true
	}
	if tok.Kind == ir.IndexToken {
		if next := t.ItemSchema(tok.Index); next != nil {
			return next, true
		}
	}
	for _, p := range t.PatternProps {
		if p.Pattern.MatchString(tok.Field) {
			return p.Schema, true
		}
	}
	if t.AdditionalProps != nil {
		if t.AdditionalProps.Types == InvalidSet && t.Types == ObjectSet {
			return nil, false
		}
		return t.AdditionalProps, true
	}
	return nil, true
}

func (b *builder) anchor(s *Schema, curi *url.URL, v *ir.Node) error {
	if v.Type != ir.StringType || v.String == "" {
		return fmt.Errorf("$anchor must be a non-empty string")
	}
	anchored := *curi
	anchored.Fragment = v.String
	s.Anchor = anchored.String()
	return nil
}

func (b *builder) ref(s *Schema, curi *url.URL, v *ir.Node) error {
	if v.Type != ir.StringType {
		return fmt.Errorf("$ref must be a string")
	}
	ref, err := url.Parse(v.String)
	if err != nil {
		return fmt.Errorf("bad $ref %q: %v", v.String, err)
	}
	// Resolve against the containing document, not the sub-schema:
	// ResolveReference would carry the base fragment into a
	// fragment-only ref like "#", pointing the ref back at itself.
	base := *curi
	base.Fragment = ""
	base.RawFragment = ""
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ref.Fragment
	resolved.RawFragment = ref.RawFragment
	s.Ref = resolved.String()
	return nil
}

func (b *builder) defs(s *Schema, curi *url.URL, kw string, v *ir.Node) error {
	if v.Type != ir.ObjectType {
		return fmt.Errorf("%s must be an object", kw)
	}
	if s.Defs == nil {
		s.Defs = map[string]*Schema{}
	}
	for i, f := range v.Fields {
		sub, err := b.build(extendFragment(curi, kw, f.String), v.Values[i])
		if err != nil {
			return err
		}
		s.Defs[f.String] = sub
	}
	return nil
}

func (b *builder) properties(s *Schema, curi *url.URL, v *ir.Node) error {
	if v.Type != ir.ObjectType {
		return fmt.Errorf("properties must be an object")
	}
	for i, f := range v.Fields {
		sub, err := b.build(extendFragment(curi, "properties", f.String), v.Values[i])
		if err != nil {
			return err
		}
		s.Properties = append(s.Properties, &Property{Name: f.String, Schema: sub})
	}
	return nil
}

func (b *builder) patternProperties(s *Schema, curi *url.URL, v *ir.Node) error {
	if v.Type != ir.ObjectType {
		return fmt.Errorf("patternProperties must be an object")
	}
	for i, f := range v.Fields {
		re, err := regexp.Compile(f.String)
		if err != nil {
			return fmt.Errorf("bad property pattern %q: %v", f.String, err)
		}
		sub, err := b.build(extendFragment(curi, "patternProperties", f.String), v.Values[i])
		if err != nil {
			return err
		}
		s.PatternProps = append(s.PatternProps, &PatternProperty{
			Source:  f.String,
			Pattern: re,
			Schema:  sub,
		})
	}
	return nil
}

func (b *builder) items(s *Schema, curi *url.URL, v *ir.Node) error {
	if v.Type == ir.ArrayType {
		for i, item := range v.Values {
			sub, err := b.build(extendFragment(curi, "items", fmt.Sprintf("%d", i)), item)
			if err != nil {
				return err
			}
			s.TupleItems = append(s.TupleItems, sub)
		}
		return nil
	}
	sub, err := b.build(extendFragment(curi, "items"), v)
	if err != nil {
		return err
	}
	s.Items = sub
	return nil
}

func (b *builder) schemaArray(curi *url.URL, kw string, v *ir.Node) ([]*Schema, error) {
	if v.Type != ir.ArrayType {
		return nil, fmt.Errorf("%s must be an array", kw)
	}
	var out []*Schema
	for i, item := range v.Values {
		sub, err := b.build(extendFragment(curi, kw, fmt.Sprintf("%d", i)), item)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// extendFragment extends a canonical URI's JSON-pointer fragment by
// the given tokens.
func extendFragment(curi *url.URL, tokens ...string) *url.URL {
	out := *curi
	frag := out.Fragment
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, "~", "~0")
		tok = strings.ReplaceAll(tok, "/", "~1")
		frag += "/" + tok
	}
	out.Fragment = frag
	return &out
}

func parseTypes(v *ir.Node) (TypeSet, error) {
	one := func(n *ir.Node) (TypeSet, error) {
		if n.Type != ir.StringType {
			return 0, fmt.Errorf("type must name a type")
		}
		switch n.String {
		case "null":
			return NullSet, nil
		case "boolean":
			return BooleanSet, nil
		case "integer":
			return IntegerSet, nil
		case "number":
			return NumberSet, nil
		case "string":
			return StringSet, nil
		case "array":
			return ArraySet, nil
		case "object":
			return ObjectSet, nil
		}
		return 0, fmt.Errorf("unknown type %q", n.String)
	}
	if v.Type == ir.ArrayType {
		var set TypeSet
		for _, n := range v.Values {
			s, err := one(n)
			if err != nil {
				return 0, err
			}
			set |= s
		}
		return set, nil
	}
	return one(v)
}

func parseStringArray(v *ir.Node) ([]string, error) {
	if v.Type != ir.ArrayType {
		return nil, fmt.Errorf("expected an array of strings")
	}
	var out []string
	for _, n := range v.Values {
		if n.Type != ir.StringType {
			return nil, fmt.Errorf("expected an array of strings")
		}
		out = append(out, n.String)
	}
	return out, nil
}

func parseCount(v *ir.Node) (*int, error) {
	if v.Type != ir.NumberType || v.Int64 == nil || *v.Int64 < 0 {
		return nil, fmt.Errorf("expected a non-negative integer")
	}
	i := int(*v.Int64)
	return &i, nil
}

func parseDecimal(v *ir.Node) (*apd.Decimal, error) {
	if v.Type != ir.NumberType {
		return nil, fmt.Errorf("expected a number")
	}
	return v.Decimal()
}
