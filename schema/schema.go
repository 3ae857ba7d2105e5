package schema

import (
	"regexp"

	"github.com/cockroachdb/apd/v3"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// TypeSet is a bitmask of document types a schema admits. Integer and
// fractional are tracked separately so that "integer" can admit any
// numeric representation whose fractional part is exactly zero.
type TypeSet uint16

const (
	NullSet TypeSet = 1 << iota
	BooleanSet
	IntegerSet
	FractionalSet
	StringSet
	ArraySet
	ObjectSet

	NumberSet = IntegerSet | FractionalSet
	AnySet    = NullSet | BooleanSet | NumberSet | StringSet | ArraySet | ObjectSet
	// InvalidSet admits nothing (the `false` schema).
	InvalidSet TypeSet = 0
)

// Overlaps reports whether the sets share any type.
func (s TypeSet) Overlaps(o TypeSet) bool { return s&o != 0 }

func (s TypeSet) String() string {
	if s == AnySet {
		return "any"
	}
	names := []struct {
		bit  TypeSet
		name string
	}{
		{NullSet, "null"},
		{BooleanSet, "boolean"},
		{NumberSet, "number"},
		{IntegerSet, "integer"},
		{FractionalSet, "fractional"},
		{StringSet, "string"},
		{ArraySet, "array"},
		{ObjectSet, "object"},
	}
	out := ""
	rem := s
	for _, n := range names {
		if rem&n.bit == n.bit && n.bit != 0 {
			if out != "" {
				out += ","
			}
			out += n.name
			rem &^= n.bit
		}
	}
	if out == "" {
		return "invalid"
	}
	return out
}

// TypeSetOf returns the set bit of a concrete node. Numbers with a
// zero fractional part are IntegerSet regardless of representation.
func TypeSetOf(n *ir.Node) TypeSet {
	switch n.Type {
	case ir.NullType:
		return NullSet
	case ir.BoolType:
		return BooleanSet
	case ir.NumberType:
		if n.IsInt() {
			return IntegerSet
		}
		return FractionalSet
	case ir.StringType:
		return StringSet
	case ir.ArrayType:
		return ArraySet
	case ir.ObjectType:
		return ObjectSet
	}
	return InvalidSet
}

// Property is one named member schema of an object schema.
type Property struct {
	Name     string
	Schema   *Schema
	Required bool
}

// PatternProperty applies a member schema to property names matching
// Pattern.
type PatternProperty struct {
	Source  string
	Pattern *regexp.Regexp
	Schema  *Schema
}

// Schema is one compiled schema: its assertions, applications over
// children and siblings, and annotations. A Schema always has a
// canonical URI; nested sub-schemas extend their parent's URI with a
// JSON-pointer fragment unless they declare an $id of their own.
type Schema struct {
	CanonicalURI string
	Anchor       string

	// Validation keywords. Nil pointers mean "not asserted".
	Types         TypeSet // AnySet when no type keyword
	Const         *ir.Node
	Enum          []*ir.Node
	Required      []string
	MinItems      *int
	MaxItems      *int
	MinProperties *int
	MaxProperties *int
	MinLength     *int
	MaxLength     *int
	Pattern       *regexp.Regexp
	PatternSource string
	Minimum       *apd.Decimal
	Maximum       *apd.Decimal
	ExclusiveMin  *apd.Decimal
	ExclusiveMax  *apd.Decimal
	MultipleOf    *apd.Decimal
	Format        Format

	// Application keywords.
	Ref             string
	Properties      []*Property
	PatternProps    []*PatternProperty
	AdditionalProps *Schema
	Items           *Schema   // list form
	TupleItems      []*Schema // tuple form
	AdditionalItems *Schema
	AllOf           []*Schema
	AnyOf           []*Schema
	OneOf           []*Schema
	Not             *Schema
	If              *Schema
	Then            *Schema
	Else            *Schema
	Defs            map[string]*Schema

	// Annotation keywords.
	Title       string
	Description string
	Default     *ir.Node
	Reduce      *Strategy
	Redact      *RedactStrategy
	// Extra holds pass-through x-* annotations by keyword.
	Extra map[string]*ir.Node
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// IsRequired reports whether the named property is required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// ItemSchema returns the schema applied to array index i.
func (s *Schema) ItemSchema(i int) *Schema {
	if s.Items != nil {
		return s.Items
	}
	if i < len(s.TupleItems) {
		return s.TupleItems[i]
	}
	return s.AdditionalItems
}

// subSchemas returns every directly nested schema, for indexing.
func (s *Schema) subSchemas() []*Schema {
	var subs []*Schema
	add := func(ss ...*Schema) {
		for _, x := range ss {
			if x != nil {
				subs = append(subs, x)
			}
		}
	}
	for _, p := range s.Properties {
		add(p.Schema)
	}
	for _, p := range s.PatternProps {
		add(p.Schema)
	}
	add(s.AdditionalProps, s.Items, s.AdditionalItems, s.Not, s.If, s.Then, s.Else)
	add(s.TupleItems...)
	add(s.AllOf...)
	add(s.AnyOf...)
	add(s.OneOf...)
	for _, d := range s.Defs {
		add(d)
	}
	return subs
}
