// Package shape computes, without evaluating any document, what a
// schema admits at every location: possible types, a closed literal
// domain when one exists, nested member shapes and annotation values.
//
// Shapes feed catalog-time checks and documentation generation. They
// are an over-approximation: a document admitted by the schema always
// fits the shape, but fitting the shape does not imply validity.
package shape

import (
	"regexp"

	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

// Exists grades how certainly a location is present in a conformant
// document, from Must down to Cannot.
type Exists int

const (
	// Must marks a location every conformant document carries.
	Must Exists = iota
	// May marks a location documents are free to carry or omit.
	May
	// Implicit marks a location that has no concrete name of its own:
	// it is admitted through a pattern, additional members or
	// open-ended array items.
	Implicit
	// Cannot marks a location no conformant document carries.
	Cannot
)

func (e Exists) String() string {
	switch e {
	case Must:
		return "must"
	case May:
		return "may"
	case Implicit:
		return "implicit"
	case Cannot:
		return "cannot"
	}
	return "invalid"
}

// Extend composes existence along a path: a child exists no more
// certainly than its parent.
func (e Exists) Extend(child Exists) Exists {
	if e == Cannot || child == Cannot {
		return Cannot
	}
	return max(e, child)
}

// PatternShape is the shape of members whose names match Pattern.
type PatternShape struct {
	Source  string
	Pattern *regexp.Regexp
	Shape   *Shape
}

// Shape describes one location. The zero value admits nothing; Any()
// admits everything.
type Shape struct {
	Types schema.TypeSet
	// Enum is the closed literal domain, nil when the domain is open.
	Enum []*ir.Node

	Title       string
	Description string
	Default     *ir.Node
	Reduce      *schema.Strategy
	Redact      *schema.RedactStrategy

	// Object members.
	Properties map[string]*Shape
	Required   map[string]bool
	Patterns   []*PatternShape
	// Additional is the shape of undeclared members; nil admits them
	// unconstrained unless Closed.
	Additional *Shape
	Closed     bool

	// Array members. Tuple constrains leading positions; Items the
	// rest (or all, in list form).
	Tuple    []*Shape
	Items    *Shape
	MinItems int
}

// Any is the unconstrained shape.
func Any() *Shape {
	return &Shape{Types: schema.AnySet}
}

// admission returns the shape of an undeclared member name.
func (sh *Shape) admission(name string) (*Shape, Exists) {
	for _, p := range sh.Patterns {
		if p.Pattern.MatchString(name) {
			return p.Shape, Implicit
		}
	}
	if sh.Closed {
		return &Shape{}, Cannot
	}
	if sh.Additional != nil {
		return sh.Additional, May
	}
	return Any(), May
}

func (sh *Shape) admissionShape(name string) *Shape {
	s, e := sh.admission(name)
	if e == Cannot {
		return &Shape{}
	}
	return s
}

// itemAt returns the shape of array position i.
func (sh *Shape) itemAt(i int) (*Shape, Exists) {
	e := May
	if i < sh.MinItems {
		e = Must
	}
	if i < len(sh.Tuple) {
		return sh.Tuple[i], e
	}
	if sh.Items != nil {
		return sh.Items, e
	}
	return Any(), e
}

// Locate resolves a pointer against the shape, grading the existence
// of the addressed location in conformant documents.
func (sh *Shape) Locate(ptr ir.Pointer) (*Shape, Exists) {
	ex := Must
	for _, tok := range ptr {
		var step Exists
		sh, step = sh.child(tok)
		ex = ex.Extend(step)
		if ex == Cannot {
			return sh, Cannot
		}
	}
	return sh, ex
}

func (sh *Shape) child(tok ir.Token) (*Shape, Exists) {
	switch tok.Kind {
	case ir.PropertyToken:
		return sh.property(tok.Field)
	case ir.IndexToken:
		// An index addresses an object property of the same decimal
		// name when one is declared.
		if sh.Types.Overlaps(schema.ObjectSet) {
			if _, ok := sh.Properties[tok.Field]; ok {
				return sh.property(tok.Field)
			}
		}
		if !sh.Types.Overlaps(schema.ArraySet) {
			return &Shape{}, Cannot
		}
		return sh.itemAt(tok.Index)
	case ir.NextIndexToken:
		if !sh.Types.Overlaps(schema.ArraySet) {
			return &Shape{}, Cannot
		}
		s, _ := sh.itemAt(len(sh.Tuple))
		return s, Implicit
	case ir.NextPropertyToken:
		if !sh.Types.Overlaps(schema.ObjectSet) || sh.Closed {
			return &Shape{}, Cannot
		}
		if sh.Additional != nil {
			return sh.Additional, Implicit
		}
		return Any(), Implicit
	}
	return &Shape{}, Cannot
}

func (sh *Shape) property(name string) (*Shape, Exists) {
	if !sh.Types.Overlaps(schema.ObjectSet) {
		return &Shape{}, Cannot
	}
	if p, ok := sh.Properties[name]; ok {
		if sh.Required[name] {
			return p, Must
		}
		return p, May
	}
	return sh.admission(name)
}
