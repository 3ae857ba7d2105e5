package validate

import (
	"fmt"

	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

// An Outcome is one annotation keyword's value attached to the Span it
// applies to. For the reduce and redact keywords the parsed form is
// carried directly; other annotations carry their raw value.
type Outcome struct {
	Span    Span
	Keyword string
	// SchemaURI is the canonical URI of the schema that produced the
	// annotation.
	SchemaURI string

	Reduce *schema.Strategy
	Redact *schema.RedactStrategy
	Value  *ir.Node
}

// An Error describes one failed assertion. Errors are diagnostic: an
// invalid document is an ordinary result, not a Go error.
type Error struct {
	Span      Span
	SchemaURI string
	Keyword   string
	Detail    string
}

func (e Error) String() string {
	return fmt.Sprintf("%s at tape %d: %s", e.Keyword, e.Span.Begin, e.Detail)
}

// Result is the product of one validation walk.
type Result struct {
	valid    bool
	outcomes []Outcome
	errors   []Error
}

// Valid reports whether the document satisfied the schema. Outcomes
// are produced either way, but callers must gate on Valid before
// trusting them for reduction.
func (r *Result) Valid() bool { return r.valid }

// Outcomes returns annotation outcomes in depth-first span order.
// Outcomes at one Span.Begin appear in first-applicable-branch order:
// when overlapping schema branches annotate the same span, the first
// outcome for a keyword is the one in effect.
func (r *Result) Outcomes() []Outcome { return r.outcomes }

// Errors returns failed assertions, empty when Valid.
func (r *Result) Errors() []Error { return r.errors }
