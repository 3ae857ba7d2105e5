// Package extract pulls composite-key values out of documents.
//
// A key is an ordered sequence of pointers; extracting it yields a
// tuple that groups and orders documents in the combiner and matches
// items in keyed array reductions. Absent locations extract their
// schema default when configured, else null, so a missing field never
// breaks grouping.
package extract

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// Extractor extracts one key component.
type Extractor struct {
	Ptr ir.Pointer
	// Default is used when Ptr is absent from the document. Nil means
	// null.
	Default *ir.Node
}

// Extract returns the addressed value, the default when absent, else
// null. The returned node is shared with the document; callers clone
// before mutating.
func (e *Extractor) Extract(doc *ir.Node) *ir.Node {
	if v := e.Ptr.Query(doc); v != nil {
		return v
	}
	if e.Default != nil {
		return e.Default
	}
	return ir.Null()
}

// Tuple extracts a composite key as an array node, one element per
// pointer. Absent locations extract as null.
func Tuple(ptrs []ir.Pointer, doc *ir.Node) *ir.Node {
	vals := make([]*ir.Node, len(ptrs))
	for i, p := range ptrs {
		if v := p.Query(doc); v != nil {
			vals[i] = v.Clone()
		} else {
			vals[i] = ir.Null()
		}
	}
	return ir.FromSlice(vals)
}

// TupleWith extracts a composite key using per-component defaults.
func TupleWith(extractors []Extractor, doc *ir.Node) *ir.Node {
	vals := make([]*ir.Node, len(extractors))
	for i := range extractors {
		vals[i] = extractors[i].Extract(doc).Clone()
	}
	return ir.FromSlice(vals)
}

// UUIDTimestamp extracts the timestamp of a v1 UUID string node.
// Producers stamp documents with v1 UUIDs so stream order can be
// recovered after regrouping.
func UUIDTimestamp(n *ir.Node) (time.Time, error) {
	if n == nil || n.Type != ir.StringType {
		return time.Time{}, fmt.Errorf("%w: UUID location is not a string", ir.ErrType)
	}
	u, err := uuid.Parse(n.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad UUID %q: %w", n.String, err)
	}
	if u.Version() != 1 {
		return time.Time{}, fmt.Errorf("UUID %q is not version 1", n.String)
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), nil
}
