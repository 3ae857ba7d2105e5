package shape

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// Location is one row of a shape's flattened location table.
type Location struct {
	Ptr ir.Pointer
	// IsPattern marks pointers containing a pattern-property token,
	// which address name classes rather than one member.
	IsPattern bool
	Shape     *Shape
	Exists    Exists
}

// Locations flattens the shape pre-order into a deterministic table:
// the location itself, then properties sorted by name, pattern
// properties, the additional-member location, tuple items by index and
// finally the open items location. Recursive shapes emit each cycle
// once.
func (sh *Shape) Locations() []Location {
	var out []Location
	onPath := map[*Shape]bool{}

	var walk func(ptr ir.Pointer, isPattern bool, sh *Shape, ex Exists)
	walk = func(ptr ir.Pointer, isPattern bool, sh *Shape, ex Exists) {
		out = append(out, Location{Ptr: ptr, IsPattern: isPattern, Shape: sh, Exists: ex})
		if onPath[sh] {
			return
		}
		onPath[sh] = true
		defer delete(onPath, sh)

		names := make([]string, 0, len(sh.Properties))
		for name := range sh.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := May
			if sh.Required[name] {
				e = Must
			}
			walk(ptr.Push(ir.Token{Kind: ir.PropertyToken, Field: name}), isPattern, sh.Properties[name], ex.Extend(e))
		}
		for _, p := range sh.Patterns {
			walk(ptr.Push(ir.Token{Kind: ir.PropertyToken, Field: p.Source}), true, p.Shape, ex.Extend(Implicit))
		}
		if sh.Additional != nil && !sh.Closed {
			walk(ptr.Push(ir.Token{Kind: ir.NextPropertyToken}), isPattern, sh.Additional, ex.Extend(Implicit))
		}
		for i, t := range sh.Tuple {
			e := May
			if i < sh.MinItems {
				e = Must
			}
			walk(ptr.Push(ir.Token{Kind: ir.IndexToken, Field: strconv.Itoa(i), Index: i}), isPattern, t, ex.Extend(e))
		}
		if sh.Items != nil {
			walk(ptr.Push(ir.Token{Kind: ir.NextIndexToken}), isPattern, sh.Items, ex.Extend(Implicit))
		}
	}
	walk(nil, false, sh, Must)
	return out
}

// Table renders the location table as aligned text, one location per
// line, for display and golden tests.
func Table(locs []Location) string {
	var sb strings.Builder
	for _, l := range locs {
		ptr := l.Ptr.String()
		if ptr == "" {
			ptr = "/"
		}
		mark := " "
		if l.IsPattern {
			mark = "~"
		}
		fmt.Fprintf(&sb, "%-40s %s %-8s %s\n", ptr, mark, l.Exists, l.Shape.Types)
	}
	return sb.String()
}
