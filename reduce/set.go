package reduce

import (
	"github.com/mergeflow/doc-format/go-doc/extract"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

// A set location is an object holding at most "add", "intersect" and
// "remove" terms, each an object of members keyed by property or an
// array of members ordered by the strategy key. Reductions apply set
// algebra:
//
//	add       = ((lhs.add ∩ rhs.intersect) or (lhs.add − rhs.remove)) ∪ rhs.add
//	intersect = lhs.intersect ∩ rhs.intersect
//	remove    = lhs.remove ∪ rhs.remove
//
// Additions deep-merge member values. A full reduction prunes the
// intersect and remove bookkeeping, leaving only the accumulated add
// term.
func (r *reducer) set(s *schema.Strategy, lhs, rhs *ir.Node) (*ir.Node, bool, error) {
	rp, err := destructureSet(rhs)
	if err != nil {
		return nil, false, err
	}
	var lp *setParts
	if lhs != nil {
		lp, err = destructureSet(lhs)
		if err != nil {
			if !r.full {
				return nil, false, errf(NotAssociative, "left operand is not a set document")
			}
			lp = &setParts{}
		}
	} else {
		lp = &setParts{}
	}

	out := &ir.Node{Type: ir.ObjectType}

	add := lp.add
	switch {
	case rp.intersect != nil:
		add = r.setJoin(s, add, rp.intersect, keepBoth)
	case rp.remove != nil:
		add = r.setJoin(s, add, rp.remove, keepLeftOnly)
	}
	add = r.setJoin(s, add, rp.add, keepAllMergeRight)
	if add != nil {
		out.SetField("add", add)
	}

	if !r.full {
		if isect := r.setJoin(s, lp.intersect, rp.intersect, keepBothOrOnly); isect != nil {
			out.SetField("intersect", isect)
		}
		if rem := r.setJoin(s, lp.remove, rp.remove, keepAllMergeRight); rem != nil {
			out.SetField("remove", rem)
		}
	}
	return out, s.Delete, nil
}

type setParts struct {
	add       *ir.Node
	intersect *ir.Node
	remove    *ir.Node
}

func destructureSet(n *ir.Node) (*setParts, error) {
	if n.Type != ir.ObjectType {
		return nil, errf(TypeMismatch, "set document must be an object, not %s", n.Type)
	}
	p := &setParts{}
	var form ir.Type
	for i, f := range n.Fields {
		v := n.Values[i]
		switch f.String {
		case "add":
			p.add = v
		case "intersect":
			p.intersect = v
		case "remove":
			p.remove = v
		default:
			return nil, errf(TypeMismatch, "set document admits only add, intersect and remove, not %q", f.String)
		}
		if v.Type != ir.ObjectType && v.Type != ir.ArrayType {
			return nil, errf(TypeMismatch, "set term %q must be an object or array, not %s", f.String, v.Type)
		}
		if form == 0 {
			form = v.Type
		} else if form != v.Type {
			return nil, errf(TypeMismatch, "set terms mix object and array forms")
		}
	}
	if p.intersect != nil && p.remove != nil {
		return nil, errf(TypeMismatch, "set document holds both intersect and remove")
	}
	return p, nil
}

// joinMode selects which members a set join keeps.
type joinMode int

const (
	// keepBoth keeps members present on both sides (intersection),
	// with the left value.
	keepBoth joinMode = iota
	// keepLeftOnly keeps members present only on the left (difference).
	keepLeftOnly
	// keepAllMergeRight keeps every member, deep-merging the right
	// value over matching left members (union).
	keepAllMergeRight
	// keepBothOrOnly is intersection, or the one present side when the
	// other is absent entirely.
	keepBothOrOnly
)

// setJoin joins two set terms of matching form. Either side may be nil
// (absent).
func (r *reducer) setJoin(s *schema.Strategy, a, b *ir.Node, mode joinMode) *ir.Node {
	if a == nil && b == nil {
		return nil
	}
	if a == nil {
		switch mode {
		case keepAllMergeRight, keepBothOrOnly:
			return detached(b)
		}
		return nil
	}
	if b == nil {
		switch mode {
		case keepLeftOnly, keepAllMergeRight, keepBothOrOnly:
			return detached(a)
		}
		return nil
	}
	if mode == keepBothOrOnly {
		mode = keepBoth
	}

	if a.Type == ir.ObjectType {
		out := &ir.Node{Type: ir.ObjectType}
		ai, bi := 0, 0
		for ai < len(a.Fields) || bi < len(b.Fields) {
			var c int
			switch {
			case ai == len(a.Fields):
				c = 1
			case bi == len(b.Fields):
				c = -1
			default:
				c = ir.Compare(a.Fields[ai], b.Fields[bi])
			}
			switch {
			case c < 0:
				if mode != keepBoth {
					out.SetField(a.Fields[ai].String, detached(a.Values[ai]))
				}
				ai++
			case c > 0:
				if mode == keepAllMergeRight {
					out.SetField(b.Fields[bi].String, detached(b.Values[bi]))
				}
				bi++
			default:
				switch mode {
				case keepBoth:
					out.SetField(a.Fields[ai].String, detached(a.Values[ai]))
				case keepAllMergeRight:
					out.SetField(a.Fields[ai].String, mergeKeepRight(a.Values[ai], b.Values[bi]))
				}
				ai++
				bi++
			}
		}
		return out
	}

	// Array form: members ordered by extracted key.
	key := func(n *ir.Node) *ir.Node {
		if len(s.Key) == 0 {
			return n
		}
		return extract.Tuple(s.Key, n)
	}
	out := &ir.Node{Type: ir.ArrayType}
	ai, bi := 0, 0
	for ai < len(a.Values) || bi < len(b.Values) {
		var c int
		switch {
		case ai == len(a.Values):
			c = 1
		case bi == len(b.Values):
			c = -1
		default:
			c = ir.Compare(key(a.Values[ai]), key(b.Values[bi]))
		}
		switch {
		case c < 0:
			if mode != keepBoth {
				out.Append(detached(a.Values[ai]))
			}
			ai++
		case c > 0:
			if mode == keepAllMergeRight {
				out.Append(detached(b.Values[bi]))
			}
			bi++
		default:
			switch mode {
			case keepBoth:
				out.Append(detached(a.Values[ai]))
			case keepAllMergeRight:
				out.Append(mergeKeepRight(a.Values[ai], b.Values[bi]))
			}
			ai++
			bi++
		}
	}
	return out
}

// mergeKeepRight unions two trees, preferring right scalars.
func mergeKeepRight(lhs, rhs *ir.Node) *ir.Node {
	if lhs.Type != ir.ObjectType || rhs.Type != ir.ObjectType {
		return detached(rhs)
	}
	out := &ir.Node{Type: ir.ObjectType}
	li, ri := 0, 0
	for li < len(lhs.Fields) || ri < len(rhs.Fields) {
		switch {
		case ri == len(rhs.Fields) || (li < len(lhs.Fields) && lhs.Fields[li].String < rhs.Fields[ri].String):
			out.SetField(lhs.Fields[li].String, detached(lhs.Values[li]))
			li++
		case li == len(lhs.Fields) || lhs.Fields[li].String > rhs.Fields[ri].String:
			out.SetField(rhs.Fields[ri].String, detached(rhs.Values[ri]))
			ri++
		default:
			out.SetField(lhs.Fields[li].String, mergeKeepRight(lhs.Values[li], rhs.Values[ri]))
			li++
			ri++
		}
	}
	return out
}
