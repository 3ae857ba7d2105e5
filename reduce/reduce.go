// Package reduce merges documents location by location, guided by the
// reduce strategies recorded against the incoming document during
// validation.
//
// Reduce walks both trees positionally in the incoming document's tape
// order rather than re-matching structure; both operands are
// schema-conformant, so they are structurally isomorphic except where
// array strategies apply. Neither operand is mutated: results are
// built fresh, so the left operand may be a decoded view of an
// immutable archived document.
//
// Partial versus full reduction matters for associativity: tombstone
// pruning, lastWriteWins deletion and set bookkeeping pruning happen
// only under full reduction, so partial folds remain associative and
// can run in any grouping.
package reduce

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/mergeflow/doc-format/go-doc/debug"
	"github.com/mergeflow/doc-format/go-doc/extract"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
)

var decCtx = apd.BaseContext.WithPrecision(50)

// Reduce merges rhs ("incoming") into lhs ("into") per the strategies
// ann recorded against rhs. A nil lhs reduces as an absent left
// operand. full marks a full reduction: one whose lhs is the total
// reduction of all prior documents. The returned bool reports whether
// the result is itself a deletion, so callers prune rather than
// persist it.
func Reduce(lhs, rhs *ir.Node, ann *Annotations, full bool) (*ir.Node, bool, error) {
	r := &reducer{ann: ann, full: full}
	out, deleted, err := r.reduce(lhs, rhs, 0)
	if err != nil {
		return nil, false, err
	}
	if debug.Reduce() {
		debug.Logf("reduce: full=%v deleted=%v", full, deleted)
	}
	return out, deleted, nil
}

type reducer struct {
	ann  *Annotations
	full bool
}

func (r *reducer) reduce(lhs, rhs *ir.Node, tape int) (*ir.Node, bool, error) {
	s := r.ann.At(tape)
	if s == nil {
		s = schema.DefaultStrategy()
	}
	switch s.Kind {
	case schema.LastWriteWins:
		return r.lastWriteWins(s, lhs, rhs)
	case schema.FirstWriteWins:
		return r.firstWriteWins(s, lhs, rhs)
	case schema.Minimize:
		return r.extremum(s, lhs, rhs, tape, -1)
	case schema.Maximize:
		return r.extremum(s, lhs, rhs, tape, 1)
	case schema.Sum:
		return r.sum(lhs, rhs)
	case schema.Append:
		return r.appendArrays(lhs, rhs)
	case schema.Merge:
		return r.merge(s, lhs, rhs, tape)
	case schema.Set:
		return r.set(s, lhs, rhs)
	}
	return nil, false, errf(TypeMismatch, "unknown strategy %v", s.Kind)
}

func detached(n *ir.Node) *ir.Node {
	out := n.Clone()
	out.Parent = nil
	out.ParentIndex = 0
	out.ParentField = ""
	return out
}

func (r *reducer) lastWriteWins(s *schema.Strategy, lhs, rhs *ir.Node) (*ir.Node, bool, error) {
	if !s.Associative && !r.full && lhs != nil && ir.Compare(lhs, rhs) != 0 {
		return nil, false, errf(NotAssociative, "lastWriteWins location is marked non-associative")
	}
	return detached(rhs), s.Delete, nil
}

func (r *reducer) firstWriteWins(s *schema.Strategy, lhs, rhs *ir.Node) (*ir.Node, bool, error) {
	if lhs != nil {
		return detached(lhs), s.Delete, nil
	}
	return detached(rhs), s.Delete, nil
}

// extremum keeps the lesser (sign -1) or greater (sign +1) of the two
// operands. Ties favor the left value so repeated application of one
// value is stable; keyed ties deep-merge the incoming document under
// the winner.
func (r *reducer) extremum(s *schema.Strategy, lhs, rhs *ir.Node, tape int, sign int) (*ir.Node, bool, error) {
	if lhs == nil {
		return detached(rhs), false, nil
	}
	var c int
	if len(s.Key) == 0 {
		c = ir.Compare(lhs, rhs)
	} else {
		c = ir.Compare(extract.Tuple(s.Key, lhs), extract.Tuple(s.Key, rhs))
	}
	switch {
	case c*sign > 0:
		// lhs wins outright.
		return detached(lhs), false, nil
	case c != 0:
		return detached(rhs), false, nil
	case len(s.Key) == 0:
		return detached(lhs), false, nil
	}
	// Keyed tie: the operands represent the same entity. Deep-merge so
	// fields absent on one side survive, keeping left scalars.
	return mergeKeepLeft(lhs, rhs), false, nil
}

// mergeKeepLeft unions two trees, preferring left scalars.
func mergeKeepLeft(lhs, rhs *ir.Node) *ir.Node {
	if lhs.Type != ir.ObjectType || rhs.Type != ir.ObjectType {
		return detached(lhs)
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
			out.SetField(lhs.Fields[li].String, mergeKeepLeft(lhs.Values[li], rhs.Values[ri]))
			li++
			ri++
		}
	}
	return out
}

func (r *reducer) sum(lhs, rhs *ir.Node) (*ir.Node, bool, error) {
	if lhs == nil {
		lhs = ir.FromInt(0)
	}
	if lhs.Type != ir.NumberType || rhs.Type != ir.NumberType {
		return nil, false, errf(TypeMismatch, "sum of %s and %s", lhs.Type, rhs.Type)
	}
	switch {
	case lhs.Int64 != nil && rhs.Int64 != nil:
		a, b := *lhs.Int64, *rhs.Int64
		sum := a + b
		if (sum > a) == (b > 0) {
			return ir.FromInt(sum), false, nil
		}
		// int64 overflow promotes through arbitrary precision.
	case lhs.Number == "" && rhs.Number == "":
		a := numAsFloat(lhs)
		b := numAsFloat(rhs)
		sum := a + b
		if math.IsInf(sum, 0) {
			return nil, false, errf(SumNumericOverflow, "%v + %v overflows", a, b)
		}
		return ir.FromFloat(sum), false, nil
	}

	da, err := lhs.Decimal()
	if err != nil {
		return nil, false, errf(TypeMismatch, "sum: %v", err)
	}
	db, err := rhs.Decimal()
	if err != nil {
		return nil, false, errf(TypeMismatch, "sum: %v", err)
	}
	var sum apd.Decimal
	if _, err := decCtx.Add(&sum, da, db); err != nil {
		return nil, false, errf(SumNumericOverflow, "%s + %s: %v", da, db, err)
	}
	if i, err := sum.Int64(); err == nil {
		return ir.FromInt(i), false, nil
	}
	return ir.FromNumberString(sum.String()), false, nil
}

func numAsFloat(n *ir.Node) float64 {
	if n.Int64 != nil {
		return float64(*n.Int64)
	}
	return *n.Float64
}

func (r *reducer) appendArrays(lhs, rhs *ir.Node) (*ir.Node, bool, error) {
	if lhs != nil && lhs.Type == ir.NullType {
		// A null left operand marks an appended stream that was reset;
		// it stays null until explicitly rewritten.
		return ir.Null(), false, nil
	}
	if rhs.Type != ir.ArrayType {
		return nil, false, errf(TypeMismatch, "append of %s", rhs.Type)
	}
	if lhs == nil {
		return detached(rhs), false, nil
	}
	if lhs.Type != ir.ArrayType {
		return nil, false, errf(TypeMismatch, "append to %s", lhs.Type)
	}
	out := &ir.Node{Type: ir.ArrayType}
	for _, v := range lhs.Values {
		out.Append(detached(v))
	}
	for _, v := range rhs.Values {
		out.Append(detached(v))
	}
	return out, false, nil
}

func (r *reducer) merge(s *schema.Strategy, lhs, rhs *ir.Node, tape int) (*ir.Node, bool, error) {
	switch rhs.Type {
	case ir.ObjectType:
		out, err := r.mergeObjects(lhs, rhs, tape)
		return out, s.Delete, err
	case ir.ArrayType:
		out, err := r.mergeArrays(s, lhs, rhs, tape)
		return out, s.Delete, err
	}
	return nil, false, errf(TypeMismatch, "merge into %s", rhs.Type)
}

// typeSwitch handles lhs being a different container type than rhs: a
// partial reduction cannot fold it associatively, a full reduction
// restarts from the incoming document alone.
func (r *reducer) typeSwitch(lhs *ir.Node, want ir.Type) (*ir.Node, error) {
	if lhs == nil || lhs.Type == want {
		return lhs, nil
	}
	if !r.full {
		return nil, errf(NotAssociative, "merge of %s into %s", want, lhs.Type)
	}
	return nil, nil
}

func (r *reducer) mergeObjects(lhs, rhs *ir.Node, tape int) (*ir.Node, error) {
	lhs, err := r.typeSwitch(lhs, ir.ObjectType)
	if err != nil {
		return nil, err
	}

	// Tape positions of rhs members.
	childTapes := make([]int, len(rhs.Values))
	at := tape + 1
	for i, v := range rhs.Values {
		childTapes[i] = at
		at += v.TapeLength()
	}

	out := &ir.Node{Type: ir.ObjectType}
	li, ri := 0, 0
	lf := func() string { return lhs.Fields[li].String }
	rf := func() string { return rhs.Fields[ri].String }
	for (lhs != nil && li < len(lhs.Fields)) || ri < len(rhs.Fields) {
		var (
			field   string
			lv, rv  *ir.Node
			rvTape  int
			advance func()
		)
		switch {
		case ri == len(rhs.Fields) || (lhs != nil && li < len(lhs.Fields) && lf() < rf()):
			field, lv = lf(), lhs.Values[li]
			advance = func() { li++ }
		case lhs == nil || li == len(lhs.Fields) || lf() > rf():
			field, rv, rvTape = rf(), rhs.Values[ri], childTapes[ri]
			advance = func() { ri++ }
		default:
			field, lv, rv, rvTape = lf(), lhs.Values[li], rhs.Values[ri], childTapes[ri]
			advance = func() { li++; ri++ }
		}
		advance()

		if rv == nil {
			// Property only on the left: carried over unreduced.
			out.SetField(field, detached(lv))
			continue
		}
		merged, deleted, err := r.reduce(lv, rv, rvTape)
		if err != nil {
			return nil, err
		}
		if deleted && r.full {
			continue
		}
		out.SetField(field, merged)
	}
	return out, nil
}

func (r *reducer) mergeArrays(s *schema.Strategy, lhs, rhs *ir.Node, tape int) (*ir.Node, error) {
	lhs, err := r.typeSwitch(lhs, ir.ArrayType)
	if err != nil {
		return nil, err
	}

	childTapes := make([]int, len(rhs.Values))
	at := tape + 1
	for i, v := range rhs.Values {
		childTapes[i] = at
		at += v.TapeLength()
	}

	out := &ir.Node{Type: ir.ArrayType}
	if len(s.Key) == 0 {
		// Positional merge.
		n := len(rhs.Values)
		if lhs != nil && len(lhs.Values) > n {
			n = len(lhs.Values)
		}
		for i := 0; i < n; i++ {
			var lv, rv *ir.Node
			if lhs != nil && i < len(lhs.Values) {
				lv = lhs.Values[i]
			}
			if i < len(rhs.Values) {
				rv = rhs.Values[i]
			}
			if rv == nil {
				out.Append(detached(lv))
				continue
			}
			merged, deleted, err := r.reduce(lv, rv, childTapes[i])
			if err != nil {
				return nil, err
			}
			if deleted && r.full {
				continue
			}
			out.Append(merged)
		}
		return out, nil
	}

	// Keyed merge join: both sides ordered by the extracted key;
	// unmatched incoming items land at their sorted position.
	key := func(n *ir.Node) *ir.Node { return extract.Tuple(s.Key, n) }
	li, ri := 0, 0
	for (lhs != nil && li < len(lhs.Values)) || ri < len(rhs.Values) {
		var c int
		switch {
		case lhs == nil || li == len(lhs.Values):
			c = 1
		case ri == len(rhs.Values):
			c = -1
		default:
			c = ir.Compare(key(lhs.Values[li]), key(rhs.Values[ri]))
		}
		var (
			lv, rv *ir.Node
			rvTape int
		)
		switch {
		case c < 0:
			lv = lhs.Values[li]
			li++
		case c > 0:
			rv, rvTape = rhs.Values[ri], childTapes[ri]
			ri++
		default:
			lv, rv, rvTape = lhs.Values[li], rhs.Values[ri], childTapes[ri]
			li++
			ri++
		}
		if rv == nil {
			out.Append(detached(lv))
			continue
		}
		merged, deleted, err := r.reduce(lv, rv, rvTape)
		if err != nil {
			return nil, err
		}
		if deleted && r.full {
			continue
		}
		out.Append(merged)
	}
	return out, nil
}
