// Package redact sanitizes a document in place per the redact
// annotations recorded against it during validation.
//
// Redaction shares the validator's tape addressing: each annotation
// outcome names the tape span it governs, and the walk resolves spans
// back to subtrees without re-matching the schema. Two strategies
// exist: block removes the subtree, sha256 replaces it with a salted
// content digest. Digesting is idempotent, so re-redacting an already
// sanitized document is a no-op.
package redact

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"

	"github.com/mergeflow/doc-format/go-doc/debug"
	"github.com/mergeflow/doc-format/go-doc/ir"
	"github.com/mergeflow/doc-format/go-doc/schema"
	"github.com/mergeflow/doc-format/go-doc/validate"
)

// OutcomeKind classifies what a redaction did to the document.
type OutcomeKind int

const (
	// Unchanged reports that no annotation fired.
	Unchanged OutcomeKind = iota
	// Modified reports in-place subtree replacement; TapeDelta is the
	// change in flattened node count.
	Modified
	// Removed reports that the document root itself was blocked;
	// Length is its tape length. The caller drops the document.
	Removed
)

// Outcome summarizes a redaction pass so callers can maintain
// external tape and offset bookkeeping without re-walking the tree.
type Outcome struct {
	Kind      OutcomeKind
	TapeDelta int
	Length    int
}

// Redact applies the redact annotations in outcomes to doc, mutating
// it in place. salt is prepended to every digest input; it may be nil.
// An error is returned when two outcomes disagree on the strategy for
// one span. On error the document may be partially redacted.
func Redact(doc *ir.Node, outcomes []validate.Outcome, salt []byte) (Outcome, error) {
	rules := make(map[int]schema.RedactStrategyKind)
	for _, o := range outcomes {
		if o.Redact == nil {
			continue
		}
		if prior, ok := rules[o.Span.Begin]; ok && prior != o.Redact.Kind {
			return Outcome{}, fmt.Errorf("redact: conflicting strategies %s and %s at tape %d",
				prior, o.Redact.Kind, o.Span.Begin)
		}
		rules[o.Span.Begin] = o.Redact.Kind
	}
	if len(rules) == 0 {
		return Outcome{Kind: Unchanged}, nil
	}

	r := &redactor{rules: rules, salt: salt}
	length := doc.TapeLength()
	delta, removed := r.walk(doc, 0)
	if debug.Redact() {
		debug.Logf("redact: rules=%d delta=%d removed=%v", len(rules), delta, removed)
	}
	if removed {
		return Outcome{Kind: Removed, Length: length}, nil
	}
	if r.changed {
		return Outcome{Kind: Modified, TapeDelta: delta}, nil
	}
	return Outcome{Kind: Unchanged}, nil
}

type redactor struct {
	rules   map[int]schema.RedactStrategyKind
	salt    []byte
	changed bool
}

// walk visits n at tape position tape. It returns the tape-length
// delta of changes below n, or removed when n itself must go; the
// parent performs the removal.
func (r *redactor) walk(n *ir.Node, tape int) (delta int, removed bool) {
	if kind, ok := r.rules[tape]; ok {
		switch kind {
		case schema.Block:
			return 0, true
		case schema.Sha256:
			// Annotations nested under a digested subtree are
			// subsumed by it.
			return r.digest(n), false
		}
	}
	if n.Type != ir.ArrayType && n.Type != ir.ObjectType {
		return 0, false
	}

	at := tape + 1
	var drop []int
	for i, v := range n.Values {
		// Tape positions address the pre-redaction document, so the
		// length must be taken before the descent can shrink v.
		length := v.TapeLength()
		d, rm := r.walk(v, at)
		at += length
		if rm {
			drop = append(drop, i)
			delta -= length
			continue
		}
		delta += d
	}
	if len(drop) > 0 {
		r.changed = true
	}
	for i := len(drop) - 1; i >= 0; i-- {
		if n.Type == ir.ObjectType {
			n.RemoveField(n.Fields[drop[i]].String)
		} else {
			n.RemoveIndex(drop[i])
		}
	}
	return delta, false
}

// digest replaces n with its salted digest string, returning the tape
// delta.
func (r *redactor) digest(n *ir.Node) int {
	if n.Type == ir.StringType && alreadyRedacted(n.String) {
		return 0
	}
	r.changed = true
	old := n.TapeLength()

	h := sha256.New()
	h.Write(r.salt)
	switch n.Type {
	case ir.NullType:
		io.WriteString(h, "null")
	case ir.BoolType:
		if n.Bool {
			io.WriteString(h, "true")
		} else {
			io.WriteString(h, "false")
		}
	case ir.StringType:
		io.WriteString(h, n.String)
	case ir.NumberType:
		digestNumber(h, n)
	default:
		// Containers digest their canonical serialization. Inf and
		// NaN cannot appear in parsed documents, so serialization
		// cannot fail here.
		js, err := ir.ToJSON(n)
		if err != nil {
			fmt.Fprintf(h, "%v", err)
		}
		h.Write(js)
	}

	n.Type = ir.StringType
	n.String = "sha256:" + hex.EncodeToString(h.Sum(nil))
	n.Bool = false
	n.Number = ""
	n.Int64 = nil
	n.Float64 = nil
	n.Fields = nil
	n.Values = nil
	return 1 - old
}

// digestNumber writes the number's canonical bytes: an integral value
// digests as its int64 little-endian encoding whatever its lexical
// form, so 5 and 5.0 digest identically.
func digestNumber(h io.Writer, n *ir.Node) {
	var b [8]byte
	switch {
	case n.Int64 != nil:
		binary.LittleEndian.PutUint64(b[:], uint64(*n.Int64))
		h.Write(b[:])
	case n.Float64 != nil:
		f := *n.Float64
		if i := int64(f); f == float64(i) {
			binary.LittleEndian.PutUint64(b[:], uint64(i))
			h.Write(b[:])
			return
		}
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		h.Write(b[:])
	default:
		io.WriteString(h, n.Number)
	}
}

// alreadyRedacted reports whether s looks like a produced digest:
// "sha256:" followed by 64 hex digits of either case, so digests from
// other producers are also left alone.
func alreadyRedacted(s string) bool {
	const prefix = "sha256:"
	if len(s) != len(prefix)+sha256.Size*2 || s[:len(prefix)] != prefix {
		return false
	}
	for i := len(prefix); i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
