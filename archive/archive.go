// Package archive serializes ir.Node trees into flat, immutable byte
// buffers and provides zero-copy views over them.
//
// An archived buffer is self-contained: it can cross process or task
// boundaries as plain bytes and be viewed again without a decode pass.
// Views are read-only; mutation requires decoding back into an ir tree.
//
// The buffer layout is little-endian with 8-byte aligned records.
// String and array lengths pack into 32-bit headers; inputs exceeding
// that are a resource-limit violation and panic rather than truncate.
// Viewing a buffer requires its start address be 8-byte aligned, which
// is asserted at construction and never silently corrected.
package archive

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

const (
	magic      = uint64(0x31686372616f6f64) // "dooarch1"
	headerSize = 16
	align      = 8
)

const (
	nullKind = iota
	boolKind
	intKind
	floatKind
	numStrKind
	stringKind
	arrayKind
	objectKind
)

// Build serializes a tree into an archived buffer. It panics when a
// string or container exceeds the packed 32-bit length headers.
func Build(n *ir.Node) []byte {
	e := &encoder{buf: make([]byte, headerSize)}
	binary.LittleEndian.PutUint64(e.buf[:8], magic)
	root := e.encode(n)
	binary.LittleEndian.PutUint64(e.buf[8:16], uint64(root))
	return e.buf
}

type encoder struct {
	buf []byte
}

func (e *encoder) pad() {
	for len(e.buf)%align != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) word(w uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], w)
	e.buf = append(e.buf, b[:]...)
}

func packed(kind int, length int) uint64 {
	if length > math.MaxUint32 {
		panic(fmt.Sprintf("archive: length %d exceeds packed 32-bit header", length))
	}
	return uint64(kind) | uint64(length)<<32
}

// encode appends n's record (children first) and returns its offset.
func (e *encoder) encode(n *ir.Node) int {
	switch n.Type {
	case ir.NullType:
		e.pad()
		off := len(e.buf)
		e.word(packed(nullKind, 0))
		return off
	case ir.BoolType:
		e.pad()
		off := len(e.buf)
		v := 0
		if n.Bool {
			v = 1
		}
		e.word(uint64(boolKind) | uint64(v)<<8)
		return off
	case ir.NumberType:
		switch {
		case n.Int64 != nil:
			e.pad()
			off := len(e.buf)
			e.word(packed(intKind, 0))
			e.word(uint64(*n.Int64))
			return off
		case n.Float64 != nil:
			e.pad()
			off := len(e.buf)
			e.word(packed(floatKind, 0))
			e.word(math.Float64bits(*n.Float64))
			return off
		default:
			return e.encodeBytes(numStrKind, n.Number)
		}
	case ir.StringType:
		return e.encodeBytes(stringKind, n.String)
	case ir.ArrayType:
		offs := make([]int, len(n.Values))
		for i, v := range n.Values {
			offs[i] = e.encode(v)
		}
		e.pad()
		off := len(e.buf)
		e.word(packed(arrayKind, len(n.Values)))
		e.word(uint64(n.TapeLength()))
		for _, o := range offs {
			e.offset32(o)
		}
		e.pad()
		return off
	case ir.ObjectType:
		keyOffs := make([]int, len(n.Fields))
		valOffs := make([]int, len(n.Values))
		for i := range n.Fields {
			keyOffs[i] = e.encodeBytes(stringKind, n.Fields[i].String)
			valOffs[i] = e.encode(n.Values[i])
		}
		e.pad()
		off := len(e.buf)
		e.word(packed(objectKind, len(n.Fields)))
		e.word(uint64(n.TapeLength()))
		for i := range keyOffs {
			e.offset32(keyOffs[i])
			e.offset32(valOffs[i])
		}
		e.pad()
		return off
	}
	panic(fmt.Sprintf("archive: invalid node type %d", n.Type))
}

func (e *encoder) offset32(off int) {
	if off > math.MaxUint32 {
		panic(fmt.Sprintf("archive: offset %d exceeds packed 32-bit header", off))
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(off))
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) encodeBytes(kind int, s string) int {
	e.pad()
	off := len(e.buf)
	e.word(packed(kind, len(s)))
	e.buf = append(e.buf, s...)
	e.pad()
	return off
}

// A Node is a read-only view of one value inside an archived buffer.
// The zero Node is invalid.
type Node struct {
	buf []byte
	off int
}

// At views buf as an archived document. It panics when buf's start
// address is not 8-byte aligned (a programmer or configuration error,
// not a data error) and fails on a malformed header.
func At(buf []byte) (Node, error) {
	if len(buf) < headerSize {
		return Node{}, fmt.Errorf("archive: buffer of %d bytes is too short", len(buf))
	}
	if addr := uintptr(unsafe.Pointer(&buf[0])); addr%align != 0 {
		panic(fmt.Sprintf("archive: buffer start address %#x is not %d-byte aligned", addr, align))
	}
	if got := binary.LittleEndian.Uint64(buf[:8]); got != magic {
		return Node{}, fmt.Errorf("archive: bad magic %#x", got)
	}
	root := binary.LittleEndian.Uint64(buf[8:16])
	if root < headerSize || root+8 > uint64(len(buf)) {
		return Node{}, fmt.Errorf("archive: root offset %d out of range", root)
	}
	return Node{buf: buf, off: int(root)}, nil
}

func (n Node) word0() uint64 {
	return binary.LittleEndian.Uint64(n.buf[n.off : n.off+8])
}

func (n Node) kind() int { return int(n.word0() & 0xff) }

func (n Node) length() int { return int(n.word0() >> 32) }

// Type returns the node's ir type tag without decoding.
func (n Node) Type() ir.Type {
	switch n.kind() {
	case nullKind:
		return ir.NullType
	case boolKind:
		return ir.BoolType
	case intKind, floatKind, numStrKind:
		return ir.NumberType
	case stringKind:
		return ir.StringType
	case arrayKind:
		return ir.ArrayType
	case objectKind:
		return ir.ObjectType
	}
	panic(fmt.Sprintf("archive: invalid kind %d", n.kind()))
}

// Len returns the element count for containers and the byte length for
// strings.
func (n Node) Len() int { return n.length() }

// TapeLength returns the flattened node count without decoding.
func (n Node) TapeLength() int {
	switch n.kind() {
	case arrayKind, objectKind:
		return int(binary.LittleEndian.Uint64(n.buf[n.off+8 : n.off+16]))
	}
	return 1
}

func (n Node) at(off uint32) Node {
	return Node{buf: n.buf, off: int(off)}
}

// Index returns the i'th element of an array view.
func (n Node) Index(i int) Node {
	base := n.off + 16 + 4*i
	return n.at(binary.LittleEndian.Uint32(n.buf[base : base+4]))
}

// Member returns the i'th key and value of an object view.
func (n Node) Member(i int) (string, Node) {
	base := n.off + 16 + 8*i
	keyOff := binary.LittleEndian.Uint32(n.buf[base : base+4])
	valOff := binary.LittleEndian.Uint32(n.buf[base+4 : base+8])
	return n.at(keyOff).stringBytes(), n.at(valOff)
}

// Field looks up a property by name; object members are key sorted so
// this is a binary search.
func (n Node) Field(name string) (Node, bool) {
	lo, hi := 0, n.length()
	for lo < hi {
		mid := (lo + hi) / 2
		key, val := n.Member(mid)
		switch {
		case key == name:
			return val, true
		case key < name:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Node{}, false
}

func (n Node) stringBytes() string {
	start := n.off + 8
	return string(n.buf[start : start+n.length()])
}

// Decode materializes the view as a mutable ir tree.
func (n Node) Decode() *ir.Node {
	switch n.kind() {
	case nullKind:
		return ir.Null()
	case boolKind:
		return ir.FromBool(n.word0()>>8&1 == 1)
	case intKind:
		return ir.FromInt(int64(binary.LittleEndian.Uint64(n.buf[n.off+8 : n.off+16])))
	case floatKind:
		return ir.FromFloat(math.Float64frombits(binary.LittleEndian.Uint64(n.buf[n.off+8 : n.off+16])))
	case numStrKind:
		return ir.FromNumberString(n.stringBytes())
	case stringKind:
		return ir.FromString(n.stringBytes())
	case arrayKind:
		res := &ir.Node{Type: ir.ArrayType}
		for i := 0; i < n.length(); i++ {
			res.Append(n.Index(i).Decode())
		}
		return res
	case objectKind:
		res := &ir.Node{Type: ir.ObjectType}
		for i := 0; i < n.length(); i++ {
			key, val := n.Member(i)
			res.SetField(key, val.Decode())
		}
		return res
	}
	panic(fmt.Sprintf("archive: invalid kind %d", n.kind()))
}
