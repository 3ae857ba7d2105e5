package ir

import (
	"encoding/binary"
	"hash/maphash"
	"math"
)

// hashSeed is shared so hashes are comparable within one process.
var hashSeed = maphash.MakeSeed()

// Hash returns a 64-bit content hash of the node.
//
// Object member hashes are combined commutatively, so two objects that
// differ only in field order hash identically. Numeric values hash by
// value: a float with zero fractional part hashes the same as the
// equal integer. It panics if n is nil.
func (n *Node) Hash() uint64 {
	if n == nil {
		panic("ir: Hash called on nil node")
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)

	switch n.Type {
	case NullType:
		h.WriteByte(byte(NullType))
	case BoolType:
		h.WriteByte(byte(BoolType))
		if n.Bool {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case NumberType:
		h.WriteByte(byte(NumberType))
		hashNumber(&h, n)
	case StringType:
		h.WriteByte(byte(StringType))
		h.WriteString(n.String)
	case ArrayType:
		h.WriteByte(byte(ArrayType))
		var b [8]byte
		for _, v := range n.Values {
			binary.LittleEndian.PutUint64(b[:], v.Hash())
			h.Write(b[:])
		}
	case ObjectType:
		h.WriteByte(byte(ObjectType))
		// Sum member hashes so field order cannot matter.
		var sum uint64
		for i, field := range n.Fields {
			sum += memberHash(field, n.Values[i])
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], sum)
		h.Write(b[:])
	}
	return h.Sum64()
}

func memberHash(field, value *Node) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], field.Hash())
	binary.LittleEndian.PutUint64(b[8:], value.Hash())
	h.Write(b[:])
	return h.Sum64()
}

func hashNumber(h *maphash.Hash, n *Node) {
	var b [8]byte
	switch {
	case n.Int64 != nil:
		binary.LittleEndian.PutUint64(b[:], uint64(*n.Int64))
		h.Write(b[:])
	case n.Float64 != nil:
		f := *n.Float64
		// An integral float hashes as the equal integer.
		if i := int64(f); f == float64(i) {
			binary.LittleEndian.PutUint64(b[:], uint64(i))
			h.Write(b[:])
			return
		}
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		h.Write(b[:])
	default:
		h.WriteString(n.Number)
	}
}
