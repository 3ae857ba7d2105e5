package ir

// TapeLength is the number of tape positions the node occupies in a
// depth-first walk: one for the node itself plus the tape lengths of
// its children. Object keys occupy no positions of their own.
func (y *Node) TapeLength() int {
	n := 1
	for _, v := range y.Values {
		n += v.TapeLength()
	}
	return n
}
