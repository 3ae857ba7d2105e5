package archive

import "github.com/mergeflow/doc-format/go-doc/ir"

// Owned couples a root view 1:1 with the buffer backing it, so the
// pair can cross goroutine boundaries as one value. The fields are
// unexported so the view cannot be split from its backing memory.
type Owned struct {
	root Node
	buf  []byte
}

// Own archives n and returns the buffer coupled with its root view.
func Own(n *ir.Node) Owned {
	buf := Build(n)
	root, err := At(buf)
	if err != nil {
		// Build wrote the header itself.
		panic(err)
	}
	return Owned{root: root, buf: buf}
}

// OwnBuffer views a caller-supplied buffer. The buffer must not be
// mutated afterwards.
func OwnBuffer(buf []byte) (Owned, error) {
	root, err := At(buf)
	if err != nil {
		return Owned{}, err
	}
	return Owned{root: root, buf: buf}, nil
}

// Root returns the root view.
func (o Owned) Root() Node { return o.root }

// Bytes returns the backing buffer, for persistence or transport.
func (o Owned) Bytes() []byte { return o.buf }
