package validate

// Span identifies one subtree instance of a specific document walk: a
// [Begin,End) range of tape positions plus the order-invariant content
// hash of the subtree. Sibling spans never overlap and child spans
// nest strictly inside their parents, which is what lets a reducer zip
// two validated trees positionally without re-matching keys.
type Span struct {
	Begin  int
	End    int
	Hashed uint64
}
