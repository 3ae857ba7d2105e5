package reduce

import "fmt"

// ErrorKind classifies recoverable reduction failures.
type ErrorKind int

const (
	// NotAssociative marks a reduction that cannot be folded out of
	// order: the caller must buffer and retry in a strictly ordered
	// final pass.
	NotAssociative ErrorKind = iota
	// TypeMismatch marks a structural mismatch that makes the
	// annotated strategy inapplicable to the operands.
	TypeMismatch
	// SumNumericOverflow marks a sum whose destination representation
	// cannot hold the result.
	SumNumericOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case NotAssociative:
		return "not associative"
	case TypeMismatch:
		return "type mismatch"
	case SumNumericOverflow:
		return "sum numeric overflow"
	}
	return "invalid"
}

// Error is a recoverable reduction failure, scoped to the document
// being reduced. It never corrupts unrelated state: the inputs are
// unmodified when it is returned.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("reduce: %s: %s", e.Kind, e.Detail)
}

func errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsNotAssociative reports whether err is a NotAssociative reduction
// error, the Combiner's buffering signal.
func IsNotAssociative(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == NotAssociative
	}
	return false
}
