package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// A Pointer is a parsed JSON pointer: a sequence of property and index
// tokens addressing one location in a document.
type Pointer []Token

type TokenKind byte

const (
	// PropertyToken addresses an object property by name.
	PropertyToken TokenKind = iota
	// IndexToken addresses an array element, or an object property
	// whose name is the decimal form of the index.
	IndexToken
	// NextIndexToken is the "-" token: the array position after the
	// last element. It addresses no existing location.
	NextIndexToken
	// NextPropertyToken is the "*" token: any property not otherwise
	// named. It addresses no existing location.
	NextPropertyToken
)

type Token struct {
	Kind  TokenKind
	Field string
	Index int
}

// ParsePointer parses an RFC 6901 pointer such as "/a/b/0". The empty
// string is the root pointer. A leading "/" is required otherwise.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("%w: %q does not begin with '/'", ErrPointer, s)
	}
	parts := strings.Split(s[1:], "/")
	ptr := make(Pointer, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		ptr = append(ptr, parseToken(part))
	}
	return ptr, nil
}

// MustPointer is ParsePointer for statically known pointers.
func MustPointer(s string) Pointer {
	p, err := ParsePointer(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseToken(part string) Token {
	switch part {
	case "-":
		return Token{Kind: NextIndexToken}
	case "*":
		return Token{Kind: NextPropertyToken}
	}
	// Unsigned decimals without a superfluous leading zero are
	// indices; everything else is a property name.
	if i, err := strconv.Atoi(part); err == nil && i >= 0 {
		if len(part) == 1 || part[0] != '0' {
			return Token{Kind: IndexToken, Field: part, Index: i}
		}
	}
	return Token{Kind: PropertyToken, Field: part}
}

func (p Pointer) String() string {
	var sb strings.Builder
	for _, tok := range p {
		sb.WriteByte('/')
		switch tok.Kind {
		case NextIndexToken:
			sb.WriteByte('-')
		case NextPropertyToken:
			sb.WriteByte('*')
		case IndexToken:
			sb.WriteString(strconv.Itoa(tok.Index))
		case PropertyToken:
			s := strings.ReplaceAll(tok.Field, "~", "~0")
			s = strings.ReplaceAll(s, "/", "~1")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Push returns p extended by one token. The receiver is not modified.
func (p Pointer) Push(tok Token) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, tok)
}

// Query resolves the pointer against y, returning nil when any step is
// absent.
func (p Pointer) Query(y *Node) *Node {
	for _, tok := range p {
		if y == nil {
			return nil
		}
		switch y.Type {
		case ObjectType:
			switch tok.Kind {
			case PropertyToken, IndexToken:
				y = Get(y, tok.Field)
			default:
				return nil
			}
		case ArrayType:
			if tok.Kind != IndexToken || tok.Index >= len(y.Values) {
				return nil
			}
			y = y.Values[tok.Index]
		default:
			return nil
		}
	}
	return y
}

// Create resolves the pointer against a mutable tree, materializing
// missing steps. Null nodes along the path become objects or arrays as
// the next token requires; array indices may extend the array by at
// most one position. It fails when an existing value of the wrong type
// blocks a step.
func (p Pointer) Create(y *Node) (*Node, error) {
	for _, tok := range p {
		switch tok.Kind {
		case PropertyToken:
			if y.Type == NullType {
				y.Type = ObjectType
			}
			if y.Type != ObjectType {
				return nil, fmt.Errorf("%w: cannot create %q in %s", ErrPointer, tok.Field, y.Type)
			}
			next := Get(y, tok.Field)
			if next == nil {
				next = Null()
				y.SetField(tok.Field, next)
			}
			y = next
		case IndexToken:
			if y.Type == NullType {
				y.Type = ArrayType
			}
			switch y.Type {
			case ArrayType:
				if tok.Index > len(y.Values) {
					return nil, fmt.Errorf("%w: index %d extends array of %d by more than one", ErrPointer, tok.Index, len(y.Values))
				}
				if tok.Index == len(y.Values) {
					y.Append(Null())
				}
				y = y.Values[tok.Index]
			case ObjectType:
				next := Get(y, tok.Field)
				if next == nil {
					next = Null()
					y.SetField(tok.Field, next)
				}
				y = next
			default:
				return nil, fmt.Errorf("%w: cannot index %s", ErrPointer, y.Type)
			}
		case NextIndexToken:
			if y.Type == NullType {
				y.Type = ArrayType
			}
			if y.Type != ArrayType {
				return nil, fmt.Errorf("%w: cannot append to %s", ErrPointer, y.Type)
			}
			next := Null()
			y.Append(next)
			y = next
		case NextPropertyToken:
			return nil, fmt.Errorf("%w: cannot create through pattern token", ErrPointer)
		}
	}
	return y, nil
}
