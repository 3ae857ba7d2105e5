package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// FromJSON parses one JSON document into a node tree. Object fields
// are re-ordered into the sorted form the rest of the package
// maintains. Numbers parse to int64 when possible, then float64, then
// the decimal-string fallback.
func FromJSON(d []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	node, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: unexpected end of input", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Node, error) {
	switch v := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(v), nil
	case string:
		return FromString(v), nil
	case json.Number:
		return fromJSONNumber(v), nil
	case json.Delim:
		switch v {
		case '[':
			res := &Node{Type: ArrayType}
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				res.Append(el)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			return res, nil
		case '{':
			res := &Node{Type: ObjectType}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrParse, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("%w: object key %v", ErrParse, keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				res.SetField(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			return res, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected token %v", ErrParse, tok)
}

func fromJSONNumber(v json.Number) *Node {
	if i, err := v.Int64(); err == nil {
		return FromInt(i)
	}
	f, err := v.Float64()
	if err != nil || math.IsInf(f, 0) {
		return FromNumberString(v.String())
	}
	// Keep the text form when the parse rounded. The comparison is by
	// decimal value so textual variants like "5.0" still parse as the
	// float 5.
	var text, round apd.Decimal
	if _, _, err := text.SetString(v.String()); err == nil {
		if _, _, err := round.SetString(strconv.FormatFloat(f, 'g', -1, 64)); err == nil && text.Cmp(&round) == 0 {
			return FromFloat(f)
		}
	}
	return FromNumberString(v.String())
}

// ToJSON serializes the tree as canonical JSON: object fields emit in
// their stored (sorted) order.
func ToJSON(y *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, y); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent is ToJSON with two-space indentation, for display.
func ToJSONIndent(y *Node) ([]byte, error) {
	compact, err := ToJSON(y)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, y *Node) error {
	switch y.Type {
	case NullType:
		buf.WriteString("null")
	case BoolType:
		if y.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case NumberType:
		switch {
		case y.Int64 != nil:
			buf.WriteString(strconv.FormatInt(*y.Int64, 10))
		case y.Float64 != nil:
			f := *y.Float64
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return fmt.Errorf("%w: %v is not representable in JSON", ErrType, f)
			}
			buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		default:
			buf.WriteString(y.Number)
		}
	case StringType:
		d, err := json.Marshal(y.String)
		if err != nil {
			return err
		}
		buf.Write(d)
	case ArrayType:
		buf.WriteByte('[')
		for i, v := range y.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, v); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectType:
		buf.WriteByte('{')
		for i, f := range y.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			d, err := json.Marshal(f.String)
			if err != nil {
				return err
			}
			buf.Write(d)
			buf.WriteByte(':')
			if err := appendJSON(buf, y.Values[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: invalid node type %d", ErrType, y.Type)
	}
	return nil
}
