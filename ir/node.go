package ir

import (
	"maps"
	"slices"
	"sort"
)

// Type is the tag of a Node.
type Type byte

const (
	NullType Type = iota
	BoolType
	NumberType
	StringType
	ArrayType
	ObjectType
)

func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	}
	return "invalid"
}

// Node is a document value. It is a tagged union: Type selects which
// of the remaining fields carry the value.
//
// For ObjectType, Fields[i] is the key node for Values[i] and fields
// are kept sorted by key string. Producers must preserve this sorting;
// all constructors and mutators in this package do.
//
// For NumberType exactly one of Int64, Float64 or Number is set. Number
// is a decimal string fallback for values representable in neither
// int64 nor float64.
type Node struct {
	Type        Type
	Parent      *Node
	ParentIndex int
	ParentField string
	Fields      []*Node
	Values      []*Node

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
}

func (y *Node) Clone() *Node {
	res := &Node{}
	return y.CloneTo(res)
}

func (y *Node) CloneTo(dst *Node) *Node {
	dst.Parent = y.Parent
	dst.ParentIndex = y.ParentIndex
	dst.ParentField = y.ParentField
	dst.Type = y.Type
	dst.Values = make([]*Node, len(y.Values))
	dst.Fields = make([]*Node, len(y.Fields))
	for i, yv := range y.Values {
		dstI := &Node{}
		yv.CloneTo(dstI)
		dstI.Parent = dst
		dstI.ParentIndex = i
		dstI.ParentField = yv.ParentField
		dst.Values[i] = dstI
	}
	for i, yf := range y.Fields {
		dstI := &Node{}
		yf.CloneTo(dstI)
		dstI.Parent = dst
		dstI.ParentIndex = i
		dstI.ParentField = yf.String
		dst.Fields[i] = dstI
	}
	dst.String = y.String
	dst.Number = y.Number
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	dst.Bool = y.Bool
	return dst
}

func FromString(v string) *Node {
	return FromStringAt(&Node{}, v)
}

func FromStringAt(p *Node, v string) *Node {
	p.Type = StringType
	p.String = v
	return p
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

// FromNumberString holds a decimal string that fits neither int64 nor
// float64 without loss.
func FromNumberString(v string) *Node {
	return &Node{
		Type:   NumberType,
		Number: v,
	}
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromMap(yMap map[string]*Node) *Node {
	res := &Node{}
	res.Type = ObjectType
	res.Fields = make([]*Node, len(yMap))
	res.Values = make([]*Node, len(yMap))
	keys := slices.Sorted(maps.Keys(yMap))
	for i, key := range keys {
		y := yMap[key]
		y.Parent = res
		y.ParentIndex = i
		y.ParentField = key
		yField := &Node{
			Parent:      res,
			ParentIndex: i,
			ParentField: key,
			Type:        StringType,
			String:      key,
		}
		res.Fields[i] = yField
		res.Values[i] = y
	}
	return res
}

func ToMap(node *Node) map[string]*Node {
	if node.Type != ObjectType {
		return nil
	}
	res := make(map[string]*Node, len(node.Fields))
	for i := range node.Fields {
		res[node.Fields[i].String] = node.Values[i]
	}
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type: ArrayType,
	}
	res.Values = make([]*Node, len(ySlice))
	for i, y := range ySlice {
		res.Values[i] = y
		y.Parent = res
		y.ParentIndex = i
	}
	return res
}

// Get returns the value of field, or nil when absent or y is not an
// object.
func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	i, ok := y.findField(field)
	if !ok {
		return nil
	}
	return y.Values[i]
}

func (y *Node) findField(field string) (int, bool) {
	return sort.Find(len(y.Fields), func(i int) int {
		if field == y.Fields[i].String {
			return 0
		}
		if field < y.Fields[i].String {
			return -1
		}
		return 1
	})
}

// SetField sets field to val, inserting at the sorted position when
// absent.
func (y *Node) SetField(field string, val *Node) {
	i, ok := y.findField(field)
	if ok {
		val.Parent = y
		val.ParentIndex = i
		val.ParentField = field
		y.Values[i] = val
		return
	}
	key := &Node{Type: StringType, String: field, Parent: y, ParentField: field}
	y.Fields = slices.Insert(y.Fields, i, key)
	y.Values = slices.Insert(y.Values, i, val)
	val.Parent = y
	val.ParentField = field
	y.reindex(i)
}

// RemoveField removes field, reporting whether it was present.
func (y *Node) RemoveField(field string) bool {
	i, ok := y.findField(field)
	if !ok {
		return false
	}
	y.Fields = slices.Delete(y.Fields, i, i+1)
	y.Values = slices.Delete(y.Values, i, i+1)
	y.reindex(i)
	return true
}

func (y *Node) reindex(from int) {
	for i := from; i < len(y.Fields); i++ {
		y.Fields[i].ParentIndex = i
		y.Values[i].ParentIndex = i
	}
}

// RemoveIndex removes the i'th element of an array node, reporting
// whether it was in range.
func (y *Node) RemoveIndex(i int) bool {
	if i < 0 || i >= len(y.Values) {
		return false
	}
	y.Values = slices.Delete(y.Values, i, i+1)
	for ; i < len(y.Values); i++ {
		y.Values[i].ParentIndex = i
	}
	return true
}

// Append appends val to an array node.
func (y *Node) Append(val *Node) {
	val.Parent = y
	val.ParentIndex = len(y.Values)
	y.Values = append(y.Values, val)
}

func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

func (y *Node) Root() *Node {
	res := y
	for res.Parent != nil {
		res = res.Parent
	}
	return res
}

// IsInt reports whether the node is numeric with an exactly-zero
// fractional part.
func (y *Node) IsInt() bool {
	if y.Type != NumberType {
		return false
	}
	if y.Int64 != nil {
		return true
	}
	if y.Float64 != nil {
		f := *y.Float64
		return f == float64(int64(f))
	}
	d, err := y.Decimal()
	if err != nil {
		return false
	}
	var tmp = new(apdDecimal)
	return isDecimalInt(d, tmp)
}
