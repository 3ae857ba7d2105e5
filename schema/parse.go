package schema

import (
	"fmt"
	"math"

	"github.com/goccy/go-yaml"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

// ParseJSON decodes one JSON document into IR.
func ParseJSON(d []byte) (*ir.Node, error) {
	return ir.FromJSON(d)
}

// ParseYAML decodes one YAML document into IR. JSON being a YAML
// subset, this also accepts JSON.
func ParseYAML(d []byte) (*ir.Node, error) {
	var v any
	if err := yaml.Unmarshal(d, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ir.ErrParse, err)
	}
	return fromAny(v)
}

func fromAny(v any) (*ir.Node, error) {
	switch x := v.(type) {
	case nil:
		return ir.Null(), nil
	case bool:
		return ir.FromBool(x), nil
	case string:
		return ir.FromString(x), nil
	case int:
		return ir.FromInt(int64(x)), nil
	case int64:
		return ir.FromInt(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return ir.FromNumberString(fmt.Sprintf("%d", x)), nil
		}
		return ir.FromInt(int64(x)), nil
	case float64:
		return ir.FromFloat(x), nil
	case []any:
		res := &ir.Node{Type: ir.ArrayType}
		for _, el := range x {
			n, err := fromAny(el)
			if err != nil {
				return nil, err
			}
			res.Append(n)
		}
		return res, nil
	case map[string]any:
		res := &ir.Node{Type: ir.ObjectType}
		for k, el := range x {
			n, err := fromAny(el)
			if err != nil {
				return nil, err
			}
			res.SetField(k, n)
		}
		return res, nil
	case map[any]any:
		res := &ir.Node{Type: ir.ObjectType}
		for k, el := range x {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string object key %v", ir.ErrParse, k)
			}
			n, err := fromAny(el)
			if err != nil {
				return nil, err
			}
			res.SetField(key, n)
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: unsupported value %T", ir.ErrParse, v)
}
