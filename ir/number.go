package ir

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

type apdDecimal = apd.Decimal

// Decimal returns the node's numeric value as an arbitrary-precision
// decimal. It fails on non-number nodes and on malformed Number string
// fallbacks.
func (y *Node) Decimal() (*apd.Decimal, error) {
	if y.Type != NumberType {
		return nil, fmt.Errorf("%w: %s is not a number", ErrType, y.Type)
	}
	d := new(apd.Decimal)
	switch {
	case y.Int64 != nil:
		d.SetInt64(*y.Int64)
	case y.Float64 != nil:
		if _, err := d.SetFloat64(*y.Float64); err != nil {
			return nil, err
		}
	default:
		if _, _, err := d.SetString(y.Number); err != nil {
			return nil, fmt.Errorf("malformed number %q: %w", y.Number, err)
		}
	}
	return d, nil
}

func isDecimalInt(d, scratch *apd.Decimal) bool {
	if d.Form != apd.Finite {
		return false
	}
	scratch.Abs(d)
	reduced, _ := scratch.Reduce(scratch)
	return d.Exponent >= 0 || reduced.Exponent >= 0
}
