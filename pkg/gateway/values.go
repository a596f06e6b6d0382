package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// AsString returns v as text when it has a string representation on both
// sides of the boundary.
func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// IntArg reads positional argument i as an integer. Foreign runtimes often
// hand numbers back as floats or json.Number, so integral values of those
// types are accepted too.
func IntArg(args []any, i int) (int64, error) {
	if i < 0 || i >= len(args) {
		return 0, fmt.Errorf("missing argument %d (got %d)", i, len(args))
	}

	switch n := args[i].(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("argument %d overflows int64", i)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("argument %d overflows int64", i)
		}
		return int64(n), nil
	case float32:
		return floatArg(i, float64(n))
	case float64:
		return floatArg(i, n)
	case json.Number:
		v, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %d is not an integer: %w", i, err)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("argument %d has unsupported type %T", i, args[i])
	}
}

// maxIntFloat is 2^63, the first float64 above the int64 range. MaxInt64
// itself rounds up to it.
const maxIntFloat = float64(1 << 63)

func floatArg(i int, n float64) (int64, error) {
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("argument %d is not an integer: %v", i, n)
	}
	if n >= maxIntFloat || n < math.MinInt64 {
		return 0, fmt.Errorf("argument %d overflows int64: %v", i, n)
	}
	return int64(n), nil
}
