package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"iris-ml/internal/common"
)

// ToFloat64 coerces a scalar to float64. Booleans become 0 or 1; anything
// that is not numeric or boolean is an UnsupportedTypeError.
func ToFloat64(column string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, &common.UnsupportedTypeError{Column: column, Type: "json.Number"}
		}
		return f, nil
	case []byte:
		// SQL drivers return NUMERIC/DECIMAL columns as text.
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, &common.UnsupportedTypeError{Column: column, Type: "[]byte"}
		}
		return f, nil
	default:
		return 0, &common.UnsupportedTypeError{Column: column, Type: typeName(v)}
	}
}

// LabelValue types a target value: an int64 class identifier when integer
// is set, otherwise a float64.
func LabelValue(column string, v any, integer bool) (any, error) {
	f, err := ToFloat64(column, v)
	if err != nil {
		return nil, err
	}
	if !integer {
		return f, nil
	}
	if f != math.Trunc(f) {
		return nil, &common.UnsupportedTypeError{Column: column, Type: "non-integral " + typeName(v)}
	}
	return int64(f), nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
