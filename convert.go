package lamina

import (
	"fmt"
	"sort"
	"time"

	"github.com/laminadb/lamina/internal/domain/value"
)

// toValue converts a native Go value into a field value. Maps, slices,
// nil, booleans, strings, byte slices, time.Time and the numeric types
// produced by encoding/json are supported.
func toValue(v any) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Boolean(x), nil
	case int:
		return value.Integer(int64(x)), nil
	case int32:
		return value.Integer(int64(x)), nil
	case int64:
		return value.Integer(x), nil
	case float32:
		return value.Double(float64(x)), nil
	case float64:
		return value.Double(x), nil
	case string:
		return value.String(x), nil
	case []byte:
		return value.Bytes(x), nil
	case time.Time:
		return value.Timestamp(x), nil
	case value.Value:
		return x, nil
	case []any:
		elements := make([]value.Value, len(x))
		for i, e := range x {
			ev, err := toValue(e)
			if err != nil {
				return value.Value{}, err
			}
			elements[i] = ev
		}
		return value.Array(elements...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]value.MapEntry, 0, len(x))
		for _, k := range keys {
			ev, err := toValue(x[k])
			if err != nil {
				return value.Value{}, err
			}
			entries = append(entries, value.MapEntry{Key: k, Value: ev})
		}
		return value.Map(entries...), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported field value type %T", v)
	}
}

func toObject(data map[string]any) (value.Value, error) {
	if data == nil {
		data = map[string]any{}
	}
	return toValue(data)
}
