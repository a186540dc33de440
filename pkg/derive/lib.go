package derive

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `get` reads an optional map entry.
		// Example: get(data, "num_salvedades", 1).
		cel.Function("get",
			cel.Overload("get_map_string_dyn",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType, cel.DynType}, cel.DynType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					m, ok := args[0].(traits.Mapper)
					if !ok {
						return types.NewErr("get: invalid map value")
					}

					v, found := m.Find(args[1])
					if !found || v == nil || v == types.NullValue {
						return args[2]
					}

					return v
				}),
			),
		),

		// `plural` picks a form by count.
		// Example: plural(int(data.num_salvedades), "salvedad", "salvedades").
		cel.Function("plural",
			cel.Overload("plural_int_string_string",
				[]*cel.Type{cel.IntType, cel.StringType, cel.StringType}, cel.StringType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					n, ok := args[0].(types.Int)
					if !ok {
						return types.NewErr("plural: invalid count")
					}

					if n > 1 {
						return args[2]
					}

					return args[1]
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles common YAML types and returns null for unsupported types.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int32:
		return types.Int(int64(v))

	case int64:
		return types.Int(v)

	case uint64:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float32:
		return types.Double(float64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case []string:
		return types.NewStringList(types.DefaultTypeAdapter, v)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		// For unsupported types, return null instead of erroring.
		return types.NullValue
	}
}

// ConvertFromCELValue converts a CEL result to a plain Go value: nil, bool,
// int64, uint64, float64, string, []any or map[string]any.
func ConvertFromCELValue(v ref.Val) any {
	switch v := v.(type) {
	case types.Null:
		return nil

	case traits.Lister:
		size, ok := v.Size().(types.Int)
		if !ok {
			return nil
		}

		items := make([]any, 0, size)
		for i := range size {
			items = append(items, ConvertFromCELValue(v.Get(i)))
		}

		return items

	case traits.Mapper:
		m := map[string]any{}

		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			m[fmt.Sprint(key.Value())] = ConvertFromCELValue(v.Get(key))
		}

		return m
	}

	return v.Value()
}
