package lang

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/goccy/go-yaml"
)

// ToGo converts a value to plain Go data: int, float64, string, []any,
// []map[string]any for tables, and nil for unit. Quotes become their
// display text.
func ToGo(v Value) any {
	return toGo(v, false)
}

// toGo converts v; ordered renders table rows as [yaml.MapSlice] so that
// column order survives encoding.
func toGo(v Value, ordered bool) any {
	switch v := v.(type) {
	case Number:
		return int(v)

	case Float:
		return float64(v)

	case String:
		return string(v)

	case Array:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = toGo(e, ordered)
		}

		return out

	case Table:
		out := make([]any, len(v.rows))

		for r, row := range v.rows {
			if ordered {
				ms := make(yaml.MapSlice, len(row))
				for c, e := range row {
					ms[c] = yaml.MapItem{Key: v.columns[c], Value: toGo(e, ordered)}
				}

				out[r] = ms

				continue
			}

			m := make(map[string]any, len(row))
			for c, e := range row {
				m[v.columns[c]] = toGo(e, ordered)
			}

			out[r] = m
		}

		return out

	case QuoteValue:
		return v.String()

	default:
		return nil
	}
}

// FromGo converts plain Go data to a value. Booleans become 1 or 0,
// integers are truncated to 32 bits, slices become arrays and string-keyed
// maps become one-row tables with sorted columns. Anything else becomes its
// fmt representation.
func FromGo(x any) Value {
	switch x := x.(type) {
	case nil:
		return Unit{}
	case Value:
		return x
	case bool:
		if x {
			return Number(1)
		}

		return Number(0)
	case string:
		return String(x)
	case float32:
		return Float(x)
	case float64:
		return Float(float32(x))
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(int32(rv.Int()))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return Number(int32(rv.Uint()))

	case reflect.Slice, reflect.Array:
		out := make(Array, rv.Len())
		for i := range out {
			out[i] = FromGo(rv.Index(i).Interface())
		}

		return out

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		cells := make(map[string]Value, rv.Len())
		for _, k := range rv.MapKeys() {
			cells[k.String()] = FromGo(rv.MapIndex(k).Interface())
		}

		cols := slices.Sorted(maps.Keys(cells))

		row := make([]Value, len(cols))
		for i, c := range cols {
			row[i] = cells[c]
		}

		return Table{columns: cols, rows: [][]Value{row}}
	}

	return String(fmt.Sprint(x))
}
