package interp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sandrundev/sandrun/sandbox"
)

// defaultBuiltins builds the builtin function table for one execution.
// print and println write to the gateway's captured buffer, never the
// process stdout.
func defaultBuiltins(gw *sandbox.Gateway) map[string]*goFunc {
	b := map[string]*goFunc{}
	add := func(name string, fn func(ctx context.Context, args []any) (any, error)) {
		b[name] = &goFunc{name: name, fn: fn}
	}

	add("len", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("len", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case string:
			return int64(len(v)), nil
		case []any:
			return int64(len(v)), nil
		case map[string]any:
			return int64(len(v)), nil
		case nil:
			return int64(0), nil
		default:
			return nil, fmt.Errorf("len: unsupported type %T", v)
		}
	})

	add("append", func(_ context.Context, args []any) (any, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("append: want at least 1 arg")
		}
		list, ok := args[0].([]any)
		if !ok && args[0] != nil {
			return nil, fmt.Errorf("append: first arg must be a list, got %T", args[0])
		}
		out := append(append([]any(nil), list...), args[1:]...)
		return out, nil
	})

	add("print", func(_ context.Context, args []any) (any, error) {
		gw.Print(args...)
		return nil, nil
	})

	add("println", func(_ context.Context, args []any) (any, error) {
		gw.Println(args...)
		return nil, nil
	})

	add("min", func(_ context.Context, args []any) (any, error) {
		return reduceNumeric("min", args, func(a, b float64) bool { return b < a })
	})

	add("max", func(_ context.Context, args []any) (any, error) {
		return reduceNumeric("max", args, func(a, b float64) bool { return b > a })
	})

	add("abs", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("abs", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case int64:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case float64:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		default:
			return nil, fmt.Errorf("abs: want a number, got %T", v)
		}
	})

	add("sum", func(_ context.Context, args []any) (any, error) {
		items, err := flattenNumeric("sum", args)
		if err != nil {
			return nil, err
		}
		var total float64
		allInt := true
		for _, f := range items {
			if f != float64(int64(f)) {
				allInt = false
			}
			total += f
		}
		if allInt && total == float64(int64(total)) {
			return int64(total), nil
		}
		return total, nil
	})

	add("sorted", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("sorted", args, 1); err != nil {
			return nil, err
		}
		list, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("sorted: want a list, got %T", args[0])
		}
		out := append([]any(nil), list...)
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			less, err := lessValues(out[i], out[j])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return nil, fmt.Errorf("sorted: %w", sortErr)
		}
		return out, nil
	})

	add("keys", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("keys", args, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("keys: want a map, got %T", args[0])
		}
		out := make([]any, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
		return out, nil
	})

	add("values", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("values", args, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("values: want a map, got %T", args[0])
		}
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		sort.Strings(names)
		out := make([]any, 0, len(m))
		for _, k := range names {
			out = append(out, m[k])
		}
		return out, nil
	})

	add("contains", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("contains", args, 2); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case string:
			s, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("contains: want a string needle, got %T", args[1])
			}
			return strings.Contains(v, s), nil
		case []any:
			for _, item := range v {
				if equalValues(item, args[1]) {
					return true, nil
				}
			}
			return false, nil
		case map[string]any:
			s, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("contains: want a string key, got %T", args[1])
			}
			_, found := v[s]
			return found, nil
		default:
			return nil, fmt.Errorf("contains: unsupported type %T", v)
		}
	})

	add("range_list", func(_ context.Context, args []any) (any, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("range_list: want 1 or 2 args, got %d", len(args))
		}
		var lo, hi int64
		var err error
		if len(args) == 1 {
			hi, err = toInt("range_list", args[0])
		} else {
			if lo, err = toInt("range_list", args[0]); err == nil {
				hi, err = toInt("range_list", args[1])
			}
		}
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return []any{}, nil
		}
		out := make([]any, 0, hi-lo)
		for i := lo; i < hi; i++ {
			out = append(out, i)
		}
		return out, nil
	})

	add("str", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("str", args, 1); err != nil {
			return nil, err
		}
		return stringify(args[0]), nil
	})

	add("int", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("int", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case bool:
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("int: cannot convert %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("int: unsupported type %T", v)
		}
	})

	add("float", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("float", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("float: cannot convert %q", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("float: unsupported type %T", v)
		}
	})

	add("bool", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("bool", args, 1); err != nil {
			return nil, err
		}
		return truthy(args[0]), nil
	})

	add("type", func(_ context.Context, args []any) (any, error) {
		if err := wantArgs("type", args, 1); err != nil {
			return nil, err
		}
		switch args[0].(type) {
		case nil:
			return "nil", nil
		case bool:
			return "bool", nil
		case int64:
			return "int", nil
		case float64:
			return "float", nil
		case string:
			return "string", nil
		case []any:
			return "list", nil
		case map[string]any:
			return "map", nil
		case *funcValue, *goFunc, *toolFunc:
			return "func", nil
		default:
			return fmt.Sprintf("%T", args[0]), nil
		}
	})

	return b
}

// filterBuiltins keeps only the allowed names. Nil allowed means all.
func filterBuiltins(all map[string]*goFunc, allowed []string) map[string]*goFunc {
	if allowed == nil {
		return all
	}
	out := make(map[string]*goFunc, len(allowed))
	for _, name := range allowed {
		if fn, ok := all[name]; ok {
			out[name] = fn
		}
	}
	return out
}

func wantArgs(name string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: want %d args, got %d", name, n, len(args))
	}
	return nil
}

func toInt(name string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s: want an integer, got %T", name, v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// reduceNumeric picks one value from args (or a single list arg) using
// the pick predicate; integers stay integers.
func reduceNumeric(name string, args []any, pick func(best, candidate float64) bool) (any, error) {
	items := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			items = list
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no values", name)
	}
	best := items[0]
	bestF, ok := toFloat(best)
	if !ok {
		return nil, fmt.Errorf("%s: want numbers, got %T", name, best)
	}
	for _, v := range items[1:] {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s: want numbers, got %T", name, v)
		}
		if pick(bestF, f) {
			best, bestF = v, f
		}
	}
	return best, nil
}

func flattenNumeric(name string, args []any) ([]float64, error) {
	items := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			items = list
		}
	}
	out := make([]float64, 0, len(items))
	for _, v := range items {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s: want numbers, got %T", name, v)
		}
		out = append(out, f)
	}
	return out, nil
}

func lessValues(a, b any) (bool, error) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af < bf, nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs, nil
		}
	}
	return false, fmt.Errorf("cannot order %T and %T", a, b)
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
