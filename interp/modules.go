package interp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// moduleTables builds the importable module set. Only modules on the
// allow-list are ever bound into a snippet's environment.
func moduleTables() map[string]*module {
	return map[string]*module{
		"math":    mathModule(),
		"strings": stringsModule(),
		"json":    jsonModule(),
		"time":    timeModule(),
	}
}

func fn1(name string, f func(float64) float64) *goFunc {
	return &goFunc{name: name, fn: func(_ context.Context, args []any) (any, error) {
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		x, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("%s: want a number, got %T", name, args[0])
		}
		return f(x), nil
	}}
}

func fn2(name string, f func(float64, float64) float64) *goFunc {
	return &goFunc{name: name, fn: func(_ context.Context, args []any) (any, error) {
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		x, ok1 := toFloat(args[0])
		y, ok2 := toFloat(args[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s: want numbers", name)
		}
		return f(x, y), nil
	}}
}

func strFn1(name string, f func(string) string) *goFunc {
	return &goFunc{name: name, fn: func(_ context.Context, args []any) (any, error) {
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: want a string, got %T", name, args[0])
		}
		return f(s), nil
	}}
}

func strFn2(name string, f func(string, string) any) *goFunc {
	return &goFunc{name: name, fn: func(_ context.Context, args []any) (any, error) {
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		a, ok1 := args[0].(string)
		b, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s: want strings", name)
		}
		return f(a, b), nil
	}}
}

func mathModule() *module {
	return &module{name: "math", members: map[string]any{
		"Pi":    math.Pi,
		"E":     math.E,
		"Sqrt":  fn1("math.Sqrt", math.Sqrt),
		"Pow":   fn2("math.Pow", math.Pow),
		"Floor": fn1("math.Floor", math.Floor),
		"Ceil":  fn1("math.Ceil", math.Ceil),
		"Abs":   fn1("math.Abs", math.Abs),
		"Log":   fn1("math.Log", math.Log),
		"Log2":  fn1("math.Log2", math.Log2),
		"Log10": fn1("math.Log10", math.Log10),
		"Exp":   fn1("math.Exp", math.Exp),
		"Sin":   fn1("math.Sin", math.Sin),
		"Cos":   fn1("math.Cos", math.Cos),
		"Tan":   fn1("math.Tan", math.Tan),
		"Mod":   fn2("math.Mod", math.Mod),
		"Max":   fn2("math.Max", math.Max),
		"Min":   fn2("math.Min", math.Min),
		"Round": fn1("math.Round", math.Round),
		"Trunc": fn1("math.Trunc", math.Trunc),
		"Cbrt":  fn1("math.Cbrt", math.Cbrt),
		"Hypot": fn2("math.Hypot", math.Hypot),
	}}
}

func stringsModule() *module {
	return &module{name: "strings", members: map[string]any{
		"ToUpper":   strFn1("strings.ToUpper", strings.ToUpper),
		"ToLower":   strFn1("strings.ToLower", strings.ToLower),
		"TrimSpace": strFn1("strings.TrimSpace", strings.TrimSpace),
		"Title":     strFn1("strings.Title", titleCase),
		"Contains": strFn2("strings.Contains", func(s, sub string) any {
			return strings.Contains(s, sub)
		}),
		"HasPrefix": strFn2("strings.HasPrefix", func(s, p string) any {
			return strings.HasPrefix(s, p)
		}),
		"HasSuffix": strFn2("strings.HasSuffix", func(s, p string) any {
			return strings.HasSuffix(s, p)
		}),
		"Split": strFn2("strings.Split", func(s, sep string) any {
			parts := strings.Split(s, sep)
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out
		}),
		"Fields": &goFunc{name: "strings.Fields", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("strings.Fields", args, 1); err != nil {
				return nil, err
			}
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("strings.Fields: want a string, got %T", args[0])
			}
			fields := strings.Fields(s)
			out := make([]any, len(fields))
			for i, f := range fields {
				out[i] = f
			}
			return out, nil
		}},
		"Join": &goFunc{name: "strings.Join", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("strings.Join", args, 2); err != nil {
				return nil, err
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("strings.Join: want a list, got %T", args[0])
			}
			sep, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("strings.Join: want a string separator, got %T", args[1])
			}
			parts := make([]string, len(list))
			for i, v := range list {
				parts[i] = stringify(v)
			}
			return strings.Join(parts, sep), nil
		}},
		"ReplaceAll": &goFunc{name: "strings.ReplaceAll", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("strings.ReplaceAll", args, 3); err != nil {
				return nil, err
			}
			s, ok1 := args[0].(string)
			old, ok2 := args[1].(string)
			repl, ok3 := args[2].(string)
			if !ok1 || !ok2 || !ok3 {
				return nil, fmt.Errorf("strings.ReplaceAll: want strings")
			}
			return strings.ReplaceAll(s, old, repl), nil
		}},
		"Repeat": &goFunc{name: "strings.Repeat", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("strings.Repeat", args, 2); err != nil {
				return nil, err
			}
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("strings.Repeat: want a string, got %T", args[0])
			}
			n, err := toInt("strings.Repeat", args[1])
			if err != nil {
				return nil, err
			}
			if n < 0 || n > 1<<20 {
				return nil, fmt.Errorf("strings.Repeat: count %d out of range", n)
			}
			return strings.Repeat(s, int(n)), nil
		}},
		"Index": strFn2("strings.Index", func(s, sub string) any {
			return int64(strings.Index(s, sub))
		}),
	}}
}

// titleCase upper-cases the first rune of each space-separated word.
func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r, size := utf8.DecodeRuneInString(f)
		fields[i] = string(unicode.ToUpper(r)) + f[size:]
	}
	return strings.Join(fields, " ")
}

func jsonModule() *module {
	return &module{name: "json", members: map[string]any{
		"Marshal": &goFunc{name: "json.Marshal", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("json.Marshal", args, 1); err != nil {
				return nil, err
			}
			data, err := json.Marshal(args[0])
			if err != nil {
				return nil, fmt.Errorf("json.Marshal: %v", err)
			}
			return string(data), nil
		}},
		"Unmarshal": &goFunc{name: "json.Unmarshal", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("json.Unmarshal", args, 1); err != nil {
				return nil, err
			}
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("json.Unmarshal: want a string, got %T", args[0])
			}
			var out any
			dec := json.NewDecoder(strings.NewReader(s))
			dec.UseNumber()
			if err := dec.Decode(&out); err != nil {
				return nil, fmt.Errorf("json.Unmarshal: %v", err)
			}
			return normalizeJSON(out), nil
		}},
	}}
}

// normalizeJSON converts decoded JSON into interpreter-native values:
// whole json.Numbers become int64, the rest float64.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i, e := range val {
			val[i] = normalizeJSON(e)
		}
		return val
	case map[string]any:
		for k, e := range val {
			val[k] = normalizeJSON(e)
		}
		return val
	default:
		return v
	}
}

func timeModule() *module {
	return &module{name: "time", members: map[string]any{
		"Now": &goFunc{name: "time.Now", fn: func(_ context.Context, args []any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("time.Now: want no args, got %d", len(args))
			}
			return time.Now().UTC().Format(time.RFC3339), nil
		}},
		"Unix": &goFunc{name: "time.Unix", fn: func(_ context.Context, args []any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("time.Unix: want no args, got %d", len(args))
			}
			return time.Now().Unix(), nil
		}},
		"Parse": &goFunc{name: "time.Parse", fn: func(_ context.Context, args []any) (any, error) {
			if err := wantArgs("time.Parse", args, 1); err != nil {
				return nil, err
			}
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("time.Parse: want a string, got %T", args[0])
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("time.Parse: %v", err)
			}
			return t.Unix(), nil
		}},
	}}
}
