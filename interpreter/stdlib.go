package interpreter

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/lykia-rs/lykiadb/value"
)

// Stdlib builds the host functions injected into the root environment.
// Aggregates are registered as callables flagged Aggregate; called outside
// a query they operate on an array argument.
func Stdlib(out *Output) map[string]*Callable {
	lib := map[string]*Callable{
		"out": {
			Name: "out",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				out.Push(args...)
				return value.Undefined{}, nil
			},
		},
		"len": {
			Name: "len",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) == 0 {
					return value.Undefined{}, nil
				}
				switch v := args[0].(type) {
				case value.Str:
					return value.Num(len(v)), nil
				case *value.Array:
					return value.Num(v.Len()), nil
				case *value.Object:
					return value.Num(v.Len()), nil
				}
				return value.Undefined{}, nil
			},
		},
		"str": {
			Name: "str",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) == 0 {
					return value.Str(""), nil
				}
				switch v := args[0].(type) {
				case value.Num:
					return value.Str(cast.ToString(float64(v))), nil
				case value.Bool:
					return value.Str(cast.ToString(bool(v))), nil
				}
				return value.Str(value.Format(args[0])), nil
			},
		},
		"num": {
			Name: "num",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) == 0 {
					return value.Undefined{}, nil
				}
				if s, ok := args[0].(value.Str); ok {
					parsed, err := cast.ToFloat64E(string(s))
					if err != nil {
						return value.Undefined{}, nil
					}
					return value.Num(parsed), nil
				}
				if n, ok := value.AsNumber(args[0]); ok {
					return value.Num(n), nil
				}
				return value.Undefined{}, nil
			},
		},
		"bool": {
			Name: "bool",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) == 0 {
					return value.Bool(false), nil
				}
				return value.Bool(args[0].Truthy()), nil
			},
		},
		"upper": {
			Name: "upper",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) > 0 {
					if s, ok := value.AsString(args[0]); ok {
						return value.Str(strings.ToUpper(s)), nil
					}
				}
				return value.Undefined{}, nil
			},
		},
		"lower": {
			Name: "lower",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) > 0 {
					if s, ok := value.AsString(args[0]); ok {
						return value.Str(strings.ToLower(s)), nil
					}
				}
				return value.Undefined{}, nil
			},
		},
		"keys": {
			Name: "keys",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) > 0 {
					if obj, ok := args[0].(*value.Object); ok {
						keys := make([]value.Value, 0, obj.Len())
						for _, key := range obj.Keys() {
							keys = append(keys, value.Str(key))
						}
						return value.NewArray(keys...), nil
					}
				}
				return value.Undefined{}, nil
			},
		},
		"push": {
			Name: "push",
			Native: func(_ *Interpreter, args []value.Value) (value.Value, error) {
				if len(args) == 0 {
					return value.Undefined{}, nil
				}
				arr, ok := args[0].(*value.Array)
				if !ok {
					return value.Undefined{}, nil
				}
				for _, v := range args[1:] {
					arr.Push(v)
				}
				return arr, nil
			},
		},
	}

	for _, name := range []string{"count", "sum", "avg", "min", "max"} {
		lib[name] = &Callable{
			Name:      name,
			Aggregate: true,
			Native:    aggregateNative(name),
		}
	}
	return lib
}

// aggregateNative implements direct calls of an aggregate over an array.
func aggregateNative(name string) NativeFn {
	return func(_ *Interpreter, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Undefined{}, nil
		}
		arr, ok := args[0].(*value.Array)
		if !ok {
			return value.Undefined{}, nil
		}
		items := arr.Values()

		switch name {
		case "count":
			return value.Num(len(items)), nil
		case "sum", "avg":
			total := 0.0
			numeric := 0
			for _, item := range items {
				if n, ok := value.AsNumber(item); ok {
					total += n
					numeric++
				}
			}
			if name == "sum" {
				return value.Num(total), nil
			}
			if numeric == 0 {
				return value.Undefined{}, nil
			}
			return value.Num(total / float64(numeric)), nil
		case "min", "max":
			var best value.Value
			for _, item := range items {
				if _, undefined := item.(value.Undefined); undefined {
					continue
				}
				if best == nil {
					best = item
					continue
				}
				cmp, ok := value.Compare(item, best)
				if ok && ((name == "min" && cmp < 0) || (name == "max" && cmp > 0)) {
					best = item
				}
			}
			if best == nil {
				return value.Undefined{}, nil
			}
			return best, nil
		}
		return value.Undefined{}, nil
	}
}
