package builtinreg

// registerSlices wires the cm_slice_* table (spec.md §6), including the
// typed suffix variants (_i32/_i64/_bool/_string, the set the spec's
// "with typed suffixes" note implies); all share one implementation for
// the same reason arrays.go's width suffixes do.
func registerSlices() {
	base := map[string]Func{
		"get": func(args []Value) (Value, error) {
			s := argAt(args, 0)
			i := clampIdx(argInt(args, 1), len(s.Elems))
			if i >= len(s.Elems) {
				return Unit(), nil
			}
			return s.Elems[i].Clone(), nil
		},
		"set": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			i := argInt(args, 1)
			if i >= 0 && int(i) < len(s.Elems) {
				s.Elems[i] = argAt(args, 2).Clone()
			}
			return s, nil
		},
		"push": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			s.Elems = append(s.Elems, argAt(args, 1).Clone())
			if len(s.Elems) > s.Cap {
				s.Cap = len(s.Elems)
			}
			return s, nil
		},
		"pop": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			if len(s.Elems) == 0 {
				return s, nil
			}
			s.Elems = s.Elems[:len(s.Elems)-1]
			return s, nil
		},
		"delete": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			i := argInt(args, 1)
			if i < 0 || int(i) >= len(s.Elems) {
				return s, nil
			}
			s.Elems = append(s.Elems[:i], s.Elems[i+1:]...)
			return s, nil
		},
		"clear": func(args []Value) (Value, error) {
			s := argAt(args, 0)
			return Slice(nil, s.Cap), nil
		},
		"len": func(args []Value) (Value, error) {
			return Int(int64(len(argAt(args, 0).Elems))), nil
		},
		"cap": func(args []Value) (Value, error) {
			return Int(int64(argAt(args, 0).Cap)), nil
		},
		"subslice": func(args []Value) (Value, error) {
			s := argAt(args, 0)
			start := clampIdx(argInt(args, 1), len(s.Elems))
			end := clampIdx(argInt(args, 2), len(s.Elems))
			if start > end {
				start = end
			}
			out := make([]Value, end-start)
			for i := range out {
				out[i] = s.Elems[start+i].Clone()
			}
			return Slice(out, end-start), nil
		},
		"push_slice": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			other := argAt(args, 1)
			for _, e := range other.Elems {
				s.Elems = append(s.Elems, e.Clone())
			}
			if len(s.Elems) > s.Cap {
				s.Cap = len(s.Elems)
			}
			return s, nil
		},
		"sort": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			sortValues(s.Elems)
			return s, nil
		},
		"reverse": func(args []Value) (Value, error) {
			s := argAt(args, 0).Clone()
			for i, j := 0, len(s.Elems)-1; i < j; i, j = i+1, j-1 {
				s.Elems[i], s.Elems[j] = s.Elems[j], s.Elems[i]
			}
			return s, nil
		},
		"first": func(args []Value) (Value, error) {
			s := argAt(args, 0)
			if len(s.Elems) == 0 {
				return Unit(), nil
			}
			return s.Elems[0].Clone(), nil
		},
		"last": func(args []Value) (Value, error) {
			s := argAt(args, 0)
			if len(s.Elems) == 0 {
				return Unit(), nil
			}
			return s.Elems[len(s.Elems)-1].Clone(), nil
		},
		"equal": func(args []Value) (Value, error) {
			return Bool(valuesEqual(argAt(args, 0), argAt(args, 1))), nil
		},
	}
	for name, impl := range base {
		for _, suffix := range []string{"", "_i32", "_i64", "_bool", "_string"} {
			register(Def{Name: "cm_slice_" + name + suffix, Impl: impl})
		}
	}
}

func sortValues(vs []Value) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && lessValue(vs[j], vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

func lessValue(a, b Value) bool {
	switch a.Kind {
	case KindInt:
		return a.Int < b.Int
	case KindFloat:
		return a.Float < b.Float
	case KindString:
		return a.Str < b.Str
	case KindChar:
		return a.Char < b.Char
	default:
		return false
	}
}

// registerArraySliceConv wires cm_array_to_slice, cm_slice_to_array, and
// cm_array_equal.
func registerArraySliceConv() {
	register(Def{Name: "cm_array_to_slice", JSHelper: "__cm_slice", Impl: func(args []Value) (Value, error) {
		arr := argAt(args, 0)
		elems := make([]Value, len(arr.Elems))
		for i, e := range arr.Elems {
			elems[i] = e.Clone()
		}
		return Slice(elems, len(elems)), nil
	}})
	register(Def{Name: "cm_slice_to_array", Impl: func(args []Value) (Value, error) {
		s := argAt(args, 0)
		elems := make([]Value, len(s.Elems))
		for i, e := range s.Elems {
			elems[i] = e.Clone()
		}
		return Value{Kind: KindArray, Elems: elems}, nil
	}})
	register(Def{Name: "cm_array_equal", Impl: func(args []Value) (Value, error) {
		return Bool(valuesEqual(argAt(args, 0), argAt(args, 1))), nil
	}})
}
