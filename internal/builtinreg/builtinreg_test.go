package builtinreg

import "testing"

func TestValueCloneDeepCopiesStruct(t *testing.T) {
	s := Struct("Point")
	x := Int(1)
	s.Fields["x"] = &x
	c := s.Clone()
	*c.Fields["x"] = Int(99)
	if s.Fields["x"].Int != 1 {
		t.Fatalf("clone mutation leaked into original: %+v", s)
	}
}

func TestValueCloneDeepCopiesSlice(t *testing.T) {
	s := Slice([]Value{Int(1), Int(2)}, 2)
	c := s.Clone()
	c.Elems[0] = Int(99)
	if s.Elems[0].Int != 1 {
		t.Fatalf("clone mutation leaked into original elems: %+v", s)
	}
}

func TestIOBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{"cm_println_string", "cm_print_string", "cm_println_formatted"} {
		if !IsBuiltin(name) {
			t.Fatalf("expected %s to be registered", name)
		}
	}
}

func TestStringLenCountsRunesNotBytes(t *testing.T) {
	v, err := Call("__builtin_string_len", []Value{Str("héllo")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 5 {
		t.Fatalf("expected rune-count 5, got %d", v.Int)
	}
}

func TestStringIndexOf(t *testing.T) {
	v, err := Call("__builtin_string_indexOf", []Value{Str("hello world"), Str("world")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 6 {
		t.Fatalf("expected index 6, got %d", v.Int)
	}
}

func TestStringIndexOfMissingReturnsNegativeOne(t *testing.T) {
	v, _ := Call("__builtin_string_indexOf", []Value{Str("hello"), Str("zzz")})
	if v.Int != -1 {
		t.Fatalf("expected -1, got %d", v.Int)
	}
}

func TestArrayIndexOfAndIncludes(t *testing.T) {
	arr := Value{Kind: KindArray, Elems: []Value{Int(10), Int(20), Int(30)}}
	idx, _ := Call("__builtin_array_indexOf", []Value{arr, Int(20)})
	if idx.Int != 1 {
		t.Fatalf("expected index 1, got %d", idx.Int)
	}
	inc, _ := Call("__builtin_array_includes_i32", []Value{arr, Int(99)})
	if inc.Bool {
		t.Fatalf("expected includes(99) to be false")
	}
}

func TestArrayReverseDoesNotMutateOriginal(t *testing.T) {
	arr := Value{Kind: KindArray, Elems: []Value{Int(1), Int(2), Int(3)}}
	rev, err := Call("__builtin_array_reverse", []Value{arr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev.Elems[0].Int != 3 || rev.Elems[2].Int != 1 {
		t.Fatalf("unexpected reversed array: %+v", rev)
	}
	if arr.Elems[0].Int != 1 {
		t.Fatalf("original array mutated: %+v", arr)
	}
}

func TestSlicePushGrowsLenAndCap(t *testing.T) {
	s := Slice([]Value{Int(1)}, 1)
	out, err := Call("cm_slice_push", []Value{s, Int(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Elems) != 2 || out.Elems[1].Int != 2 {
		t.Fatalf("unexpected push result: %+v", out)
	}
	if out.Cap < 2 {
		t.Fatalf("expected cap to grow to at least 2, got %d", out.Cap)
	}
}

func TestSlicePopShrinks(t *testing.T) {
	s := Slice([]Value{Int(1), Int(2), Int(3)}, 3)
	out, _ := Call("cm_slice_pop", []Value{s})
	if len(out.Elems) != 2 {
		t.Fatalf("expected 2 elems after pop, got %d", len(out.Elems))
	}
}

func TestSliceSubsliceSharesNoStateWithOriginal(t *testing.T) {
	s := Slice([]Value{Int(1), Int(2), Int(3), Int(4)}, 4)
	sub, _ := Call("cm_slice_subslice", []Value{s, Int(1), Int(3)})
	if len(sub.Elems) != 2 || sub.Elems[0].Int != 2 || sub.Elems[1].Int != 3 {
		t.Fatalf("unexpected subslice: %+v", sub)
	}
	sub.Elems[0] = Int(99)
	if s.Elems[1].Int != 2 {
		t.Fatalf("subslice mutation leaked into original: %+v", s)
	}
}

func TestArrayToSliceAndBack(t *testing.T) {
	arr := Value{Kind: KindArray, Elems: []Value{Int(1), Int(2)}}
	sl, err := Call("cm_array_to_slice", []Value{arr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sl.Kind != KindSlice || len(sl.Elems) != 2 {
		t.Fatalf("unexpected slice conversion: %+v", sl)
	}
	back, _ := Call("cm_slice_to_array", []Value{sl})
	if back.Kind != KindArray || len(back.Elems) != 2 {
		t.Fatalf("unexpected array conversion: %+v", back)
	}
}

func TestArrayEqualStructural(t *testing.T) {
	a := Value{Kind: KindArray, Elems: []Value{Int(1), Int(2)}}
	b := Value{Kind: KindArray, Elems: []Value{Int(1), Int(2)}}
	c := Value{Kind: KindArray, Elems: []Value{Int(1), Int(3)}}
	eq1, _ := Call("cm_array_equal", []Value{a, b})
	eq2, _ := Call("cm_array_equal", []Value{a, c})
	if !eq1.Bool {
		t.Fatalf("expected equal arrays to compare equal")
	}
	if eq2.Bool {
		t.Fatalf("expected differing arrays to compare unequal")
	}
}

func TestFormatBasicTemplate(t *testing.T) {
	v, err := Call("__cm_format", []Value{Str("{} + {} = {}"), Int(2), Int(3), Int(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str != "2 + 3 = 5" {
		t.Fatalf("unexpected format output: %q", v.Str)
	}
}

func TestFormatWithSpecBody(t *testing.T) {
	v, err := Call("__cm_format", []Value{Str("{:04X}"), Int(255)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str != "00FF" {
		t.Fatalf("expected 00FF, got %q", v.Str)
	}
}

func TestFormatStringBuiltin(t *testing.T) {
	v, err := Call("__cm_format_string", []Value{Float(3.14159), Str(".2f")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str != "3.14" {
		t.Fatalf("expected 3.14, got %q", v.Str)
	}
}

func TestMemoryBuiltinsAreForbidden(t *testing.T) {
	for _, name := range []string{"malloc", "realloc", "free", "memcpy", "memset"} {
		d, ok := Lookup(name)
		if !ok {
			t.Fatalf("expected %s to be registered", name)
		}
		if !d.Forbidden {
			t.Fatalf("expected %s to be marked Forbidden", name)
		}
		if _, err := Call(name, nil); err == nil {
			t.Fatalf("expected %s to error when invoked", name)
		}
	}
}

func TestUnresolvedBuiltinErrors(t *testing.T) {
	if _, err := Call("not_a_real_builtin", nil); err == nil {
		t.Fatalf("expected error for unresolved builtin")
	}
}
