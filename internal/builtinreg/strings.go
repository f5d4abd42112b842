package builtinreg

import "strings"

// registerStrings wires the __builtin_string_* table (spec.md §6).
func registerStrings() {
	register(Def{Name: "__builtin_string_len", JSHelper: "", Impl: func(args []Value) (Value, error) {
		return Int(int64(len([]rune(argString(args, 0))))), nil
	}})
	register(Def{Name: "__builtin_string_charAt", Impl: func(args []Value) (Value, error) {
		r := []rune(argString(args, 0))
		i := argInt(args, 1)
		if i < 0 || int(i) >= len(r) {
			return Str(""), nil
		}
		return Str(string(r[i])), nil
	}})
	register(Def{Name: "__builtin_string_substring", Impl: func(args []Value) (Value, error) {
		r := []rune(argString(args, 0))
		start := clampIdx(argInt(args, 1), len(r))
		end := clampIdx(argInt(args, 2), len(r))
		if start > end {
			start, end = end, start
		}
		return Str(string(r[start:end])), nil
	}})
	register(Def{Name: "__builtin_string_indexOf", Impl: func(args []Value) (Value, error) {
		return Int(int64(runeIndex(argString(args, 0), argString(args, 1)))), nil
	}})
	register(Def{Name: "__builtin_string_toUpperCase", Impl: func(args []Value) (Value, error) {
		return Str(strings.ToUpper(argString(args, 0))), nil
	}})
	register(Def{Name: "__builtin_string_toLowerCase", Impl: func(args []Value) (Value, error) {
		return Str(strings.ToLower(argString(args, 0))), nil
	}})
	register(Def{Name: "__builtin_string_trim", Impl: func(args []Value) (Value, error) {
		return Str(strings.TrimSpace(argString(args, 0))), nil
	}})
	register(Def{Name: "__builtin_string_startsWith", Impl: func(args []Value) (Value, error) {
		return Bool(strings.HasPrefix(argString(args, 0), argString(args, 1))), nil
	}})
	register(Def{Name: "__builtin_string_endsWith", Impl: func(args []Value) (Value, error) {
		return Bool(strings.HasSuffix(argString(args, 0), argString(args, 1))), nil
	}})
	register(Def{Name: "__builtin_string_includes", Impl: func(args []Value) (Value, error) {
		return Bool(strings.Contains(argString(args, 0), argString(args, 1))), nil
	}})
	register(Def{Name: "__builtin_string_repeat", Impl: func(args []Value) (Value, error) {
		n := argInt(args, 1)
		if n < 0 {
			n = 0
		}
		return Str(strings.Repeat(argString(args, 0), int(n))), nil
	}})
	register(Def{Name: "__builtin_string_replace", Impl: func(args []Value) (Value, error) {
		return Str(strings.ReplaceAll(argString(args, 0), argString(args, 1), argString(args, 2))), nil
	}})
	register(Def{Name: "__builtin_string_slice", Impl: func(args []Value) (Value, error) {
		r := []rune(argString(args, 0))
		start := clampIdx(argInt(args, 1), len(r))
		end := clampIdx(argInt(args, 2), len(r))
		if start > end {
			return Str(""), nil
		}
		return Str(string(r[start:end])), nil
	}})
	register(Def{Name: "__builtin_string_concat", JSHelper: "__cm_str_concat", Impl: func(args []Value) (Value, error) {
		return Str(argString(args, 0) + argString(args, 1)), nil
	}})
	register(Def{Name: "__builtin_string_first", Impl: func(args []Value) (Value, error) {
		r := []rune(argString(args, 0))
		if len(r) == 0 {
			return Str(""), nil
		}
		return Str(string(r[0])), nil
	}})
	register(Def{Name: "__builtin_string_last", Impl: func(args []Value) (Value, error) {
		r := []rune(argString(args, 0))
		if len(r) == 0 {
			return Str(""), nil
		}
		return Str(string(r[len(r)-1])), nil
	}})
}

func clampIdx(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if int(i) > n {
		return n
	}
	return int(i)
}

func runeIndex(haystack, needle string) int {
	hr := []rune(haystack)
	nr := []rune(needle)
	if len(nr) == 0 {
		return 0
	}
	for i := 0; i+len(nr) <= len(hr); i++ {
		match := true
		for j := range nr {
			if hr[i+j] != nr[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
