package jsemit

import "strings"

// runtimeHelpers maps each `__cm_`-prefixed helper name to its JS source
// and the other helpers it calls, so renderRuntime can expand transitive
// dependencies once (§4.12 "Runtime helpers" — "emit only the subset of
// the fixed helper table actually referenced"). Grounded on
// original_source/src/codegen/js/runtime.cpp's fixed helper table, adapted
// from C source text to JS source text.
var runtimeHelpers = map[string]struct {
	source string
	needs  []string
}{
	"__cm_ptr_add": {
		source: "function __cm_ptr_add(p, n) {\n" +
			"  if (p && typeof p === 'object' && '__arr' in p) return { __arr: p.__arr, __idx: p.__idx + n };\n" +
			"  return p + n;\n" +
			"}",
	},
	"__cm_ptr_sub": {
		source: "function __cm_ptr_sub(p, n) {\n" +
			"  if (p && typeof p === 'object' && '__arr' in p) {\n" +
			"    if (typeof n === 'object' && '__arr' in n) return p.__idx - n.__idx;\n" +
			"    return { __arr: p.__arr, __idx: p.__idx - n };\n" +
			"  }\n" +
			"  return p - n;\n" +
			"}",
	},
	"__cm_str_concat": {
		source: "function __cm_str_concat(a, b) { return String(a) + String(b); }",
	},
	"__cm_slice": {
		source: "function __cm_slice(arr) { return { data: arr.slice(), cap: arr.length }; }",
	},
	"__cm_format": {
		source: "function __cm_format(spec, ...args) { return __cm_format_impl(spec, args); }",
		needs:  []string{"__cm_format_impl"},
	},
	"__cm_format_string": {
		source: "function __cm_format_string(value, spec) { return __cm_format_impl(spec, [value]); }",
		needs:  []string{"__cm_format_impl"},
	},
	// __cm_format_impl and __cm_format_one reimplement the fill, align,
	// zero-fill and width parts of internal/fmtspec (see fmtspec.Parse and
	// Spec.pad) in JS, since the emitted program cannot import a Go
	// package. A spec with a precision or a type code does not match, and
	// the value is returned as String(v) without padding.
	"__cm_format_impl": {
		source: "function __cm_format_impl(spec, values) {\n" +
			"  let i = 0;\n" +
			"  return String(spec).replace(/\\{(\\d*)(?::([^}]*))?\\}/g, (m, idx, fmt) => {\n" +
			"    const v = values[idx === '' ? i++ : Number(idx)];\n" +
			"    return __cm_format_one(v, fmt || '');\n" +
			"  });\n" +
			"}",
		needs: []string{"__cm_format_one"},
	},
	"__cm_format_one": {
		source: "function __cm_format_one(v, fmt) {\n" +
			"  let s = String(v);\n" +
			"  const m = /^(?:(.)(?=[<>^]))?([<>^]?)(0?)(\\d*)$/.exec(fmt);\n" +
			"  if (!m) return s;\n" +
			"  const [, fillCh, align, zero, widthStr] = m;\n" +
			"  const width = widthStr ? Number(widthStr) : 0;\n" +
			"  const fill = fillCh || (zero && !align ? '0' : ' ');\n" +
			"  while (s.length < width) {\n" +
			"    if (align === '<') s = s + fill; else if (align === '^') s = (s.length % 2 ? fill + s : s + fill); else s = fill + s;\n" +
			"  }\n" +
			"  return s;\n" +
			"}",
	},
}

// renderRuntime emits the transitive closure of used, expanding
// dependencies until fixed point, in a stable (sorted) order so output is
// deterministic across runs.
func renderRuntime(used map[string]bool) string {
	closure := map[string]bool{}
	var add func(name string)
	add = func(name string) {
		if closure[name] {
			return
		}
		h, ok := runtimeHelpers[name]
		if !ok {
			return
		}
		closure[name] = true
		for _, dep := range h.needs {
			add(dep)
		}
	}
	for name := range used {
		add(name)
	}
	if len(closure) == 0 {
		return ""
	}

	names := make([]string, 0, len(closure))
	for name := range closure {
		names = append(names, name)
	}
	sortStrings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(runtimeHelpers[name].source)
		b.WriteString("\n\n")
	}
	return b.String()
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
