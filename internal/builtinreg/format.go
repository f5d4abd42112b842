package builtinreg

import (
	"strings"

	"github.com/cm-lang/cmc/internal/fmtspec"
)

// registerFormat wires __cm_format and __cm_format_string, both built on
// top of internal/fmtspec so the interpreter and the JS emitter's runtime
// helper render a format spec identically (spec.md §6).
func registerFormat() {
	// __cm_format(template, arg0, arg1, ...): template holds '{}' or
	// '{:spec}' placeholders, filled positionally from the remaining
	// args, mirroring the JS runtime helper of the same name.
	register(Def{Name: "__cm_format", Impl: func(args []Value) (Value, error) {
		template := argString(args, 0)
		rest := args[1:]
		return Str(expandTemplate(template, rest)), nil
	}})

	// __cm_format_string(value, specString): formats a single value
	// against an explicit spec body (no surrounding braces).
	register(Def{Name: "__cm_format_string", Impl: func(args []Value) (Value, error) {
		v := argAt(args, 0)
		sp := fmtspec.Parse(argString(args, 1))
		return Str(formatValue(v, sp)), nil
	}})
}

// expandTemplate replaces each '{...}' placeholder in template with the
// corresponding positional argument, formatted per the placeholder's
// spec body.
func expandTemplate(template string, args []Value) string {
	var b strings.Builder
	argIdx := 0
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				break
			}
			body := template[i+1 : i+end]
			specBody := body
			if len(specBody) > 0 && specBody[0] == ':' {
				specBody = specBody[1:]
			}
			sp := fmtspec.Parse(specBody)
			if argIdx < len(args) {
				b.WriteString(formatValue(args[argIdx], sp))
				argIdx++
			}
			i += end + 1
			continue
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}

// formatValue dispatches a Value to the fmtspec renderer matching its
// kind; non-numeric, non-string kinds fall back to Value.String.
func formatValue(v Value, sp fmtspec.Spec) string {
	switch v.Kind {
	case KindInt:
		return fmtspec.FormatInt(v.Int, sp)
	case KindFloat:
		return fmtspec.FormatFloat(v.Float, sp)
	case KindChar:
		if sp.Type == 0 {
			return fmtspec.FormatString(string(v.Char), sp)
		}
		return fmtspec.FormatInt(int64(v.Char), sp)
	case KindString:
		return fmtspec.FormatString(v.Str, sp)
	default:
		return fmtspec.FormatString(v.String(), sp)
	}
}
