package jsemit

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
	"github.com/iancoleman/strcase"
)

// emitStruct emits a constructor function returning an object literal with
// every field initialized to its type's default (§4.12 "Structural
// emission" — recursive for nested structs, Array.from for arrays).
func (e *emitter) emitStruct(s *mir.StructDef) {
	e.line("function %s() {", ctorName(s.Name))
	e.indent++
	e.line("return {")
	e.indent++
	for _, f := range s.Fields {
		key := f.Name
		if s.CSSTagged {
			key = fmt.Sprintf("%q", strcase.ToKebab(f.Name))
		}
		e.line("%s: %s,", key, e.defaultValue(f.Type))
	}
	e.indent--
	e.line("};")
	e.indent--
	e.line("}")
	e.blank()
}

func ctorName(structName string) string { return "make_" + structName }

// defaultValue renders the zero value of t, recursively for struct/array
// fields, matching §4.12's "every field initialized to the field-type's
// default".
func (e *emitter) defaultValue(t *hirtype.Type) string {
	if t == nil {
		return "undefined"
	}
	switch t.Kind {
	case hirtype.KindUnit:
		return "undefined"
	case hirtype.KindBool:
		return "false"
	case hirtype.KindInt, hirtype.KindChar:
		return "0"
	case hirtype.KindFloat:
		return "0.0"
	case hirtype.KindString:
		return `""`
	case hirtype.KindPointer, hirtype.KindInterface:
		return "null"
	case hirtype.KindArray:
		return fmt.Sprintf("Array.from({length: %d}, () => %s)", t.Len, e.defaultValue(t.Elem))
	case hirtype.KindSlice:
		return "{ data: [], cap: 0 }"
	case hirtype.KindStruct:
		return ctorName(t.Name) + "()"
	default:
		return "undefined"
	}
}

// emitVTable emits a vtable object for one (type, interface) pair, but
// only when every referenced impl resolves to a defined function (§3
// "VTable" — "skipping uninstantiated generic templates").
func (e *emitter) emitVTable(v *mir.VTable) {
	for _, entry := range v.Impls {
		if e.program.FuncByName(entry.Impl) == nil {
			return
		}
	}
	e.line("const %s = {", vtableName(v.ConcreteType, v.Interface))
	e.indent++
	for _, entry := range v.Impls {
		e.line("%s: %s,", entry.Method, entry.Impl)
	}
	e.indent--
	e.line("};")
	e.blank()
}

func vtableName(concreteType, iface string) string {
	return fmt.Sprintf("__vt_%s_%s", concreteType, iface)
}
