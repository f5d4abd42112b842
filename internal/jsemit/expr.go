package jsemit

import (
	"fmt"
	"strings"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
	"github.com/iancoleman/strcase"
)

// jsIdent sanitizes a MIR local/function name into a valid JS identifier
// fragment; uniqueness across locals with the same source name but
// different ids is guaranteed by localName's numeric suffix, not by this
// function.
func jsIdent(name string) string {
	if name == "" {
		return "v"
	}
	var b strings.Builder
	for i, r := range name {
		valid := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// localName returns the JS identifier for a local, unique within the
// function by suffixing the stable LocalID.
func (e *emitter) localName(fn *mir.Function, id mir.LocalID) string {
	return fmt.Sprintf("%s_%d", jsIdent(fn.Local(id).Name), id)
}

// readLocal renders a use of a local's current value: an inline candidate
// substitutes its pre-rendered defining expression (§4.12 bullet 3);
// a boxed local reads through its wrapper's [0] slot (§4.12 "Reference
// semantics"); otherwise it is a plain variable reference.
func (e *emitter) readLocal(fn *mir.Function, fi *funcInfo, id mir.LocalID) string {
	if text, ok := e.inlineText(fn, fi, id); ok {
		return text
	}
	name := e.localName(fn, id)
	if fi.isBoxed(fn, id) {
		return name + "[0]"
	}
	return name
}

// inlineText returns the pre-rendered value of an inline-candidate local,
// computing and memoizing it on first use. A local mid-render (a
// self-referential chain, which a single-assignment IR should never
// produce) falls back to its variable name to avoid infinite recursion.
func (e *emitter) inlineText(fn *mir.Function, fi *funcInfo, id mir.LocalID) (string, bool) {
	if !fi.inlineCandidate(fn, id) {
		return "", false
	}
	if e.inlineCache == nil {
		e.inlineCache = map[mir.LocalID]string{}
	}
	if cached, ok := e.inlineCache[id]; ok {
		return cached, true
	}
	if e.inlineRendering[id] {
		return e.localName(fn, id), true
	}
	if e.inlineRendering == nil {
		e.inlineRendering = map[mir.LocalID]bool{}
	}
	rv, ok := fi.inlineValue(fn, id)
	if !ok {
		return "", false
	}
	e.inlineRendering[id] = true
	text := e.renderRvalue(fn, fi, rv)
	delete(e.inlineRendering, id)
	e.inlineCache[id] = text
	return text, true
}

func (e *emitter) renderOperand(fn *mir.Function, fi *funcInfo, op mir.Operand) string {
	switch o := op.(type) {
	case mir.CopyOperand:
		return e.renderPlace(fn, fi, o.Place)
	case mir.MoveOperand:
		return e.renderPlace(fn, fi, o.Place)
	case mir.ConstantOperand:
		return e.renderConstant(o.Value)
	case mir.FunctionRefOperand:
		return o.Name
	default:
		return "undefined"
	}
}

// renderPlace walks p's projection chain the way interp.resolvePlace does,
// but producing JS source text instead of reading a live Value: field
// projections become `.name` (or bracket-quoted kebab-case for CSS-tagged
// structs), index projections become `[idx]`, and Deref is a no-op
// (§4.12: "Deref of a pointer-to-struct is a no-op").
func (e *emitter) renderPlace(fn *mir.Function, fi *funcInfo, p mir.Place) string {
	expr := e.readLocal(fn, fi, p.Local)
	curType := fn.Local(p.Local).Type

	for _, proj := range p.Projections {
		switch pr := proj.(type) {
		case mir.DerefProj:
			if curType != nil {
				curType = curType.Elem
			}
		case mir.FieldProj:
			def, name := e.fieldOf(curType, pr.Field)
			if def != nil && def.CSSTagged {
				expr += fmt.Sprintf("[%q]", strcase.ToKebab(name))
			} else {
				expr += "." + name
			}
			if def != nil {
				curType = fieldType(def, pr.Field)
			} else {
				curType = nil
			}
		case mir.IndexProj:
			expr += "[" + e.readLocal(fn, fi, pr.IndexLocal) + "]"
			if curType != nil {
				curType = curType.Elem
			}
		}
	}
	return expr
}

func (e *emitter) fieldOf(typ *hirtype.Type, id mir.FieldID) (*mir.StructDef, string) {
	if typ == nil || typ.Kind != hirtype.KindStruct {
		return nil, fmt.Sprintf("_f%d", id)
	}
	def := e.program.StructByName(typ.Name)
	if def == nil || int(id) < 0 || int(id) >= len(def.Fields) {
		return def, fmt.Sprintf("_f%d", id)
	}
	return def, def.Fields[id].Name
}

func fieldType(def *mir.StructDef, id mir.FieldID) *hirtype.Type {
	if int(id) < 0 || int(id) >= len(def.Fields) {
		return nil
	}
	return def.Fields[id].Type
}

func (e *emitter) renderConstant(c mir.Constant) string {
	switch c.Kind {
	case mir.ConstUnit:
		return "undefined"
	case mir.ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case mir.ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case mir.ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case mir.ConstChar:
		return fmt.Sprintf("%d", c.Char_())
	case mir.ConstString:
		return fmt.Sprintf("%q", c.String)
	default:
		return "undefined"
	}
}

var binOpJS = map[mir.BinOp]string{
	mir.OpAdd: "+", mir.OpSub: "-", mir.OpMul: "*", mir.OpRem: "%",
	mir.OpAnd: "&", mir.OpOr: "|", mir.OpXor: "^", mir.OpShl: "<<", mir.OpShr: ">>",
	mir.OpEq: "===", mir.OpNe: "!==", mir.OpLt: "<", mir.OpLe: "<=", mir.OpGt: ">", mir.OpGe: ">=",
	mir.OpLogicalAnd: "&&", mir.OpLogicalOr: "||",
}

// renderRvalue renders the JS expression for r. Pointer-typed BinaryOp
// arithmetic is realized through the __cm_ptr_add/sub helpers (§4.12
// "pointer arithmetic ... realized by __cm_ptr_add/sub").
func (e *emitter) renderRvalue(fn *mir.Function, fi *funcInfo, r mir.Rvalue) string {
	switch rv := r.(type) {
	case mir.UseRvalue:
		return e.renderOperand(fn, fi, rv.Operand)
	case mir.BinaryOpRvalue:
		lhs := e.renderOperand(fn, fi, rv.Lhs)
		rhs := e.renderOperand(fn, fi, rv.Rhs)
		if rv.ResultType != nil && rv.ResultType.Kind == hirtype.KindPointer {
			if rv.Op == mir.OpAdd {
				e.markHelper("__cm_ptr_add")
				return fmt.Sprintf("__cm_ptr_add(%s, %s)", lhs, rhs)
			}
			if rv.Op == mir.OpSub {
				e.markHelper("__cm_ptr_sub")
				return fmt.Sprintf("__cm_ptr_sub(%s, %s)", lhs, rhs)
			}
		}
		if rv.Op == mir.OpDiv {
			return fmt.Sprintf("(%s / %s)", lhs, rhs)
		}
		op, ok := binOpJS[rv.Op]
		if !ok {
			op = "+"
		}
		return fmt.Sprintf("(%s %s %s)", lhs, op, rhs)
	case mir.UnaryOpRvalue:
		operand := e.renderOperand(fn, fi, rv.Operand)
		switch rv.Op {
		case mir.OpNeg:
			return fmt.Sprintf("(-%s)", operand)
		case mir.OpNot:
			return fmt.Sprintf("(!%s)", operand)
		case mir.OpBitNot:
			return fmt.Sprintf("(~%s)", operand)
		default:
			return operand
		}
	case mir.RefRvalue:
		return e.renderRef(fn, fi, rv.Place)
	case mir.AggregateRvalue:
		return e.renderAggregate(fn, fi, rv)
	case mir.CastRvalue:
		return e.renderCast(fn, fi, rv)
	case mir.FormatConvertRvalue:
		return e.renderFormatConvert(fn, fi, rv)
	default:
		return "undefined"
	}
}

// renderRef implements §4.12's reference-semantics rules: a trailing Index
// projection becomes the fat pointer `{__arr, __idx}`; otherwise, when the
// base local is boxed, Ref yields the wrapper array itself (not its [0]
// element) so the pointer and its pointee share identity.
func (e *emitter) renderRef(fn *mir.Function, fi *funcInfo, p mir.Place) string {
	if n := len(p.Projections); n > 0 {
		if ip, ok := p.Projections[n-1].(mir.IndexProj); ok {
			base := e.renderPlace(fn, fi, mir.Place{Local: p.Local, Projections: p.Projections[:n-1]})
			return fmt.Sprintf("{ __arr: %s, __idx: %s }", base, e.readLocal(fn, fi, ip.IndexLocal))
		}
	}
	if p.Trivial() && fi.isBoxed(fn, p.Local) {
		return e.localName(fn, p.Local)
	}
	return e.renderPlace(fn, fi, p)
}

func (e *emitter) renderAggregate(fn *mir.Function, fi *funcInfo, rv mir.AggregateRvalue) string {
	parts := make([]string, len(rv.Operands))
	for i, op := range rv.Operands {
		parts[i] = e.renderOperand(fn, fi, op)
	}
	switch rv.Kind {
	case mir.AggArray, mir.AggTuple:
		return "[" + strings.Join(parts, ", ") + "]"
	case mir.AggStruct:
		def := e.program.StructByName(rv.StructName)
		if def == nil {
			return "{" + strings.Join(parts, ", ") + "}"
		}
		fields := make([]string, 0, len(parts))
		for i, f := range def.Fields {
			if i >= len(parts) {
				break
			}
			key := f.Name
			if def.CSSTagged {
				key = fmt.Sprintf("%q", strcase.ToKebab(f.Name))
			}
			fields = append(fields, fmt.Sprintf("%s: %s", key, parts[i]))
		}
		return "{ " + strings.Join(fields, ", ") + " }"
	default:
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

func (e *emitter) renderCast(fn *mir.Function, fi *funcInfo, rv mir.CastRvalue) string {
	val := e.renderOperand(fn, fi, rv.Operand)
	if rv.TargetType == nil {
		return val
	}
	switch rv.TargetType.Kind {
	case hirtype.KindInt:
		return fmt.Sprintf("Math.trunc(%s)", val)
	case hirtype.KindFloat:
		return fmt.Sprintf("Number(%s)", val)
	case hirtype.KindString:
		return fmt.Sprintf("String(%s)", val)
	case hirtype.KindChar:
		return val
	default:
		return val
	}
}

func (e *emitter) renderFormatConvert(fn *mir.Function, fi *funcInfo, rv mir.FormatConvertRvalue) string {
	val := e.renderOperand(fn, fi, rv.Operand)
	e.markHelper("__cm_format_string")
	return fmt.Sprintf("__cm_format_string(%s, %q)", val, rv.FormatSpec)
}

// builtinExpansion renders a call to a builtin name per §4.12's "Call"
// rules: a fixed runtime-helper expansion, or a direct JS call when no
// helper is registered for it. Every argument is passed as rendered; char
// arguments are not converted with String.fromCharCode and reach the
// callee as numeric code points.
func (e *emitter) builtinExpansion(fn *mir.Function, fi *funcInfo, call mir.Call) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = e.renderOperand(fn, fi, a)
	}
	def, _ := builtinreg.Lookup(call.Callee)
	target := call.Callee
	if def.JSHelper != "" {
		target = def.JSHelper
	}
	e.markHelper(target)
	return fmt.Sprintf("%s(%s)", target, strings.Join(args, ", "))
}
