package jsemit

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/mir"
)

// emitBlockStatements renders every Statement in b except StorageLive/Dead
// (no JS equivalent) and Nop, using declare-on-assign for locals whose
// single write dominates every read (§4.12 bullet 4) and plain assignment
// otherwise.
func (e *emitter) emitBlockStatements(fn *mir.Function, fi *funcInfo, b *mir.BasicBlock) {
	for _, s := range b.Statements {
		e.emitStatement(fn, fi, s)
	}
}

func (e *emitter) emitStatement(fn *mir.Function, fi *funcInfo, s mir.Statement) {
	switch st := s.(type) {
	case mir.Assign:
		e.emitAssign(fn, fi, st)
	case mir.Asm:
		e.line("// inline asm skipped on the JS target")
	case mir.StorageLive, mir.StorageDead, mir.NopStmt:
		// no JS equivalent
	}
}

func (e *emitter) emitAssign(fn *mir.Function, fi *funcInfo, a mir.Assign) {
	if !a.Place.Trivial() {
		lhs := e.renderPlace(fn, fi, a.Place)
		rhs := e.renderRvalue(fn, fi, a.Rvalue)
		e.line("%s = %s;", lhs, rhs)
		return
	}

	id := a.Place.Local
	if fi.inlineCandidate(fn, id) {
		// Rendered at its use site instead (readLocal/inlineText).
		return
	}

	rhs := e.renderRvalue(fn, fi, a.Rvalue)
	if fi.isBoxed(fn, id) {
		if fi.declareOnAssign(fn, id) {
			e.line("let %s = [%s];", e.localName(fn, id), rhs)
		} else {
			e.line("%s[0] = %s;", e.localName(fn, id), rhs)
		}
		return
	}
	if fi.declareOnAssign(fn, id) {
		e.line("let %s = %s;", e.localName(fn, id), rhs)
	} else {
		e.line("%s = %s;", e.localName(fn, id), rhs)
	}
}

// emitCallStatement renders a Call terminator's side effect: builtin calls
// expand through builtinExpansion, defined calls become plain JS calls, and
// virtual dispatch reads the callee's vtable off its fat-interface-value
// receiver (§4.12 "Virtual dispatch").
func (e *emitter) emitCallStatement(fn *mir.Function, fi *funcInfo, t mir.Call) {
	expr := e.renderCall(fn, fi, t)
	if t.Destination == nil {
		e.line("%s;", expr)
		return
	}
	if !t.Destination.Trivial() {
		e.line("%s = %s;", e.renderPlace(fn, fi, *t.Destination), expr)
		return
	}
	id := t.Destination.Local
	if fi.inlineCandidate(fn, id) {
		return
	}
	if fi.isBoxed(fn, id) {
		if fi.declareOnAssign(fn, id) {
			e.line("let %s = [%s];", e.localName(fn, id), expr)
		} else {
			e.line("%s[0] = %s;", e.localName(fn, id), expr)
		}
		return
	}
	if fi.declareOnAssign(fn, id) {
		e.line("let %s = %s;", e.localName(fn, id), expr)
	} else {
		e.line("%s = %s;", e.localName(fn, id), expr)
	}
}

func (e *emitter) renderCall(fn *mir.Function, fi *funcInfo, t mir.Call) string {
	if t.IsVirtual {
		if len(t.Args) == 0 {
			return "undefined"
		}
		recv := e.renderOperand(fn, fi, t.Args[0])
		args := make([]string, 0, len(t.Args))
		args = append(args, recv+".data")
		for _, a := range t.Args[1:] {
			args = append(args, e.renderOperand(fn, fi, a))
		}
		return fmt.Sprintf("%s.vtable.%s(%s)", recv, t.MethodName, joinArgs(args))
	}
	if e.program.FuncByName(t.Callee) != nil {
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = e.renderOperand(fn, fi, a)
		}
		return fmt.Sprintf("%s(%s)", t.Callee, joinArgs(args))
	}
	return e.builtinExpansion(fn, fi, t)
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// emitReturn renders the current function's return: the value left in
// fn.ReturnLocal, the convention the Return terminator relies on (it
// carries no operand of its own).
func (e *emitter) emitReturn(fn *mir.Function, fi *funcInfo) {
	if fn.Local(fn.ReturnLocal).Type.IsVoid() {
		e.line("return;")
		return
	}
	e.line("return %s;", e.readLocal(fn, fi, fn.ReturnLocal))
}
