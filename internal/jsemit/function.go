package jsemit

import (
	"strings"

	"github.com/cm-lang/cmc/internal/mir"
)

// emitFunction emits one top-level JS function declaration: parameter
// list, upfront `let` declarations for every local not handled by
// declare-on-assign, the recovered body, and closing brace (§4.12
// "Function emission").
func (e *emitter) emitFunction(fn *mir.Function) {
	fi := analyzeFunc(fn)

	args := make([]string, len(fn.ArgLocals))
	for i, id := range fn.ArgLocals {
		args[i] = e.localName(fn, id)
	}

	prefix := ""
	if fn.Async {
		prefix = "async "
	}
	e.line("%sfunction %s(%s) {", prefix, fn.Name, strings.Join(args, ", "))
	e.indent++

	e.emitLocalDecls(fn, fi)

	body, _ := e.renderBody(fn, fi)
	e.out.WriteString(body)

	e.indent--
	e.line("}")
	e.blank()
}

// emitLocalDecls declares every local that is not inline-substituted,
// not an argument, and not eligible for declare-on-assign, with its
// type's default value — boxed locals get a one-element array wrapper
// (§4.12 "Reference semantics").
func (e *emitter) emitLocalDecls(fn *mir.Function, fi *funcInfo) {
	for _, l := range fn.Locals {
		if isArgOrReturn(fn, l.ID) {
			continue
		}
		if fi.inlineCandidate(fn, l.ID) {
			continue
		}
		if fi.declareOnAssign(fn, l.ID) {
			continue
		}
		if !fi.used[l.ID] {
			continue
		}
		def := e.defaultValue(l.Type)
		if fi.isBoxed(fn, l.ID) {
			e.line("let %s = [%s];", e.localName(fn, l.ID), def)
		} else {
			e.line("let %s = %s;", e.localName(fn, l.ID), def)
		}
	}
}

func isArgOrReturn(fn *mir.Function, id mir.LocalID) bool {
	for _, a := range fn.ArgLocals {
		if a == id {
			return true
		}
	}
	return false
}

// emitDispatch renders the always-correct fallback strategy (§4.12): a
// `let __block` cursor initialized to the entry block and a
// `while (true) { switch (__block) { case N: ...; __block = M; continue; } }`
// scaffold, one case per block, used whenever linear and structured
// recovery both fail to recognize the function's CFG shape.
func (e *emitter) emitDispatch(fn *mir.Function, fi *funcInfo) {
	e.line("let __block = %d;", fn.EntryBlock)
	e.line("__dispatch: while (true) {")
	e.indent++
	e.line("switch (__block) {")
	e.indent++
	for _, b := range mir.Blocks(fn) {
		e.line("case %d: {", b.ID)
		e.indent++
		e.emitBlockStatements(fn, fi, b)
		e.emitDispatchTerminator(fn, fi, b.Terminator)
		e.indent--
		e.line("}")
	}
	e.indent--
	e.line("}")
	e.indent--
	e.line("}")
}

func (e *emitter) emitDispatchTerminator(fn *mir.Function, fi *funcInfo, t mir.Terminator) {
	switch term := t.(type) {
	case mir.Goto:
		e.line("__block = %d; continue __dispatch;", term.Target)
	case mir.SwitchInt:
		disc := e.renderOperand(fn, fi, term.Discriminant)
		for _, c := range term.Cases {
			e.line("if (Number(%s) === %d) { __block = %d; continue __dispatch; }", disc, c.Value, c.Target)
		}
		e.line("__block = %d; continue __dispatch;", term.Otherwise)
	case mir.Call:
		e.emitCallStatement(fn, fi, term)
		e.line("__block = %d; continue __dispatch;", term.Success)
	case mir.Return:
		e.emitReturn(fn, fi)
	case mir.Unreachable:
		e.line("throw new Error(%q);", "unreachable")
	}
}
